/*
 *	Copyright 2025 The Yoyodyne Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// yoyodyne_batches collates a TSV dataset of id-sequences into padded batches
// and reports how they come out: batch sizes, pad lengths, padding waste and
// memory. Useful to pick batch sizes and maximum lengths before training.
//
// Usage:
//
//	yoyodyne_batches --batch_size=64 --features_col=2 train.tsv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/CarlosGolvano/yoyodyne/ml/data"
	"github.com/CarlosGolvano/yoyodyne/types/tensors"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagBatchSize = flag.Int("batch_size", 32, "Number of examples collated into each batch.")
	flagPadIdx    = flag.Int("pad", 0, "Padding index, the sentinel id used to right-pad sequences.")

	flagSourceCol   = flag.Int("source_col", 0, "0-based column of the source ids in the TSV file.")
	flagTargetCol   = flag.Int("target_col", 1, "0-based column of the target ids. Negative if the file has no targets.")
	flagFeaturesCol = flag.Int("features_col", -1, "0-based column of the features ids. Negative if the file has no features.")

	flagMaxSourceLen = flag.Int("max_source_length", 0, "Fail on batches whose source pad length exceeds this. 0 disables the check.")
	flagMaxTargetLen = flag.Int("max_target_length", 0, "Fail on batches whose target pad length exceeds this. 0 disables the check.")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing TSV dataset file to read from. See 'yoyodyne_batches -help'.")
		os.Exit(1)
	}
	if len(args) > 1 {
		klog.Errorf("Too many arguments. See 'yoyodyne_batches -help'.")
		os.Exit(1)
	}
	report(args[0])
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)
)

func newPlainTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row < 0 {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return
		})
}

func report(tsvPath string) {
	source := data.NewTSVSource(tsvPath, data.SplitIDs).
		WithSourceColumn(*flagSourceCol).
		WithTargetColumn(*flagTargetCol).
		WithFeaturesColumn(*flagFeaturesCol)
	examples := must.M1(source.Read())
	fmt.Printf("Read %d examples from %q.\n", len(examples), tsvPath)

	collator := data.NewCollator(int32(*flagPadIdx)).
		WithMaxSourceLength(*flagMaxSourceLen).
		WithMaxTargetLength(*flagMaxTargetLen)
	ds := data.InMemory("inspect", examples, collator, *flagBatchSize).YieldIncomplete()

	table := newPlainTable().
		Headers("Batch", "Examples", "Source len", "Target len", "Source padding", "Memory")
	var totalMemory int64
	batchIdx := 0
	for {
		_, batch, err := ds.Yield()
		if err == io.EOF {
			break
		}
		must.M(err)
		memory := batchMemory(batch)
		totalMemory += memory
		table.Row(
			fmt.Sprintf("#%d", batchIdx),
			fmt.Sprintf("%d", batch.Len()),
			fmt.Sprintf("%d", batch.Source.PaddedLen()),
			targetLen(batch),
			fmt.Sprintf("%.1f%%", 100*paddingWaste(batch.Source)),
			humanize.IBytes(uint64(memory)),
		)
		batchIdx++
	}
	fmt.Println(table.Render())
	fmt.Printf("%d batches, %s total.\n", batchIdx, humanize.IBytes(uint64(totalMemory)))
}

func targetLen(batch *data.PaddedBatch) string {
	if !batch.HasTarget() {
		return "-"
	}
	return fmt.Sprintf("%d", batch.Target.PaddedLen())
}

// paddingWaste returns the fraction of positions holding padding rather than
// tokens.
func paddingWaste(padded *data.PaddedTensor) float64 {
	total := padded.Len() * padded.PaddedLen()
	var used int64
	for _, length := range tensors.FlatData[int32](padded.Lengths()) {
		used += int64(length)
	}
	return 1 - float64(used)/float64(total)
}

func batchMemory(batch *data.PaddedBatch) int64 {
	memory := batch.Source.Padded().Memory()
	if batch.HasFeatures() {
		memory += batch.Features.Padded().Memory()
	}
	if batch.HasTarget() {
		memory += batch.Target.Padded().Memory()
	}
	return memory
}
