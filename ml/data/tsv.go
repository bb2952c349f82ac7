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

package data

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// IndexFn converts one TSV cell to an id-sequence. Symbol-to-id mapping
// (tokenization) is owned by the caller; this package only moves the results
// into batches.
type IndexFn func(cell string) ([]int32, error)

// SplitIDs is the IndexFn for cells holding whitespace-separated integer ids,
// e.g. "12 7 433".
func SplitIDs(cell string) ([]int32, error) {
	fields := strings.Fields(cell)
	ids := make([]int32, len(fields))
	for ii, field := range fields {
		id, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %q is not a sequence of integer ids", cell)
		}
		ids[ii] = int32(id)
	}
	return ids, nil
}

// TSVSource reads examples from a headerless tab-separated file, the usual
// on-disk format for transduction corpora: one example per line, source in the
// first column, target in the second, features (when the corpus has them) in a
// third.
//
// Configure column positions with the cascading With* methods; a negative
// column marks the stream as absent.
type TSVSource struct {
	path                             string
	index                            IndexFn
	sourceCol, targetCol, featureCol int
}

// NewTSVSource creates a TSVSource for the given file, converting cells with
// the given IndexFn. Defaults: source in column 0, target in column 1, no
// features.
func NewTSVSource(path string, index IndexFn) *TSVSource {
	return &TSVSource{
		path:       path,
		index:      index,
		sourceCol:  0,
		targetCol:  1,
		featureCol: -1,
	}
}

// WithSourceColumn sets the 0-based column of the source.
// It returns the updated TSVSource, so calls can be cascaded.
func (s *TSVSource) WithSourceColumn(col int) *TSVSource {
	s.sourceCol = col
	return s
}

// WithTargetColumn sets the 0-based column of the target. A negative column
// means the corpus has no targets (e.g. a prediction-only file).
// It returns the updated TSVSource, so calls can be cascaded.
func (s *TSVSource) WithTargetColumn(col int) *TSVSource {
	s.targetCol = col
	return s
}

// WithFeaturesColumn sets the 0-based column of the features. A negative
// column (the default) means the corpus has no features.
// It returns the updated TSVSource, so calls can be cascaded.
func (s *TSVSource) WithFeaturesColumn(col int) *TSVSource {
	s.featureCol = col
	return s
}

// Read parses the whole file into examples.
func (s *TSVSource) Read() ([]Example, error) {
	if s.sourceCol < 0 {
		return nil, errors.Errorf("TSVSource %q: a source column is required", s.path)
	}
	f, err := os.Open(ReplaceTildeInDir(s.path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open TSV file %q", s.path)
	}
	defer func() {
		_ = f.Close()
	}()

	df := dataframe.ReadCSV(f,
		dataframe.WithDelimiter('\t'),
		dataframe.WithLazyQuotes(true),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String))
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to parse TSV file %q", s.path)
	}
	for name, col := range map[string]int{"source": s.sourceCol, "target": s.targetCol, "features": s.featureCol} {
		if col >= df.Ncol() {
			return nil, errors.Errorf("TSV file %q has %d columns, %s column %d doesn't exist",
				s.path, df.Ncol(), name, col)
		}
	}

	examples := make([]Example, 0, df.Nrow())
	for row := 0; row < df.Nrow(); row++ {
		var example Example
		example.Source, err = s.indexCell(df, row, s.sourceCol)
		if err != nil {
			return nil, err
		}
		if s.targetCol >= 0 {
			example.Target, err = s.indexCell(df, row, s.targetCol)
			if err != nil {
				return nil, err
			}
		}
		if s.featureCol >= 0 {
			example.Features, err = s.indexCell(df, row, s.featureCol)
			if err != nil {
				return nil, err
			}
		}
		examples = append(examples, example)
	}
	klog.V(1).Infof("TSVSource: read %d examples from %q", len(examples), s.path)
	return examples, nil
}

func (s *TSVSource) indexCell(df dataframe.DataFrame, row, col int) ([]int32, error) {
	ids, err := s.index(df.Elem(row, col).String())
	if err != nil {
		return nil, errors.WithMessagef(err, "TSV file %q, line %d, column %d", s.path, row+1, col)
	}
	return ids, nil
}
