// Copyright 2024 Fantom Foundation
// This file is part of Fiber, an exact test toolkit for contingency tables
//
// Fiber is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Fiber is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Fiber. If not, see <http://www.gnu.org/licenses/>.

// Package problem reads and writes exact test problems. A problem file is
// a whitespace separated list of integers:
//
//	rows cols
//	<rows*cols observed counts in row-major order>
//	moves length
//	<moves*length basis entries, one move after the other>
//
// The basis section is optional. Files with a .gz extension are gzip
// compressed.
package problem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Fantom-foundation/Fiber/basis"
	"github.com/Fantom-foundation/Fiber/contingency"
	"github.com/klauspost/compress/gzip"
)

// ErrTrailingInput is returned for tokens following the basis section.
var ErrTrailingInput = errors.New("unexpected input after basis")

// Problem is an observed table with an optional Markov basis.
type Problem struct {
	Table *contingency.Table
	Basis basis.Basis
}

// HasBasis reports whether the problem file provided a basis.
func (p *Problem) HasBasis() bool {
	return len(p.Basis) > 0
}

// Read loads a problem from the given file.
func Read(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var in io.Reader = f
	if isGzip(path) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("cannot open gzip stream of %s: %w", path, err)
		}
		defer zr.Close()
		in = zr
	}

	p, err := Decode(in)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return p, nil
}

// Decode parses a problem from the given reader. Any token following the
// basis section is reported as ErrTrailingInput.
func Decode(r io.Reader) (*Problem, error) {
	sc := &scanner{Scanner: bufio.NewScanner(r)}
	sc.Split(bufio.ScanWords)

	rows, err := sc.readDim("table rows")
	if err != nil {
		return nil, err
	}
	cols, err := sc.readDim("table columns")
	if err != nil {
		return nil, err
	}
	cells, err := contingency.CellCount(rows, cols)
	if err != nil {
		return nil, err
	}
	// dimensions are untrusted, counts grow with the tokens actually read
	var counts []int
	for i := 0; i < cells; i++ {
		c, err := sc.readInt(fmt.Sprintf("count of cell (%d,%d)", i/cols, i%cols))
		if err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	table, err := contingency.NewTable(rows, cols, counts)
	if err != nil {
		return nil, err
	}
	p := &Problem{Table: table}

	// the basis section is optional
	if !sc.more() {
		return p, sc.Err()
	}
	moves, err := sc.readDim("number of moves")
	if err != nil {
		return nil, err
	}
	length, err := sc.readDim("move length")
	if err != nil {
		return nil, err
	}
	if length > 0 && moves > math.MaxInt/length {
		return nil, fmt.Errorf("invalid basis size: %d moves of length %d", moves, length)
	}
	var vectors [][]int
	for i := 0; i < moves; i++ {
		var move []int
		for j := 0; j < length; j++ {
			v, err := sc.readInt(fmt.Sprintf("entry %d of move %d", j, i))
			if err != nil {
				return nil, err
			}
			move = append(move, v)
		}
		vectors = append(vectors, move)
	}
	if sc.more() {
		return nil, fmt.Errorf("%w: %q after %d moves", ErrTrailingInput, sc.Text(), moves)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	p.Basis = basis.New(vectors)
	return p, nil
}

// WriteFile stores a problem in the given file.
func WriteFile(path string, p *Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var out io.Writer = f
	var zw *gzip.Writer
	if isGzip(path) {
		zw = gzip.NewWriter(f)
		out = zw
	}

	err = Encode(out, p)
	if zw != nil {
		err = errors.Join(err, zw.Close())
	}
	return errors.Join(err, f.Close())
}

// Encode writes a problem in the text format. A nil table omits the table
// section, which is used for writing a stand-alone basis.
func Encode(w io.Writer, p *Problem) error {
	bw := bufio.NewWriter(w)
	if t := p.Table; t != nil {
		fmt.Fprintf(bw, "%d %d\n", t.Rows, t.Cols)
		for i := 0; i < t.Rows; i++ {
			writeInts(bw, t.Counts[i*t.Cols:(i+1)*t.Cols])
		}
	}
	if p.HasBasis() {
		fmt.Fprintf(bw, "%d %d\n", len(p.Basis), p.Basis.Dim())
		for _, m := range p.Basis {
			writeInts(bw, m)
		}
	}
	return bw.Flush()
}

func writeInts(w *bufio.Writer, values []int) {
	for i, v := range values {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(strconv.Itoa(v))
	}
	w.WriteByte('\n')
}

func isGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}

// scanner reads integer tokens and names the missing or malformed field.
type scanner struct {
	*bufio.Scanner
	peeked bool
}

func (s *scanner) more() bool {
	if !s.peeked {
		s.peeked = s.Scan()
	}
	return s.peeked
}

func (s *scanner) readInt(field string) (int, error) {
	if !s.more() {
		if err := s.Err(); err != nil {
			return 0, fmt.Errorf("cannot read %s: %w", field, err)
		}
		return 0, fmt.Errorf("cannot read %s: %w", field, io.ErrUnexpectedEOF)
	}
	s.peeked = false
	v, err := strconv.Atoi(s.Text())
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s.Text(), err)
	}
	return v, nil
}

func (s *scanner) readDim(field string) (int, error) {
	v, err := s.readInt(field)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s: %d is negative", field, v)
	}
	return v, nil
}
