package model

import "strings"

// Sparsity is a compressed column storage pattern.
// Rows of column c are RowIdx[ColPtr[c]:ColPtr[c+1]], ascending.
type Sparsity struct {
	Rows   int
	Cols   int
	ColPtr []int
	RowIdx []int
}

func Dense(rows, cols int) Sparsity {
	b := newBuilder(rows, cols)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			b.add(r, c)
		}
	}
	return b.build()
}

func (s Sparsity) NNZ() int {
	return len(s.RowIdx)
}

func (s Sparsity) Column(c int) []int {
	return s.RowIdx[s.ColPtr[c]:s.ColPtr[c+1]]
}

func (s Sparsity) Has(r, c int) bool {
	for _, row := range s.Column(c) {
		if row == r {
			return true
		}
		if row > r {
			return false
		}
	}
	return false
}

// Row returns the columns that are non-zero in row r.
func (s Sparsity) Row(r int) []int {
	var cols []int
	for c := 0; c < s.Cols; c++ {
		if s.Has(r, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s Sparsity) String() string {
	var sb strings.Builder
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			if s.Has(r, c) {
				sb.WriteByte('*')
			} else {
				sb.WriteByte('.')
			}
		}
		if r < s.Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

type builder struct {
	rows, cols int
	entries    [][]int
}

func newBuilder(rows, cols int) *builder {
	return &builder{rows: rows, cols: cols, entries: make([][]int, cols)}
}

// add must be called with ascending rows per column.
func (b *builder) add(r, c int) {
	b.entries[c] = append(b.entries[c], r)
}

func (b *builder) build() Sparsity {
	s := Sparsity{Rows: b.rows, Cols: b.cols, ColPtr: make([]int, b.cols+1), RowIdx: []int{}}
	for c, rows := range b.entries {
		s.RowIdx = append(s.RowIdx, rows...)
		s.ColPtr[c+1] = len(s.RowIdx)
	}
	return s
}
