package model

import (
	"math"
	"sort"
)

// Vector is a sparse term-weight vector. Indices are ascending column ids.
type Vector struct {
	Indices []int
	Values  []float64
}

func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

type posting struct {
	doc    int
	weight float64
}

// Index holds TF-IDF vectors for every catalog document. It is built once
// and read-only afterwards.
type Index struct {
	terms    []string
	columns  map[string]int
	idf      []float64
	rows     []Vector
	postings [][]posting
}

// BuildIndex weights every document with raw term counts times smoothed
// idf, ln((1+n)/(1+df))+1, and L2-normalises each row. Columns follow
// lexicographic term order.
func BuildIndex(docs []string) *Index {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		toks := tokenize(d)
		tokenized[i] = toks
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	idx := &Index{
		terms:    terms,
		columns:  make(map[string]int, len(terms)),
		idf:      make([]float64, len(terms)),
		rows:     make([]Vector, len(docs)),
		postings: make([][]posting, len(terms)),
	}
	n := float64(len(docs))
	for col, t := range terms {
		idx.columns[t] = col
		idx.idf[col] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	for doc, toks := range tokenized {
		row := idx.weigh(toks)
		idx.rows[doc] = row
		for j, col := range row.Indices {
			idx.postings[col] = append(idx.postings[col], posting{doc: doc, weight: row.Values[j]})
		}
	}
	return idx
}

func (idx *Index) weigh(tokens []string) Vector {
	counts := make(map[int]float64)
	for _, t := range tokens {
		if col, ok := idx.columns[t]; ok {
			counts[col]++
		}
	}
	v := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for col := range counts {
		v.Indices = append(v.Indices, col)
	}
	sort.Ints(v.Indices)

	var norm float64
	for _, col := range v.Indices {
		w := counts[col] * idx.idf[col]
		v.Values = append(v.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range v.Values {
			v.Values[i] /= norm
		}
	}
	return v
}

// Transform vectorises text against the fixed vocabulary. Unknown terms
// are dropped, so unrelated text gives a zero vector.
func (idx *Index) Transform(text string) Vector {
	return idx.weigh(tokenize(text))
}

// Vector returns the stored row for document id.
func (idx *Index) Vector(doc int) Vector {
	return idx.rows[doc]
}

// Vocabulary returns terms in column order.
func (idx *Index) Vocabulary() []string {
	out := make([]string, len(idx.terms))
	copy(out, idx.terms)
	return out
}

// similarities returns the dot product of v with every stored row.
func (idx *Index) similarities(v Vector) []float64 {
	scores := make([]float64, len(idx.rows))
	for i, col := range v.Indices {
		if col < 0 || col >= len(idx.postings) {
			continue
		}
		qw := v.Values[i]
		for _, p := range idx.postings[col] {
			scores[p.doc] += qw * p.weight
		}
	}
	return scores
}
