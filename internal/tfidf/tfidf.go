// Package tfidf builds dense TF-IDF term-document matrices over small corpora.
//
// Vocabulary indices are assigned in first-seen order, so matrix layout (and
// therefore downstream tie-breaking) is deterministic for a given document
// order. Sizing note: the build is linear in total token count, but the dense
// matrix is numDocs x numTerms; fine for catalogs of hundreds of courses, not
// for corpora with tens of thousands of documents.
package tfidf

import "math"

// Vocabulary maps distinct terms to dense column indices in insertion order.
type Vocabulary struct {
	index map[string]int
	terms []string
}

// NewVocabulary builds a vocabulary from tokenized documents, assigning
// indices in the order terms are first seen.
func NewVocabulary(docs [][]string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	for _, doc := range docs {
		for _, term := range doc {
			if _, ok := v.index[term]; !ok {
				v.index[term] = len(v.terms)
				v.terms = append(v.terms, term)
			}
		}
	}
	return v
}

// Index returns the column index for term and whether the term is known.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Size returns the number of distinct terms.
func (v *Vocabulary) Size() int {
	return len(v.terms)
}

// Terms returns the terms in index order. The slice is shared, not copied.
func (v *Vocabulary) Terms() []string {
	return v.terms
}

// Matrix is a dense term-document matrix of TF-IDF weights.
// Row i holds the weights for document i; documents with no recognized terms
// have all-zero rows.
type Matrix struct {
	Rows  [][]float64
	Vocab *Vocabulary
}

// Build computes the TF-IDF matrix for tokenized documents.
// Weight = raw term count in the document * ln(N / (df(term)+1)), where df is
// the number of documents containing the term. The +1 smoothing means a term
// present in every document gets a small negative weight rather than zero;
// this matches the established scoring and keeps rankings stable.
func Build(docs [][]string) *Matrix {
	vocab := NewVocabulary(docs)
	numDocs := len(docs)
	numTerms := vocab.Size()

	docFreq := make([]int, numTerms)
	for _, doc := range docs {
		seen := make(map[int]struct{}, len(doc))
		for _, term := range doc {
			i, _ := vocab.Index(term)
			if _, dup := seen[i]; !dup {
				docFreq[i]++
				seen[i] = struct{}{}
			}
		}
	}

	rows := make([][]float64, numDocs)
	for d, doc := range docs {
		row := make([]float64, numTerms)
		counts := make(map[int]int, len(doc))
		for _, term := range doc {
			i, _ := vocab.Index(term)
			counts[i]++
		}
		for i, tf := range counts {
			idf := math.Log(float64(numDocs) / float64(docFreq[i]+1))
			row[i] = float64(tf) * idf
		}
		rows[d] = row
	}
	return &Matrix{Rows: rows, Vocab: vocab}
}
