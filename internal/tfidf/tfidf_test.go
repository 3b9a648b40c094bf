package tfidf

import (
	"math"
	"testing"
)

func TestNewVocabulary_insertionOrder(t *testing.T) {
	docs := [][]string{
		{"python", "intro"},
		{"python", "data", "scienc"},
		{"art", "histori"},
	}
	v := NewVocabulary(docs)
	want := []string{"python", "intro", "data", "scienc", "art", "histori"}
	if v.Size() != len(want) {
		t.Fatalf("Size() = %d, want %d", v.Size(), len(want))
	}
	for i, term := range want {
		got, ok := v.Index(term)
		if !ok {
			t.Fatalf("term %q missing", term)
		}
		if got != i {
			t.Errorf("Index(%q) = %d, want %d", term, got, i)
		}
	}
}

func TestNewVocabulary_duplicatesKeepFirstIndex(t *testing.T) {
	v := NewVocabulary([][]string{{"go", "go", "rust"}, {"go"}})
	if i, _ := v.Index("go"); i != 0 {
		t.Errorf("Index(go) = %d, want 0", i)
	}
	if v.Size() != 2 {
		t.Errorf("Size() = %d, want 2", v.Size())
	}
}

func TestBuild_weights(t *testing.T) {
	// Three docs, "python" in two of them, "art" in one.
	docs := [][]string{
		{"python", "intro"},
		{"python", "python"},
		{"art"},
	}
	m := Build(docs)
	if len(m.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.Rows))
	}

	pythonIdx, _ := m.Vocab.Index("python")
	artIdx, _ := m.Vocab.Index("art")

	// df(python)=2, so idf = ln(3/3) = 0.
	if got := m.Rows[0][pythonIdx]; math.Abs(got) > 1e-9 {
		t.Errorf("weight(doc0, python) = %v, want 0", got)
	}
	// tf=2 in doc1, still 0 because idf is 0.
	if got := m.Rows[1][pythonIdx]; math.Abs(got) > 1e-9 {
		t.Errorf("weight(doc1, python) = %v, want 0", got)
	}
	// df(art)=1, idf = ln(3/2).
	wantArt := math.Log(3.0 / 2.0)
	if got := m.Rows[2][artIdx]; math.Abs(got-wantArt) > 1e-9 {
		t.Errorf("weight(doc2, art) = %v, want %v", got, wantArt)
	}
	// art does not appear in doc0.
	if got := m.Rows[0][artIdx]; got != 0 {
		t.Errorf("weight(doc0, art) = %v, want 0", got)
	}
}

func TestBuild_emptyDocumentGetsZeroRow(t *testing.T) {
	docs := [][]string{
		{"go", "concurr"},
		{},
	}
	m := Build(docs)
	for i, w := range m.Rows[1] {
		if w != 0 {
			t.Errorf("empty doc weight[%d] = %v, want 0", i, w)
		}
	}
}

func TestBuild_emptyCorpus(t *testing.T) {
	m := Build(nil)
	if len(m.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(m.Rows))
	}
	if m.Vocab.Size() != 0 {
		t.Errorf("vocab size = %d, want 0", m.Vocab.Size())
	}
}

func TestBuild_deterministic(t *testing.T) {
	docs := [][]string{
		{"intro", "python"},
		{"python", "data", "scienc"},
		{"histori", "art"},
	}
	a := Build(docs)
	b := Build(docs)
	for i := range a.Rows {
		for j := range a.Rows[i] {
			if a.Rows[i][j] != b.Rows[i][j] {
				t.Fatalf("matrix differs at [%d][%d]: %v vs %v", i, j, a.Rows[i][j], b.Rows[i][j])
			}
		}
	}
}
