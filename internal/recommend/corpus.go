// Package recommend implements the TF-IDF course recommendation engine:
// a cached corpus of tokenized course titles, cosine similarity ranking with
// level/category/enrollment filters, and a popularity re-rank pass.
package recommend

import (
	"strings"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/similarity"
	"github.com/hyperjump/osusume/internal/text"
	"github.com/hyperjump/osusume/internal/tfidf"
)

// Corpus is an immutable snapshot of the course catalog with its derived
// similarity matrix. It is safe for concurrent reads; a catalog change
// requires a rebuild, not mutation.
type Corpus struct {
	courses    []*models.Course
	sim        [][]float64
	titleIndex map[string]int
}

// BuildCorpus tokenizes course titles, builds the TF-IDF matrix, and derives
// the pairwise cosine similarity matrix. Courses must arrive in a stable
// order (storage lists by ID) so vocabulary construction and tie-breaking are
// deterministic.
func BuildCorpus(courses []*models.Course) *Corpus {
	docs := make([][]string, len(courses))
	for i, course := range courses {
		docs[i] = text.Tokenize(course.Title)
	}
	matrix := tfidf.Build(docs)
	sim := similarity.CosineMatrix(matrix.Rows)

	titleIndex := make(map[string]int, len(courses))
	for i, course := range courses {
		key := strings.ToLower(course.Title)
		// First occurrence wins for duplicate titles.
		if _, ok := titleIndex[key]; !ok {
			titleIndex[key] = i
		}
	}

	return &Corpus{courses: courses, sim: sim, titleIndex: titleIndex}
}

// Len returns the number of courses in the corpus.
func (c *Corpus) Len() int {
	return len(c.courses)
}

// Course returns the course at row i.
func (c *Corpus) Course(i int) *models.Course {
	return c.courses[i]
}

// IndexOf returns the corpus row of the course with the given ID.
func (c *Corpus) IndexOf(courseID int64) (int, bool) {
	for i, course := range c.courses {
		if course.ID == courseID {
			return i, true
		}
	}
	return 0, false
}

// IndexOfTitle returns the corpus row matching title case-insensitively.
// An empty title never matches.
func (c *Corpus) IndexOfTitle(title string) (int, bool) {
	if title == "" {
		return 0, false
	}
	i, ok := c.titleIndex[strings.ToLower(title)]
	return i, ok
}

// Similarity returns the cosine similarity between courses at rows i and j.
func (c *Corpus) Similarity(i, j int) float64 {
	return c.sim[i][j]
}
