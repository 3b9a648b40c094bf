// Package catalog provides Bleve-backed full-text search over the course
// catalog. It complements the recommendation engine: the engine answers
// "what is similar to what I know", the catalog answers "find me a course
// about X".
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/osusume/internal/models"
)

// courseDoc is the document shape stored in the index. Only searchable text
// goes in; the authoritative course record stays in storage.
type courseDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Level       string `json:"level"`
}

// Hit is a single search hit, resolved back to a course via its ID.
type Hit struct {
	CourseID int64
	Score    float64
}

// Catalog is a Bleve index over course titles and descriptions.
type Catalog struct {
	index bleve.Index
}

// Open creates or opens a Bleve index at path. An existing index is reused so
// the catalog survives restarts without a full re-index; remove the directory
// to force a rebuild after a mapping change.
func Open(path string) (*Catalog, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "network"
	// matches exactly; the English analyzer would stem queries and titles
	// differently and miss exact words.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("level", keywordFieldMapping)
	im.AddDocumentMapping("course", docMapping)
	im.DefaultType = "course"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open catalog index: %w", openErr)
		}
		return &Catalog{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create catalog index: %w", err)
	}
	return &Catalog{index: index}, nil
}

// Index adds or replaces a course in the index.
func (c *Catalog) Index(ctx context.Context, course *models.Course) error {
	doc := &courseDoc{
		Title:       course.Title,
		Description: course.Description,
		Category:    course.Category,
		Level:       course.Level,
	}
	return c.index.Index(strconv.FormatInt(course.ID, 10), doc)
}

// Delete removes a course from the index.
func (c *Catalog) Delete(ctx context.Context, courseID int64) error {
	return c.index.Delete(strconv.FormatInt(courseID, 10))
}

// Search runs title and description match queries and merges them
// additively, with the title score multiplied by titleBoost. A titleBoost
// of 1 or less still works; title hits then carry no extra weight.
func (c *Catalog) Search(ctx context.Context, query string, limit int, titleBoost float64) ([]*Hit, error) {
	if titleBoost <= 0 {
		titleBoost = 1.0
	}
	// Same doc can appear in both result sets, so over-fetch before merging.
	reqSize := limit * 2
	if reqSize < 50 {
		reqSize = 50
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleReq := bleve.NewSearchRequest(titleQuery)
	titleReq.Size = reqSize

	descQuery := bleve.NewMatchQuery(query)
	descQuery.SetField("description")
	descReq := bleve.NewSearchRequest(descQuery)
	descReq.Size = reqSize

	titleResults, err := c.index.Search(titleReq)
	if err != nil {
		return nil, fmt.Errorf("catalog title search: %w", err)
	}
	descResults, err := c.index.Search(descReq)
	if err != nil {
		return nil, fmt.Errorf("catalog description search: %w", err)
	}

	scores := make(map[string]float64)
	for _, hit := range titleResults.Hits {
		scores[hit.ID] += hit.Score * titleBoost
	}
	for _, hit := range descResults.Hits {
		scores[hit.ID] += hit.Score
	}

	merged := make([]*Hit, 0, len(scores))
	for id, score := range scores {
		courseID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		merged = append(merged, &Hit{CourseID: courseID, Score: score})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].CourseID < merged[j].CourseID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// DocCount returns the number of indexed courses.
func (c *Catalog) DocCount() (uint64, error) {
	return c.index.DocCount()
}

// Close closes the underlying index.
func (c *Catalog) Close() error {
	return c.index.Close()
}
