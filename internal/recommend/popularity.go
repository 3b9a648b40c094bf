package recommend

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/models"
)

// defaultPopularityDenominator keeps the normalization inert when no
// enrollment counts are available: every candidate gets popularity ~0 and
// the similarity order survives the stable sort.
const defaultPopularityDenominator = 1_000_000

// rerankByPopularity re-sorts the already-selected candidates by normalized
// enrollment count, descending. Similarity chose the set; popularity chooses
// the final order, with the similarity order as tie-break (stable sort).
// Enrollment counts come from one batched query; on lookup failure the
// similarity order is kept and all popularities stay zero.
func (e *Engine) rerankByPopularity(ctx context.Context, results []*models.CourseRecommendation) []*models.CourseRecommendation {
	if len(results) == 0 {
		return results
	}

	ids := make([]int64, len(results))
	for i, rec := range results {
		ids[i] = rec.Course.ID
	}
	counts, err := e.store.CountEnrollmentsByCourses(ctx, ids)
	if err != nil {
		e.logger.Warn("enrollment count lookup failed, keeping similarity order", zap.Error(err))
		return results
	}

	var max int64
	for _, rec := range results {
		if c := counts[rec.Course.ID]; c > max {
			max = c
		}
	}
	denominator := float64(max)
	if denominator == 0 {
		denominator = defaultPopularityDenominator
	}

	for _, rec := range results {
		rec.Popularity = float64(counts[rec.Course.ID]) / denominator
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Popularity > results[j].Popularity
	})
	return results
}
