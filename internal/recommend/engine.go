package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
)

// Engine produces course recommendations. The corpus is built lazily on the
// first request and cached until Invalidate or Rebuild; the mutex ensures a
// single build under concurrent first requests.
type Engine struct {
	store  storage.Storage
	config *config.RecommendConfig
	logger *zap.Logger

	mu     sync.Mutex
	cached *Corpus
}

// NewEngine creates a recommendation engine with the given dependencies.
// A nil logger is replaced with a no-op logger.
func NewEngine(store storage.Storage, cfg *config.RecommendConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, config: cfg, logger: logger}
}

// Invalidate drops the cached corpus; the next request rebuilds it.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
}

// Rebuild discards the cached corpus and builds a fresh one immediately.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached = nil
	_, err := e.corpusLocked(ctx)
	return err
}

// CorpusSize returns the number of courses in the cached corpus, or 0 when no
// corpus has been built yet.
func (e *Engine) CorpusSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached == nil {
		return 0
	}
	return e.cached.Len()
}

func (e *Engine) corpus(ctx context.Context) (*Corpus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.corpusLocked(ctx)
}

func (e *Engine) corpusLocked(ctx context.Context) (*Corpus, error) {
	if e.cached != nil {
		return e.cached, nil
	}
	courses, err := e.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	start := time.Now()
	e.cached = BuildCorpus(courses)
	e.logger.Info("corpus built",
		zap.Int("courses", len(courses)),
		zap.Duration("took", time.Since(start)),
	)
	return e.cached, nil
}

// Recommend returns up to query.NumRec courses for the user, ordered by the
// two-stage sort: similarity selects the candidate set, normalized enrollment
// popularity orders it. An empty catalog or no matching candidates yields an
// empty result, not an error; an unknown user is an error.
func (e *Engine) Recommend(ctx context.Context, query *models.RecommendationQuery) (*models.RecommendationResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.store.GetUser(ctx, query.UserID); err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	corpus, err := e.corpus(ctx)
	if err != nil {
		return nil, err
	}

	response := &models.RecommendationResponse{Results: []*models.CourseRecommendation{}}
	if corpus.Len() == 0 {
		response.QueryTime = time.Since(startTime).Milliseconds()
		return response, nil
	}

	enrollments, err := e.store.ListEnrollmentsByUser(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	enrolled := make(map[int64]struct{}, len(enrollments))
	for _, enrollment := range enrollments {
		enrolled[enrollment.CourseID] = struct{}{}
	}

	var results []*models.CourseRecommendation
	if target, ok := corpus.IndexOfTitle(query.CourseTitle); ok {
		results = e.recommendByTitle(corpus, target, query, enrolled)
		response.ByTitle = true
	} else {
		results = e.recommendByEnrollments(corpus, query, enrolled)
	}

	results = e.rerankByPopularity(ctx, results)
	for i, rec := range results {
		rec.Rank = i + 1
	}

	response.Results = results
	response.Total = len(results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

type scoredIndex struct {
	idx   int
	score float64
}

// recommendByTitle ranks all other courses by cosine similarity to the target
// course. By default filters run before truncation; legacy mode truncates to
// the candidate pool first and filters afterwards, which can return fewer
// than NumRec results under strict filters.
func (e *Engine) recommendByTitle(corpus *Corpus, target int, query *models.RecommendationQuery, enrolled map[int64]struct{}) []*models.CourseRecommendation {
	scores := make([]scoredIndex, 0, corpus.Len()-1)
	for i := 0; i < corpus.Len(); i++ {
		if i == target {
			continue
		}
		scores = append(scores, scoredIndex{idx: i, score: corpus.Similarity(target, i)})
	}

	if e.config.LegacyPoolTruncation {
		sortByScore(scores)
		if len(scores) > e.config.CandidatePoolSize {
			scores = scores[:e.config.CandidatePoolSize]
		}
		return e.collect(corpus, scores, query, enrolled)
	}

	filtered := scores[:0]
	for _, s := range scores {
		if e.admits(corpus.Course(s.idx), query, enrolled) {
			filtered = append(filtered, s)
		}
	}
	sortByScore(filtered)
	if len(filtered) > query.NumRec {
		filtered = filtered[:query.NumRec]
	}
	return toRecommendations(corpus, filtered)
}

// recommendByEnrollments aggregates cosine similarity across all of the
// user's enrolled courses: each filter-passing candidate is scored by the sum
// of its similarity to every enrolled course. A user with no enrollments in
// the corpus gets an empty result.
func (e *Engine) recommendByEnrollments(corpus *Corpus, query *models.RecommendationQuery, enrolled map[int64]struct{}) []*models.CourseRecommendation {
	sums := make([]float64, corpus.Len())
	candidate := make([]bool, corpus.Len())

	for courseID := range enrolled {
		target, ok := corpus.IndexOf(courseID)
		if !ok {
			continue
		}
		for i := 0; i < corpus.Len(); i++ {
			if i == target {
				continue
			}
			if !e.admits(corpus.Course(i), query, enrolled) {
				continue
			}
			sums[i] += corpus.Similarity(target, i)
			candidate[i] = true
		}
	}

	scores := make([]scoredIndex, 0, corpus.Len())
	for i := 0; i < corpus.Len(); i++ {
		if candidate[i] {
			scores = append(scores, scoredIndex{idx: i, score: sums[i]})
		}
	}
	sortByScore(scores)
	if len(scores) > query.NumRec {
		scores = scores[:query.NumRec]
	}
	return toRecommendations(corpus, scores)
}

// collect applies filters to an already-truncated candidate pool, stopping
// once NumRec survivors are found. Legacy mode only.
func (e *Engine) collect(corpus *Corpus, pool []scoredIndex, query *models.RecommendationQuery, enrolled map[int64]struct{}) []*models.CourseRecommendation {
	results := make([]*models.CourseRecommendation, 0, query.NumRec)
	for _, s := range pool {
		if !e.admits(corpus.Course(s.idx), query, enrolled) {
			continue
		}
		results = append(results, &models.CourseRecommendation{
			Course: corpus.Course(s.idx),
			Score:  s.score,
		})
		if len(results) >= query.NumRec {
			break
		}
	}
	return results
}

// admits reports whether a candidate course passes the query's level and
// category filters and is not already enrolled. Empty filters admit all.
func (e *Engine) admits(course *models.Course, query *models.RecommendationQuery, enrolled map[int64]struct{}) bool {
	if _, isEnrolled := enrolled[course.ID]; isEnrolled {
		return false
	}
	if query.Level != "" && !strings.EqualFold(course.Level, query.Level) {
		return false
	}
	if query.Category != "" && !strings.EqualFold(course.Category, query.Category) {
		return false
	}
	return true
}

// sortByScore sorts descending by score; the stable sort keeps corpus order
// for equal scores, which keeps output deterministic.
func sortByScore(scores []scoredIndex) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
}

func toRecommendations(corpus *Corpus, scores []scoredIndex) []*models.CourseRecommendation {
	results := make([]*models.CourseRecommendation, 0, len(scores))
	for _, s := range scores {
		results = append(results, &models.CourseRecommendation{
			Course: corpus.Course(s.idx),
			Score:  s.score,
		})
	}
	return results
}
