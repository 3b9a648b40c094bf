package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
)

func testConfig() *config.RecommendConfig {
	return &config.RecommendConfig{DefaultLimit: 5, MaxLimit: 50, CandidatePoolSize: 10}
}

func seedStore(t *testing.T, courses []*models.Course, users []*models.User, enrollments []*models.Enrollment) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage()
	ctx := context.Background()
	for _, c := range courses {
		if err := store.CreateCourse(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	for _, u := range users {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	for i, e := range enrollments {
		if e.ID == "" {
			e.ID = fmt.Sprintf("e%d", i)
		}
		if err := store.CreateEnrollment(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func titles(results []*models.CourseRecommendation) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Course.Title
	}
	return out
}

func TestRecommend_byTitleScenario(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{
			{ID: 1, Title: "Intro to Python"},
			{ID: 2, Title: "Python for Data Science"},
			{ID: 3, Title: "History of Art"},
		},
		[]*models.User{{ID: 1, FullName: "Student"}},
		nil,
	)
	engine := NewEngine(store, testConfig(), nil)

	resp, err := engine.Recommend(context.Background(), &models.RecommendationQuery{
		UserID: 1, CourseTitle: "Intro to Python", NumRec: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.ByTitle {
		t.Error("expected title-similarity path")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %v", titles(resp.Results))
	}
	if resp.Results[0].Course.Title != "Python for Data Science" {
		t.Errorf("top recommendation = %q, want Python for Data Science", resp.Results[0].Course.Title)
	}
}

func TestRecommend_byTitleSimilarityOrder(t *testing.T) {
	// With four courses the shared "python" term has positive IDF, so the
	// two-python-word title genuinely outranks the disjoint ones.
	store := seedStore(t,
		[]*models.Course{
			{ID: 1, Title: "Intro to Python"},
			{ID: 2, Title: "History of Art"},
			{ID: 3, Title: "Python for Data Science"},
			{ID: 4, Title: "Advanced Go"},
		},
		[]*models.User{{ID: 1, FullName: "Student"}},
		nil,
	)
	engine := NewEngine(store, testConfig(), nil)

	resp, err := engine.Recommend(context.Background(), &models.RecommendationQuery{
		UserID: 1, CourseTitle: "intro TO python", NumRec: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("results = %v", titles(resp.Results))
	}
	if resp.Results[0].Course.ID != 3 {
		t.Errorf("top result = %v, want Python for Data Science", resp.Results[0].Course.Title)
	}
	if resp.Results[0].Score <= resp.Results[1].Score {
		t.Errorf("expected strictly higher score for lexical overlap: %v vs %v",
			resp.Results[0].Score, resp.Results[1].Score)
	}
}

func TestRecommend_emptyCorpus(t *testing.T) {
	store := seedStore(t, nil, []*models.User{{ID: 1, FullName: "Student"}}, nil)
	engine := NewEngine(store, testConfig(), nil)

	resp, err := engine.Recommend(context.Background(), &models.RecommendationQuery{
		UserID: 1, CourseTitle: "anything", NumRec: 5,
	})
	if err != nil {
		t.Fatalf("empty corpus should not error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %v, want empty", titles(resp.Results))
	}
}

func TestRecommend_invalidInput(t *testing.T) {
	store := seedStore(t, nil, nil, nil)
	engine := NewEngine(store, testConfig(), nil)
	ctx := context.Background()

	_, err := engine.Recommend(ctx, &models.RecommendationQuery{UserID: 0, NumRec: 5})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("zero user: got %v, want ErrInvalidInput", err)
	}
	_, err = engine.Recommend(ctx, &models.RecommendationQuery{UserID: 1, NumRec: 0})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("zero num_rec: got %v, want ErrInvalidInput", err)
	}
	_, err = engine.Recommend(ctx, &models.RecommendationQuery{UserID: 1, NumRec: -3})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("negative num_rec: got %v, want ErrInvalidInput", err)
	}
}

func TestRecommend_unknownUser(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{{ID: 1, Title: "Go"}},
		nil, nil,
	)
	engine := NewEngine(store, testConfig(), nil)

	_, err := engine.Recommend(context.Background(), &models.RecommendationQuery{UserID: 42, NumRec: 5})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRecommend_excludesEnrolledAndAppliesFilters(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{
			{ID: 1, Title: "Intro to Python"},
			{ID: 2, Title: "Python for Data Science", Level: "Advanced", Category: "Data"},
			{ID: 3, Title: "Python Basics", Level: "Beginner", Category: "Programming"},
			{ID: 4, Title: "Python Patterns", Level: "Beginner", Category: "Programming"},
		},
		[]*models.User{{ID: 1, FullName: "Student"}},
		[]*models.Enrollment{{ID: "e1", UserID: 1, CourseID: 4}},
	)
	engine := NewEngine(store, testConfig(), nil)

	resp, err := engine.Recommend(context.Background(), &models.RecommendationQuery{
		UserID: 1, CourseTitle: "Intro to Python", Level: "beginner", Category: "PROGRAMMING", NumRec: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %v, want only Python Basics", titles(resp.Results))
	}
	if resp.Results[0].Course.ID != 3 {
		t.Errorf("result = %v", resp.Results[0].Course.Title)
	}
}

func TestRecommend_enrollmentAggregationPath(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{
			{ID: 1, Title: "Neural Networks"},
			{ID: 2, Title: "Deep Neural Networks"},
			{ID: 3, Title: "Network Security"},
			{ID: 4, Title: "Watercolor Painting"},
			{ID: 5, Title: "Oil Painting"},
		},
		[]*models.User{{ID: 1, FullName: "Student"}},
		[]*models.Enrollment{
			{ID: "e1", UserID: 1, CourseID: 1},
			{ID: "e2", UserID: 1, CourseID: 4},
		},
	)
	engine := NewEngine(store, testConfig(), nil)

	resp, err := engine.Recommend(context.Background(), &models.RecommendationQuery{
		UserID: 1, NumRec: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ByTitle {
		t.Error("expected enrollment-aggregation path")
	}
	got := titles(resp.Results)
	for _, title := range got {
		if title == "Neural Networks" || title == "Watercolor Painting" {
			t.Errorf("enrolled course %q must not be recommended", title)
		}
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected candidates from summed similarity")
	}
	// Deep Neural Networks shares two terms with an enrolled course; it must
	// outscore Network Security (one term) and Oil Painting (one term).
	if resp.Results[0].Course.ID != 2 {
		t.Errorf("top = %v, want Deep Neural Networks (order %v)", resp.Results[0].Course.Title, got)
	}
}

func TestRecommend_noEnrollmentsNoTitleIsEmpty(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{{ID: 1, Title: "Go"}, {ID: 2, Title: "Rust"}},
		[]*models.User{{ID: 1, FullName: "Student"}},
		nil,
	)
	engine := NewEngine(store, testConfig(), nil)

	resp, err := engine.Recommend(context.Background(), &models.RecommendationQuery{UserID: 1, NumRec: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %v, want empty", titles(resp.Results))
	}
}

func TestRecommend_legacyTruncationStarvesStrictFilters(t *testing.T) {
	courses := []*models.Course{
		{ID: 1, Title: "Neural Networks"},
		{ID: 2, Title: "Advanced Neural Networks", Level: "Advanced"},
		{ID: 3, Title: "Neural Network Design", Level: "Advanced"},
		{ID: 4, Title: "Neural Basics", Level: "Beginner"},
		{ID: 5, Title: "History of Art"},
		{ID: 6, Title: "Cooking"},
	}
	users := []*models.User{{ID: 1, FullName: "Student"}}
	query := &models.RecommendationQuery{UserID: 1, CourseTitle: "Neural Networks", Level: "Beginner", NumRec: 5}

	legacyCfg := testConfig()
	legacyCfg.CandidatePoolSize = 2
	legacyCfg.LegacyPoolTruncation = true
	legacy := NewEngine(seedStore(t, courses, users, nil), legacyCfg, nil)

	resp, err := legacy.Recommend(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("legacy mode: results = %v, want starvation (both pool entries are Advanced)", titles(resp.Results))
	}

	fixedCfg := testConfig()
	fixedCfg.CandidatePoolSize = 2
	fixed := NewEngine(seedStore(t, courses, users, nil), fixedCfg, nil)

	resp, err = fixed.Recommend(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Course.ID != 4 {
		t.Errorf("filter-first mode: results = %v, want Neural Basics", titles(resp.Results))
	}
}

func TestRecommend_deterministic(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{
			{ID: 1, Title: "Intro to Python"},
			{ID: 2, Title: "Python for Data Science"},
			{ID: 3, Title: "Python Basics"},
			{ID: 4, Title: "History of Art"},
		},
		[]*models.User{{ID: 1, FullName: "Student"}},
		nil,
	)
	engine := NewEngine(store, testConfig(), nil)
	query := &models.RecommendationQuery{UserID: 1, CourseTitle: "Intro to Python", NumRec: 3}

	first, err := engine.Recommend(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Recommend(context.Background(), query)
		if err != nil {
			t.Fatal(err)
		}
		if len(again.Results) != len(first.Results) {
			t.Fatalf("run %d: length changed", i)
		}
		for j := range again.Results {
			if again.Results[j].Course.ID != first.Results[j].Course.ID {
				t.Fatalf("run %d: order changed: %v vs %v", i, titles(again.Results), titles(first.Results))
			}
		}
	}
}

func TestEngine_InvalidateAndRebuild(t *testing.T) {
	store := seedStore(t,
		[]*models.Course{{ID: 1, Title: "Intro to Python"}, {ID: 2, Title: "Python Basics"}},
		[]*models.User{{ID: 1, FullName: "Student"}},
		nil,
	)
	engine := NewEngine(store, testConfig(), nil)
	ctx := context.Background()
	query := &models.RecommendationQuery{UserID: 1, CourseTitle: "Intro to Python", NumRec: 10}

	resp, err := engine.Recommend(ctx, query)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %v", titles(resp.Results))
	}

	// The cached corpus must not see a new course until invalidated.
	if err := store.CreateCourse(ctx, &models.Course{ID: 3, Title: "Python Patterns"}); err != nil {
		t.Fatal(err)
	}
	resp, _ = engine.Recommend(ctx, query)
	if len(resp.Results) != 1 {
		t.Errorf("stale corpus should still have 1 candidate, got %v", titles(resp.Results))
	}

	engine.Invalidate()
	resp, err = engine.Recommend(ctx, query)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("after invalidate: results = %v, want 2", titles(resp.Results))
	}

	if err := engine.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}
	if engine.CorpusSize() != 3 {
		t.Errorf("CorpusSize = %d, want 3", engine.CorpusSize())
	}
}
