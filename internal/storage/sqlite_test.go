package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/osusume/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CourseCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	course := &models.Course{Title: "Intro to Python", Category: "Programming", Level: "Beginner"}
	if err := store.CreateCourse(ctx, course); err != nil {
		t.Fatal(err)
	}
	if course.ID == 0 {
		t.Fatal("ID should be assigned")
	}
	if course.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetCourse(ctx, course.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Intro to Python" || got.Level != "Beginner" {
		t.Errorf("got %+v", got)
	}

	course.Title = "Intro to Python 3"
	if err := store.UpsertCourse(ctx, course); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetCourse(ctx, course.ID)
	if got.Title != "Intro to Python 3" {
		t.Errorf("expected updated title, got %s", got.Title)
	}

	list, err := store.ListCourses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 course, got %d", len(list))
	}

	if err := store.DeleteCourse(ctx, course.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetCourse(ctx, course.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_ListCoursesOrderedByID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, c := range []*models.Course{
		{ID: 30, Title: "C"},
		{ID: 10, Title: "A"},
		{ID: 20, Title: "B"},
	} {
		if err := store.CreateCourse(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	list, err := store.ListCourses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(list))
	}
	for i, wantID := range []int64{10, 20, 30} {
		if list[i].ID != wantID {
			t.Errorf("list[%d].ID = %d, want %d", i, list[i].ID, wantID)
		}
	}
}

func TestSQLiteStorage_UserCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := &models.User{
		FullName:           "Amina Rekik",
		Email:              "amina@example.com",
		Skills:             "Java, Spring",
		ExtractedSkills:    []string{"docker", "kubernetes"},
		ExtractedInterests: []string{"machine learning"},
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	if user.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Skills != "Java, Spring" {
		t.Errorf("skills = %q", got.Skills)
	}
	if len(got.ExtractedSkills) != 2 || got.ExtractedSkills[0] != "docker" {
		t.Errorf("extracted skills = %v", got.ExtractedSkills)
	}
	if len(got.ExtractedInterests) != 1 {
		t.Errorf("extracted interests = %v", got.ExtractedInterests)
	}

	user.Bio = "Backend developer"
	if err := store.UpsertUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetUser(ctx, user.ID)
	if got.Bio != "Backend developer" {
		t.Errorf("bio = %q", got.Bio)
	}

	if _, err := store.GetUser(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_Enrollments(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	u1 := &models.User{FullName: "A"}
	u2 := &models.User{FullName: "B"}
	c1 := &models.Course{Title: "Go"}
	c2 := &models.Course{Title: "Rust"}
	for _, u := range []*models.User{u1, u2} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range []*models.Course{c1, c2} {
		if err := store.CreateCourse(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	enrollments := []*models.Enrollment{
		{ID: "e1", UserID: u1.ID, CourseID: c1.ID},
		{ID: "e2", UserID: u1.ID, CourseID: c2.ID},
		{ID: "e3", UserID: u2.ID, CourseID: c1.ID},
	}
	for _, e := range enrollments {
		if err := store.CreateEnrollment(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListEnrollmentsByUser(ctx, u1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 enrollments for u1, got %d", len(list))
	}

	counts, err := store.CountEnrollmentsByCourses(ctx, []int64{c1.ID, c2.ID, 444})
	if err != nil {
		t.Fatal(err)
	}
	if counts[c1.ID] != 2 || counts[c2.ID] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts[444]; ok {
		t.Error("unknown course should be absent from counts")
	}

	empty, err := store.CountEnrollmentsByCourses(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty map, got %v", empty)
	}

	if err := store.DeleteEnrollment(ctx, "e1"); err != nil {
		t.Fatal(err)
	}
	total, err := store.CountEnrollments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("CountEnrollments = %d, want 2", total)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.CreateCourse(ctx, &models.Course{Title: "Go"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateUser(ctx, &models.User{FullName: "A"}); err != nil {
		t.Fatal(err)
	}

	if n, _ := store.CountCourses(ctx); n != 1 {
		t.Errorf("CountCourses = %d", n)
	}
	if n, _ := store.CountUsers(ctx); n != 1 {
		t.Errorf("CountUsers = %d", n)
	}
	if n, _ := store.CountEnrollments(ctx); n != 0 {
		t.Errorf("CountEnrollments = %d", n)
	}
}
