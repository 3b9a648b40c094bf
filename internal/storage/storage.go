// Package storage defines the persistence interface for courses, users, and
// enrollments.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrNotFound is returned when a referenced course, user, or enrollment does
// not exist. Callers distinguish it from other failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Storage defines course, user, and enrollment persistence operations.
type Storage interface {
	// Course operations. ListCourses returns courses ordered by ID so that
	// corpus construction is deterministic.
	CreateCourse(ctx context.Context, course *models.Course) error
	UpsertCourse(ctx context.Context, course *models.Course) error
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	ListCourses(ctx context.Context) ([]*models.Course, error)

	// User operations. ListUsers returns users ordered by ID.
	CreateUser(ctx context.Context, user *models.User) error
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Enrollment operations.
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	DeleteEnrollment(ctx context.Context, id string) error
	ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*models.Enrollment, error)
	// CountEnrollmentsByCourses returns the enrollment count per course for
	// the given IDs in a single query. IDs with no enrollments are absent
	// from the result map.
	CountEnrollmentsByCourses(ctx context.Context, courseIDs []int64) (map[int64]int64, error)

	// Stats
	CountCourses(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountEnrollments(ctx context.Context) (int64, error)

	Close() error
}
