package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/osusume/internal/models"
)

// MemoryStorage is an in-memory Storage implementation. It backs tests and
// ephemeral runs where no database file is wanted; semantics match the SQLite
// implementation, including ID assignment and list ordering.
type MemoryStorage struct {
	mu          sync.RWMutex
	courses     map[int64]*models.Course
	users       map[int64]*models.User
	enrollments map[string]*models.Enrollment
	nextCourse  int64
	nextUser    int64
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		courses:     make(map[int64]*models.Course),
		users:       make(map[int64]*models.User),
		enrollments: make(map[string]*models.Enrollment),
		nextCourse:  1,
		nextUser:    1,
	}
}

// CreateCourse inserts a course, assigning the next free ID when ID is zero.
func (m *MemoryStorage) CreateCourse(_ context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if course.ID == 0 {
		course.ID = m.nextCourse
	}
	if course.ID >= m.nextCourse {
		m.nextCourse = course.ID + 1
	}
	if _, exists := m.courses[course.ID]; exists {
		return fmt.Errorf("course %d already exists", course.ID)
	}
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now
	m.courses[course.ID] = course
	return nil
}

// UpsertCourse inserts or replaces the course.
func (m *MemoryStorage) UpsertCourse(ctx context.Context, course *models.Course) error {
	m.mu.Lock()
	if course.ID != 0 {
		if _, exists := m.courses[course.ID]; exists {
			course.UpdatedAt = time.Now()
			m.courses[course.ID] = course
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()
	return m.CreateCourse(ctx, course)
}

// GetCourse returns a course by ID, or ErrNotFound.
func (m *MemoryStorage) GetCourse(_ context.Context, id int64) (*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	course, ok := m.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	return course, nil
}

// DeleteCourse removes a course by ID.
func (m *MemoryStorage) DeleteCourse(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.courses, id)
	return nil
}

// ListCourses returns all courses ordered by ID.
func (m *MemoryStorage) ListCourses(_ context.Context) ([]*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateUser inserts a user, assigning the next free ID when ID is zero.
func (m *MemoryStorage) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextUser
	}
	if user.ID >= m.nextUser {
		m.nextUser = user.ID + 1
	}
	if _, exists := m.users[user.ID]; exists {
		return fmt.Errorf("user %d already exists", user.ID)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = user
	return nil
}

// UpsertUser inserts or replaces the user.
func (m *MemoryStorage) UpsertUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	if user.ID != 0 {
		if _, exists := m.users[user.ID]; exists {
			user.UpdatedAt = time.Now()
			m.users[user.ID] = user
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()
	return m.CreateUser(ctx, user)
}

// GetUser returns a user by ID, or ErrNotFound.
func (m *MemoryStorage) GetUser(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return user, nil
}

// DeleteUser removes a user by ID.
func (m *MemoryStorage) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

// ListUsers returns all users ordered by ID.
func (m *MemoryStorage) ListUsers(_ context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateEnrollment inserts an enrollment.
func (m *MemoryStorage) CreateEnrollment(_ context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.enrollments[enrollment.ID]; exists {
		return fmt.Errorf("enrollment %s already exists", enrollment.ID)
	}
	enrollment.CreatedAt = time.Now()
	m.enrollments[enrollment.ID] = enrollment
	return nil
}

// DeleteEnrollment removes an enrollment by ID.
func (m *MemoryStorage) DeleteEnrollment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enrollments, id)
	return nil
}

// ListEnrollmentsByUser returns a user's enrollments ordered by course ID.
func (m *MemoryStorage) ListEnrollmentsByUser(_ context.Context, userID int64) ([]*models.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Enrollment
	for _, e := range m.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

// CountEnrollmentsByCourses returns enrollment counts per course ID.
func (m *MemoryStorage) CountEnrollmentsByCourses(_ context.Context, courseIDs []int64) (map[int64]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[int64]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = struct{}{}
	}
	counts := make(map[int64]int64, len(courseIDs))
	for _, e := range m.enrollments {
		if _, ok := wanted[e.CourseID]; ok {
			counts[e.CourseID]++
		}
	}
	return counts, nil
}

// CountCourses returns the total number of courses.
func (m *MemoryStorage) CountCourses(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.courses)), nil
}

// CountUsers returns the total number of users.
func (m *MemoryStorage) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// CountEnrollments returns the total number of enrollments.
func (m *MemoryStorage) CountEnrollments(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.enrollments)), nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}
