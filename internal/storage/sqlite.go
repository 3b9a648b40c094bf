// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osusume/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		category TEXT,
		level TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT,
		bio TEXT,
		skills TEXT,
		extracted_skills TEXT,
		extracted_interests TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id);
	CREATE INDEX IF NOT EXISTS idx_enrollments_course_id ON enrollments(course_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateCourse inserts a course. When course.ID is zero, SQLite assigns the
// next ID and it is written back to course.ID.
func (s *SQLiteStorage) CreateCourse(ctx context.Context, course *models.Course) error {
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	var id interface{}
	if course.ID != 0 {
		id = course.ID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, description, category, level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, course.Title, course.Description, course.Category, course.Level, course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if course.ID == 0 {
		course.ID, err = res.LastInsertId()
	}
	return err
}

// UpsertCourse inserts the course or updates it in place when the ID exists.
func (s *SQLiteStorage) UpsertCourse(ctx context.Context, course *models.Course) error {
	if course.ID == 0 {
		return s.CreateCourse(ctx, course)
	}
	now := time.Now()
	course.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, description, category, level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   category = excluded.category,
		   level = excluded.level,
		   updated_at = excluded.updated_at`,
		course.ID, course.Title, course.Description, course.Category, course.Level, now, now,
	)
	return err
}

// GetCourse returns a course by ID, or ErrNotFound.
func (s *SQLiteStorage) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, category, level, created_at, updated_at
		 FROM courses WHERE id = ?`, id,
	).Scan(&course.ID, &course.Title, &course.Description, &course.Category, &course.Level, &course.CreatedAt, &course.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// DeleteCourse removes a course by ID.
func (s *SQLiteStorage) DeleteCourse(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	return err
}

// ListCourses returns all courses ordered by ID.
func (s *SQLiteStorage) ListCourses(ctx context.Context) ([]*models.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, category, level, created_at, updated_at
		 FROM courses ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(&course.ID, &course.Title, &course.Description, &course.Category, &course.Level, &course.CreatedAt, &course.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, &course)
	}
	return courses, rows.Err()
}

// CreateUser inserts a user. When user.ID is zero, SQLite assigns the next ID
// and it is written back to user.ID.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *models.User) error {
	skillsJSON, interestsJSON, err := marshalUserLists(user)
	if err != nil {
		return err
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	var id interface{}
	if user.ID != 0 {
		id = user.ID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, bio, skills, extracted_skills, extracted_interests, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.FullName, user.Email, user.Bio, user.Skills, skillsJSON, interestsJSON, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if user.ID == 0 {
		user.ID, err = res.LastInsertId()
	}
	return err
}

// UpsertUser inserts the user or updates it in place when the ID exists.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return s.CreateUser(ctx, user)
	}
	skillsJSON, interestsJSON, err := marshalUserLists(user)
	if err != nil {
		return err
	}
	now := time.Now()
	user.UpdatedAt = now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, bio, skills, extracted_skills, extracted_interests, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   full_name = excluded.full_name,
		   email = excluded.email,
		   bio = excluded.bio,
		   skills = excluded.skills,
		   extracted_skills = excluded.extracted_skills,
		   extracted_interests = excluded.extracted_interests,
		   updated_at = excluded.updated_at`,
		user.ID, user.FullName, user.Email, user.Bio, user.Skills, skillsJSON, interestsJSON, now, now,
	)
	return err
}

// GetUser returns a user by ID, or ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	var skillsJSON, interestsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, bio, skills, extracted_skills, extracted_interests, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.Bio, &user.Skills, &skillsJSON, &interestsJSON, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalUserLists(&user, skillsJSON, interestsJSON); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user by ID.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// ListUsers returns all users ordered by ID.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, full_name, email, bio, skills, extracted_skills, extracted_interests, created_at, updated_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var skillsJSON, interestsJSON string
		if err := rows.Scan(&user.ID, &user.FullName, &user.Email, &user.Bio, &user.Skills, &skillsJSON, &interestsJSON, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalUserLists(&user, skillsJSON, interestsJSON); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// CreateEnrollment inserts an enrollment.
func (s *SQLiteStorage) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrollments (id, user_id, course_id, created_at) VALUES (?, ?, ?, ?)`,
		enrollment.ID, enrollment.UserID, enrollment.CourseID, enrollment.CreatedAt,
	)
	return err
}

// DeleteEnrollment removes an enrollment by ID.
func (s *SQLiteStorage) DeleteEnrollment(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	return err
}

// ListEnrollmentsByUser returns a user's enrollments ordered by course ID.
func (s *SQLiteStorage) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*models.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, course_id, created_at FROM enrollments WHERE user_id = ? ORDER BY course_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, &e)
	}
	return enrollments, rows.Err()
}

// CountEnrollmentsByCourses returns enrollment counts for the given course IDs
// in one query. Courses with no enrollments are absent from the map.
func (s *SQLiteStorage) CountEnrollmentsByCourses(ctx context.Context, courseIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	placeholders := strings.Repeat("?,", len(courseIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(courseIDs))
	for i, id := range courseIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT course_id, COUNT(*) FROM enrollments WHERE course_id IN (`+placeholders+`) GROUP BY course_id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

// CountCourses returns the total number of courses.
func (s *SQLiteStorage) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count)
	return count, err
}

// CountUsers returns the total number of users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountEnrollments returns the total number of enrollments.
func (s *SQLiteStorage) CountEnrollments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enrollments`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func marshalUserLists(user *models.User) (skillsJSON, interestsJSON string, err error) {
	sj, err := json.Marshal(user.ExtractedSkills)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal extracted skills: %w", err)
	}
	ij, err := json.Marshal(user.ExtractedInterests)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal extracted interests: %w", err)
	}
	return string(sj), string(ij), nil
}

func unmarshalUserLists(user *models.User, skillsJSON, interestsJSON string) error {
	if skillsJSON != "" {
		if err := json.Unmarshal([]byte(skillsJSON), &user.ExtractedSkills); err != nil {
			return fmt.Errorf("failed to unmarshal extracted skills: %w", err)
		}
	}
	if interestsJSON != "" {
		if err := json.Unmarshal([]byte(interestsJSON), &user.ExtractedInterests); err != nil {
			return fmt.Errorf("failed to unmarshal extracted interests: %w", err)
		}
	}
	return nil
}
