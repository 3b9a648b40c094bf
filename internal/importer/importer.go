// Package importer loads seed data files (courses, users, enrollments) into
// storage and the search catalog.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
)

// SeedFile is the on-disk shape of a seed data file. All sections are
// optional; a file may carry only courses, only users, or any mix.
type SeedFile struct {
	Courses     []*models.CourseInput `json:"courses" yaml:"courses"`
	Users       []*models.UserInput   `json:"users" yaml:"users"`
	Enrollments []*SeedEnrollment     `json:"enrollments" yaml:"enrollments"`
}

// SeedEnrollment is an enrollment row in a seed file. ID is optional; a
// missing ID gets a generated UUID, an explicit ID makes re-imports replace
// the same row.
type SeedEnrollment struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	UserID   int64  `json:"user_id" yaml:"user_id"`
	CourseID int64  `json:"course_id" yaml:"course_id"`
}

// Stats counts what an import run wrote.
type Stats struct {
	Courses     int `json:"courses"`
	Users       int `json:"users"`
	Enrollments int `json:"enrollments"`
	Files       int `json:"files"`
}

func (s *Stats) add(other *Stats) {
	s.Courses += other.Courses
	s.Users += other.Users
	s.Enrollments += other.Enrollments
	s.Files += other.Files
}

// Importer loads seed files into storage and, when a catalog is attached,
// keeps the search index in step with the imported courses.
type Importer struct {
	store   storage.Storage
	config  *config.SeedConfig
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithCatalog makes the importer index every imported course for search.
func WithCatalog(c *catalog.Catalog) Option {
	return func(imp *Importer) { imp.catalog = c }
}

// WithLogger sets a logger for per-file debug output.
func WithLogger(l *zap.Logger) Option {
	return func(imp *Importer) { imp.logger = l }
}

// NewImporter creates an importer with the given dependencies.
func NewImporter(store storage.Storage, cfg *config.SeedConfig, opts ...Option) *Importer {
	imp := &Importer{store: store, config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// ImportAll imports every configured seed directory.
func (imp *Importer) ImportAll(ctx context.Context) (*Stats, error) {
	total := &Stats{}
	for _, dir := range imp.config.Directories {
		stats, err := imp.ImportDirectory(ctx, dir)
		if err != nil {
			return total, err
		}
		total.add(stats)
	}
	return total, nil
}

// ImportDirectory walks dir recursively and imports each regular file whose
// extension is in the configured list. Returns aggregate counts and the first
// error encountered.
func (imp *Importer) ImportDirectory(ctx context.Context, dir string) (*Stats, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	total := &Stats{}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !imp.extensionAllowed(filepath.Ext(path)) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		stats, importErr := imp.ImportFile(ctx, path)
		if importErr != nil {
			return importErr
		}
		total.add(stats)
		return nil
	})
	return total, err
}

// ImportFile reads one seed file and writes its contents. Rows with explicit
// IDs are upserted, so re-importing the same file is idempotent; rows without
// IDs are created fresh each time.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	seed, err := parseSeed(path, data)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Files: 1}
	for _, input := range seed.Courses {
		course := &models.Course{
			ID:          input.ID,
			Title:       input.Title,
			Description: input.Description,
			Category:    input.Category,
			Level:       input.Level,
		}
		if course.ID == 0 {
			// No ID in the seed: always a fresh row with a generated ID.
			if err := imp.store.CreateCourse(ctx, course); err != nil {
				return stats, fmt.Errorf("create course %q: %w", input.Title, err)
			}
		} else if err := imp.store.UpsertCourse(ctx, course); err != nil {
			return stats, fmt.Errorf("upsert course %q: %w", input.Title, err)
		}
		if imp.catalog != nil {
			if err := imp.catalog.Index(ctx, course); err != nil {
				return stats, fmt.Errorf("index course %q: %w", input.Title, err)
			}
		}
		stats.Courses++
	}
	for _, input := range seed.Users {
		user := &models.User{
			ID:                 input.ID,
			FullName:           input.FullName,
			Email:              input.Email,
			Bio:                input.Bio,
			Skills:             input.Skills,
			ExtractedSkills:    input.ExtractedSkills,
			ExtractedInterests: input.ExtractedInterests,
		}
		if user.ID == 0 {
			if err := imp.store.CreateUser(ctx, user); err != nil {
				return stats, fmt.Errorf("create user %q: %w", input.FullName, err)
			}
		} else if err := imp.store.UpsertUser(ctx, user); err != nil {
			return stats, fmt.Errorf("upsert user %q: %w", input.FullName, err)
		}
		stats.Users++
	}
	for _, input := range seed.Enrollments {
		enrollment := &models.Enrollment{
			ID:       input.ID,
			UserID:   input.UserID,
			CourseID: input.CourseID,
		}
		if enrollment.ID == "" {
			enrollment.ID = uuid.New().String()
		} else {
			// Explicit IDs replace the previous row on re-import.
			_ = imp.store.DeleteEnrollment(ctx, enrollment.ID)
		}
		if err := imp.store.CreateEnrollment(ctx, enrollment); err != nil {
			return stats, fmt.Errorf("create enrollment %s: %w", enrollment.ID, err)
		}
		stats.Enrollments++
	}

	imp.logger.Debug("seed file imported",
		zap.String("path", path),
		zap.Int("courses", stats.Courses),
		zap.Int("users", stats.Users),
		zap.Int("enrollments", stats.Enrollments),
	)
	return stats, nil
}

func parseSeed(path string, data []byte) (*SeedFile, error) {
	seed := &SeedFile{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, seed); err != nil {
			return nil, fmt.Errorf("parse seed yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, seed); err != nil {
			return nil, fmt.Errorf("parse seed json %s: %w", path, err)
		}
	}
	return seed, nil
}

func (imp *Importer) extensionAllowed(ext string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range imp.config.Extensions {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
