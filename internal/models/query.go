package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks requests rejected before any computation begins
// (non-positive user IDs or result counts). Callers detect it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// RecommendationQuery represents a course recommendation request.
// CourseTitle is optional; when it matches a catalog course (case-insensitive
// exact match) recommendations are similarity-based around that course,
// otherwise they are aggregated across the user's enrollments.
type RecommendationQuery struct {
	UserID      int64  `json:"user_id"`
	CourseTitle string `json:"course_title,omitempty"`
	Level       string `json:"level,omitempty"`
	Category    string `json:"category,omitempty"`
	NumRec      int    `json:"num_rec,omitempty"`
}

// Validate ensures the query has a valid user ID and result count.
// Both must be positive; no defaulting happens here so that an explicit
// non-positive limit is rejected rather than silently replaced.
func (q *RecommendationQuery) Validate() error {
	if q.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be positive, got %d", ErrInvalidInput, q.UserID)
	}
	if q.NumRec <= 0 {
		return fmt.Errorf("%w: num_rec must be positive, got %d", ErrInvalidInput, q.NumRec)
	}
	return nil
}
