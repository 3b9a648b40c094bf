package models

import "time"

// User represents a platform user with manually entered and extracted skills.
// Skills is the raw comma-separated string as entered by the user;
// ExtractedSkills and ExtractedInterests come from the profile analysis step
// and are already tokenized.
type User struct {
	ID                 int64     `json:"id" db:"id"`
	FullName           string    `json:"full_name" db:"full_name"`
	Email              string    `json:"email,omitempty" db:"email"`
	Bio                string    `json:"bio,omitempty" db:"bio"`
	Skills             string    `json:"skills,omitempty" db:"skills"`
	ExtractedSkills    []string  `json:"extracted_skills,omitempty" db:"-"`
	ExtractedInterests []string  `json:"extracted_interests,omitempty" db:"-"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// UserInput is the input for creating or updating a user.
type UserInput struct {
	ID                 int64    `json:"id,omitempty"`
	FullName           string   `json:"full_name"`
	Email              string   `json:"email,omitempty"`
	Bio                string   `json:"bio,omitempty"`
	Skills             string   `json:"skills,omitempty"`
	ExtractedSkills    []string `json:"extracted_skills,omitempty"`
	ExtractedInterests []string `json:"extracted_interests,omitempty"`
}

// EnrollmentInput is the input for enrolling a user in a course.
type EnrollmentInput struct {
	UserID   int64 `json:"user_id"`
	CourseID int64 `json:"course_id"`
}
