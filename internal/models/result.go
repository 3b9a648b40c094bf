package models

// CourseRecommendation is a single recommended course with its scores.
// Score is the similarity signal that selected the course; Popularity is the
// normalized enrollment count that determined its final position.
type CourseRecommendation struct {
	Course     *Course `json:"course"`
	Score      float64 `json:"score"`
	Popularity float64 `json:"popularity"`
	Rank       int     `json:"rank"`
}

// RecommendationResponse is the response for a recommendation request.
type RecommendationResponse struct {
	Results   []*CourseRecommendation `json:"results"`
	Total     int                     `json:"total"`
	QueryTime int64                   `json:"query_time_ms"`
	// ByTitle reports whether the title-similarity path was taken (true) or
	// the enrollment-aggregation path (false).
	ByTitle bool `json:"by_title"`
}

// UserMatch is a single matched user with the skill evidence behind the score.
type UserMatch struct {
	User                *User    `json:"user"`
	Score               float64  `json:"score"`
	MatchedSkills       []string `json:"matched_skills,omitempty"`
	MatchedInterests    []string `json:"matched_interests,omitempty"`
	ComplementarySkills []string `json:"complementary_skills,omitempty"`
	Rank                int      `json:"rank"`
}

// MatchResponse is the response for a skill matching request.
type MatchResponse struct {
	Results   []*UserMatch `json:"results"`
	Total     int          `json:"total"`
	QueryTime int64        `json:"query_time_ms"`
	// Policy is the matching policy that produced the results:
	// "matching", "complementary", or "mentor".
	Policy string `json:"policy"`
}

// CourseSearchResult is a single catalog search hit.
type CourseSearchResult struct {
	Course *Course `json:"course"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// CourseSearchResponse is the response for a catalog search request.
type CourseSearchResponse struct {
	Results   []*CourseSearchResult `json:"results"`
	Total     int                   `json:"total"`
	QueryTime int64                 `json:"query_time_ms"`
	Query     string                `json:"query"`
}
