// Package cli provides CLI output helpers for osusume.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// OutputFormat is the format for CLI result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(raw string) (OutputFormat, error) {
	switch raw {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", raw)
	}
}

// WriteRecommendations writes course recommendations to w in the given format.
func WriteRecommendations(w io.Writer, response *models.RecommendationResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	source := "enrollments"
	if response.ByTitle {
		source = "title similarity"
	}
	fmt.Fprintf(w, "\nFound %d recommendation(s) in %dms (by %s)\n\n", response.Total, response.QueryTime, source)
	for _, rec := range response.Results {
		fmt.Fprintf(w, "%2d. %s\n", rec.Rank, rec.Course.Title)
		fmt.Fprintf(w, "    Score: %.4f | Popularity: %.4f", rec.Score, rec.Popularity)
		if rec.Course.Level != "" {
			fmt.Fprintf(w, " | Level: %s", rec.Course.Level)
		}
		if rec.Course.Category != "" {
			fmt.Fprintf(w, " | Category: %s", rec.Course.Category)
		}
		fmt.Fprintln(w)
		if rec.Course.Description != "" {
			fmt.Fprintf(w, "    %s\n", utils.Truncate(rec.Course.Description, 120))
		}
	}
	return nil
}

// WriteMatches writes user matches to w in the given format.
func WriteMatches(w io.Writer, response *models.MatchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d match(es) in %dms (policy: %s)\n\n", response.Total, response.QueryTime, response.Policy)
	for _, m := range response.Results {
		fmt.Fprintf(w, "%2d. %s (score %.4f)\n", m.Rank, m.User.FullName, m.Score)
		if len(m.MatchedSkills) > 0 {
			fmt.Fprintf(w, "    Shared skills:        %s\n", strings.Join(m.MatchedSkills, ", "))
		}
		if len(m.MatchedInterests) > 0 {
			fmt.Fprintf(w, "    Shared interests:     %s\n", strings.Join(m.MatchedInterests, ", "))
		}
		if len(m.ComplementarySkills) > 0 {
			fmt.Fprintf(w, "    Complementary skills: %s\n", strings.Join(m.ComplementarySkills, ", "))
		}
	}
	return nil
}

// WriteSearchResults writes catalog search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.CourseSearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d course(s) for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	for _, result := range response.Results {
		fmt.Fprintf(w, "%2d. %s (score %.4f)\n", result.Rank, result.Course.Title, result.Score)
		if result.Course.Description != "" {
			fmt.Fprintf(w, "    %s\n", utils.Truncate(result.Course.Description, 120))
		}
	}
	return nil
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
