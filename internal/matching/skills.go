// Package matching implements skill and interest based peer discovery over
// Jaccard similarity and complementary-skill counting.
package matching

import (
	"strings"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/similarity"
	"github.com/hyperjump/osusume/internal/text"
)

// SkillSet returns the union of a user's manually entered skills
// (comma-separated, lowercased, trimmed) and extracted skills (lowercased).
func SkillSet(user *models.User) similarity.Set {
	set := similarity.NewSet(text.SplitCommaList(user.Skills)...)
	for _, skill := range user.ExtractedSkills {
		set.Add(strings.TrimSpace(strings.ToLower(skill)))
	}
	return set
}

// InterestSet returns a user's extracted interests, lowercased and trimmed.
func InterestSet(user *models.User) similarity.Set {
	set := make(similarity.Set, len(user.ExtractedInterests))
	for _, interest := range user.ExtractedInterests {
		set.Add(strings.TrimSpace(strings.ToLower(interest)))
	}
	return set
}
