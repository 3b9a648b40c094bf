package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/similarity"
	"github.com/hyperjump/osusume/internal/storage"
)

// Policy names returned in MatchResponse.Policy.
const (
	PolicyMatching      = "matching"
	PolicyComplementary = "complementary"
	PolicyMentor        = "mentor"
)

// Engine finds peers, collaborators with complementary skills, and mentors.
// It is stateless: every request reads the current user pool from storage.
type Engine struct {
	store  storage.Storage
	config *config.MatchingConfig
	logger *zap.Logger
}

// NewEngine creates a matching engine. A nil logger is replaced with a no-op logger.
func NewEngine(store storage.Storage, cfg *config.MatchingConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, config: cfg, logger: logger}
}

// Matches returns up to MatchLimit users ranked by combined skill and
// interest similarity plus a small bonus for complementary skills:
// skillWeight*skillJaccard + interestWeight*interestJaccard +
// complementaryBonus*|complementary|.
func (e *Engine) Matches(ctx context.Context, userID int64) (*models.MatchResponse, error) {
	return e.run(ctx, userID, PolicyMatching, e.config.MatchLimit, func(userSkills, userInterests, otherSkills, otherInterests similarity.Set) (float64, bool) {
		skillSim := similarity.Jaccard(userSkills, otherSkills)
		interestSim := similarity.Jaccard(userInterests, otherInterests)
		complementary := otherSkills.Diff(userSkills)
		score := e.config.SkillWeight*skillSim +
			e.config.InterestWeight*interestSim +
			e.config.ComplementaryBonus*float64(len(complementary))
		return score, true
	})
}

// Complementary returns up to MatchLimit users ranked by how many skills they
// have that the user lacks, with a smaller weight on shared skills:
// complementaryWeight*|complementary| + commonWeight*|common|.
func (e *Engine) Complementary(ctx context.Context, userID int64) (*models.MatchResponse, error) {
	return e.run(ctx, userID, PolicyComplementary, e.config.MatchLimit, func(userSkills, _, otherSkills, _ similarity.Set) (float64, bool) {
		complementary := otherSkills.Diff(userSkills)
		common := otherSkills.Intersect(userSkills)
		score := e.config.ComplementaryWeight*float64(len(complementary)) +
			e.config.CommonWeight*float64(len(common))
		return score, true
	})
}

// Mentors returns up to MentorLimit users ranked by how many of the user's
// skills and interests they share: mentorSkillWeight*|matchedSkills| +
// mentorInterestWeight*|matchedInterests|. Candidates with no matched skill
// are excluded outright, not merely ranked low.
func (e *Engine) Mentors(ctx context.Context, userID int64) (*models.MatchResponse, error) {
	return e.run(ctx, userID, PolicyMentor, e.config.MentorLimit, func(userSkills, userInterests, otherSkills, otherInterests similarity.Set) (float64, bool) {
		matchedSkills := otherSkills.Intersect(userSkills)
		if len(matchedSkills) == 0 {
			return 0, false
		}
		matchedInterests := otherInterests.Intersect(userInterests)
		score := e.config.MentorSkillWeight*float64(len(matchedSkills)) +
			e.config.MentorInterestWeight*float64(len(matchedInterests))
		return score, true
	})
}

// scoreFunc scores one candidate against the requesting user's sets.
// The bool result reports whether the candidate is eligible at all.
type scoreFunc func(userSkills, userInterests, otherSkills, otherInterests similarity.Set) (float64, bool)

func (e *Engine) run(ctx context.Context, userID int64, policy string, limit int, score scoreFunc) (*models.MatchResponse, error) {
	startTime := time.Now()
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id must be positive, got %d", models.ErrInvalidInput, userID)
	}

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", policy, err)
	}
	candidates, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	userSkills := SkillSet(user)
	userInterests := InterestSet(user)

	matches := make([]*models.UserMatch, 0, len(candidates))
	for _, other := range candidates {
		if other.ID == userID {
			continue
		}
		otherSkills := SkillSet(other)
		otherInterests := InterestSet(other)
		s, ok := score(userSkills, userInterests, otherSkills, otherInterests)
		if !ok {
			continue
		}
		matches = append(matches, &models.UserMatch{
			User:                other,
			Score:               s,
			MatchedSkills:       otherSkills.Intersect(userSkills).Sorted(),
			MatchedInterests:    otherInterests.Intersect(userInterests).Sorted(),
			ComplementarySkills: otherSkills.Diff(userSkills).Sorted(),
		})
	}

	// Stable sort: ties keep storage order (user ID ascending).
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	for i, m := range matches {
		m.Rank = i + 1
	}

	e.logger.Debug("matching complete",
		zap.String("policy", policy),
		zap.Int64("user_id", userID),
		zap.Int("results", len(matches)),
	)
	return &models.MatchResponse{
		Results:   matches,
		Total:     len(matches),
		QueryTime: time.Since(startTime).Milliseconds(),
		Policy:    policy,
	}, nil
}
