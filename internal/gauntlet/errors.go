package gauntlet

import (
	"errors"
	"fmt"

	"github.com/agnivade/levenshtein"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrStoneLocked indicates a direct update to a stone that is still locked.
	ErrStoneLocked = errors.New("stone is locked")
	// ErrChallengeLocked indicates the challenge's unlock condition is not met yet.
	ErrChallengeLocked = errors.New("challenge is locked")
	// ErrChallengeActive indicates the challenge was already joined.
	ErrChallengeActive = errors.New("challenge already active")
	// ErrChallengeCompleted indicates the challenge is finished and accepts no more activity.
	ErrChallengeCompleted = errors.New("challenge already completed")
	// ErrInvalidInput indicates the provided data failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoSession indicates no user is signed in.
	ErrNoSession = errors.New("no active session")
)

// NotFoundError reports an unknown stone, challenge or notification id
// together with the closest known id, when one is near enough.
type NotFoundError struct {
	Kind       string
	ID         string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s %q not found (did you mean %q?)", e.Kind, e.ID, e.Suggestion)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func newNotFound(kind, id string, known []string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id, Suggestion: closestMatch(id, known)}
}

// closestMatch returns the candidate with the smallest edit distance to id,
// or "" when even the best one differs in more than a third of its runes.
func closestMatch(id string, candidates []string) string {
	best, bestDist := "", -1
	for _, candidate := range candidates {
		d := levenshtein.ComputeDistance(id, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best == "" || bestDist == 0 {
		return ""
	}
	limit := len([]rune(best)) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist > limit {
		return ""
	}
	return best
}
