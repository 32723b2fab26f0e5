// Package domain holds the job application and CV matching types.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMatch indicates a match record that violates the status rules.
var ErrInvalidMatch = errors.New("invalid match record")

// MatchStatus is the lifecycle state of a CV match computed by the backend.
type MatchStatus string

const (
	MatchProcessing MatchStatus = "Processing"
	MatchCompleted  MatchStatus = "Completed"
	MatchFailed     MatchStatus = "Failed"
)

// ParseMatchStatus parses a status ignoring case.
func ParseMatchStatus(s string) (MatchStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "processing":
		return MatchProcessing, nil
	case "completed":
		return MatchCompleted, nil
	case "failed":
		return MatchFailed, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidMatch, s)
	}
}

// UnmarshalJSON accepts any casing of the known statuses. Other values are
// kept as sent so one unrecognised record does not fail a whole list;
// Validate rejects them.
func (s *MatchStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("match status: %w", err)
	}
	if parsed, err := ParseMatchStatus(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = MatchStatus(raw)
	return nil
}

// IsTerminal reports whether the backend has finished with the match.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchCompleted || s == MatchFailed
}

// MatchRecord is a CV-to-job match as reported by the backend. The client
// never mutates it.
type MatchRecord struct {
	TryMatchID      int64       `json:"tryMatchId"`
	JobID           int64       `json:"jobId,omitempty"`
	JobTitle        string      `json:"jobTitle,omitempty"`
	Status          MatchStatus `json:"status"`
	SimilarityScore *float64    `json:"similarityScore,omitempty"`
	Suggestions     []string    `json:"suggestions,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Validate checks that the score is present exactly when the match completed
// and lies within 0-100.
func (m MatchRecord) Validate() error {
	switch m.Status {
	case MatchProcessing, MatchFailed:
		if m.SimilarityScore != nil {
			return fmt.Errorf("%w: %s match %d carries a score", ErrInvalidMatch, m.Status, m.TryMatchID)
		}
	case MatchCompleted:
		if m.SimilarityScore == nil {
			return fmt.Errorf("%w: completed match %d has no score", ErrInvalidMatch, m.TryMatchID)
		}
		if s := *m.SimilarityScore; s < 0 || s > 100 {
			return fmt.Errorf("%w: score %.2f out of range", ErrInvalidMatch, s)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMatch, m.Status)
	}
	return nil
}

// Summary renders the one-line view of the match for its current state.
func (m MatchRecord) Summary() string {
	switch m.Status {
	case MatchProcessing:
		return "Processing: the match is still being computed"
	case MatchCompleted:
		score := 0.0
		if m.SimilarityScore != nil {
			score = *m.SimilarityScore
		}
		switch n := len(m.Suggestions); n {
		case 0:
			return fmt.Sprintf("Completed: %.0f%% match", score)
		case 1:
			return fmt.Sprintf("Completed: %.0f%% match, 1 suggestion", score)
		default:
			return fmt.Sprintf("Completed: %.0f%% match, %d suggestions", score, n)
		}
	case MatchFailed:
		return "Failed: the match could not be computed"
	default:
		return "Unknown status " + string(m.Status)
	}
}
