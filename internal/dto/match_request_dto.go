package dto

import (
	"time"

	"github.com/google/uuid"
)

type MentorSummaryDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Skills    []string `json:"skills"`
	Expertise []string `json:"expertise"`
	Rating    float64  `json:"rating"`
	IsOnline  bool     `json:"is_online"`
}

type MatchRequestDTO struct {
	ID                 uuid.UUID         `json:"id"`
	RequesterID        string            `json:"requester_id"`
	Status             string            `json:"status"`
	SubjectBreakdown   string            `json:"subject_breakdown,omitempty"`
	MatchedMentorID    *string           `json:"matched_mentor_id,omitempty"`
	CompatibilityScore *float64          `json:"compatibility_score,omitempty"`
	MatchedMentor      *MentorSummaryDTO `json:"matched_mentor,omitempty"`
	ErrorMessage       string            `json:"error_message,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// CandidateMatch is the cached dashboard projection of a potential match.
// It is never persisted; the match_requests table stays the source of truth.
type CandidateMatch struct {
	MentorID           string   `json:"mentor_id"`
	Name               string   `json:"name"`
	Skills             []string `json:"skills"`
	Rating             float64  `json:"rating"`
	IsOnline           bool     `json:"is_online"`
	CompatibilityScore float64  `json:"compatibility_score"`
}
