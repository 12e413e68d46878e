package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchRequest statuses. answered, error and closed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusAnswered   = "answered"
	StatusError      = "error"
	StatusClosed     = "closed"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusAnswered, StatusError, StatusClosed:
		return true
	}
	return false
}

func IsTerminalStatus(s string) bool {
	switch s {
	case StatusAnswered, StatusError, StatusClosed:
		return true
	}
	return false
}

type MatchRequest struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RequesterID        string    `gorm:"type:varchar(64);index" json:"requester_id"`
	DoubtText          string    `gorm:"type:text" json:"doubt_text"`
	Status             string    `gorm:"type:varchar(50)" json:"status"`
	SubjectBreakdown   string    `gorm:"type:jsonb" json:"subject_breakdown"`
	MatchedMentorID    *string   `gorm:"type:varchar(64)" json:"matched_mentor_id"`
	CompatibilityScore *float64  `gorm:"type:float" json:"compatibility_score"`
	ErrorMessage       string    `gorm:"type:text" json:"error_message"`
	Version            int64     `gorm:"default:0" json:"version"` // bumped on every mutation
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (r *MatchRequest) TableName() string {
	return "match_requests"
}
