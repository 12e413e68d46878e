package model

import (
	"time"

	"github.com/lib/pq"
)

// Mentor is a read-only projection of the mentor directory. The matching
// core never writes to this table; the profile subsystem owns it.
type Mentor struct {
	ID         string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name       string         `json:"name"`
	Skills     pq.StringArray `gorm:"type:text[]" json:"skills"`
	Expertise  pq.StringArray `gorm:"type:text[]" json:"expertise"`
	Rating     float64        `gorm:"type:float;default:0" json:"rating"`
	IsOnline   bool           `gorm:"default:false" json:"is_online"`
	LastActive time.Time      `json:"last_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (m *Mentor) TableName() string {
	return "mentors"
}
