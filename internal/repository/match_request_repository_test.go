package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFields_MentorScorePairing(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		wantErr bool
	}{
		{
			name:   "both mentor and score",
			fields: map[string]any{"matched_mentor_id": "M7", "compatibility_score": 92.0},
		},
		{
			name:    "mentor without score",
			fields:  map[string]any{"matched_mentor_id": "M7"},
			wantErr: true,
		},
		{
			name:    "score without mentor",
			fields:  map[string]any{"compatibility_score": 92.0},
			wantErr: true,
		},
		{
			name:   "unrelated fields pass",
			fields: map[string]any{"subject_breakdown": `{"Math":100}`},
		},
		{
			name:    "unknown status rejected",
			fields:  map[string]any{"status": "resolved"},
			wantErr: true,
		},
		{
			name:   "known status accepted",
			fields: map[string]any{"status": "answered"},
		},
		{
			name:    "requester id is immutable",
			fields:  map[string]any{"requester_id": "R2"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFields(tt.fields)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
