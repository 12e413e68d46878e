package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/mentor-match/internal/model"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation failed")
	// ErrStaleWrite is returned when an update targets a record that already
	// reached a terminal status. Late background results must not resurrect it.
	ErrStaleWrite = errors.New("stale write rejected")
)

var nonTerminalStatuses = []string{model.StatusPending, model.StatusProcessing}

type MatchRequestRepository struct {
	db *gorm.DB
}

func NewMatchRequestRepository(db *gorm.DB) *MatchRequestRepository {
	return &MatchRequestRepository{db}
}

func (r *MatchRequestRepository) Create(req *model.MatchRequest) error {
	if strings.TrimSpace(req.DoubtText) == "" {
		return fmt.Errorf("%w: doubt text is required", ErrValidation)
	}
	if req.RequesterID == "" {
		return fmt.Errorf("%w: requester id is required", ErrValidation)
	}
	return r.db.Create(req).Error
}

func (r *MatchRequestRepository) FindByID(id string) (*model.MatchRequest, error) {
	var req model.MatchRequest
	err := r.db.First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *MatchRequestRepository) FindLatestByRequester(requesterID string) (*model.MatchRequest, error) {
	var req model.MatchRequest
	err := r.db.Where("requester_id = ?", requesterID).Order("created_at DESC").First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateFields applies the given columns to a record that has not reached a
// terminal status yet. The status guard lives in the WHERE clause so the
// read-modify-write is a single statement.
func (r *MatchRequestRepository) UpdateFields(id string, fields map[string]any) (*model.MatchRequest, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	updates := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()
	updates["version"] = gorm.Expr("version + 1")

	res := r.db.Model(&model.MatchRequest{}).
		Where("id = ? AND status IN ?", id, nonTerminalStatuses).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(id); err != nil {
			return nil, err
		}
		return nil, ErrStaleWrite
	}
	return r.FindByID(id)
}

// Close transitions a record to closed from any state. Closing an already
// closed record is a no-op.
func (r *MatchRequestRepository) Close(id string) (*model.MatchRequest, error) {
	res := r.db.Model(&model.MatchRequest{}).
		Where("id = ? AND status <> ?", id, model.StatusClosed).
		Updates(map[string]any{
			"status":     model.StatusClosed,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return r.FindByID(id)
}

func validateFields(fields map[string]any) error {
	_, hasMentor := fields["matched_mentor_id"]
	_, hasScore := fields["compatibility_score"]
	if hasMentor != hasScore {
		return fmt.Errorf("%w: matched_mentor_id and compatibility_score must be written together", ErrValidation)
	}
	if status, ok := fields["status"]; ok {
		s, _ := status.(string)
		if !model.IsValidStatus(s) {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, s)
		}
	}
	if _, ok := fields["requester_id"]; ok {
		return fmt.Errorf("%w: requester_id is immutable", ErrValidation)
	}
	return nil
}
