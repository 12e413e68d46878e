package repository

import (
	"errors"

	"github.com/fadilmartias/mentor-match/internal/model"
	"gorm.io/gorm"
)

// MentorRepository is read-only: mentor profiles are written by the profile
// subsystem, the matching core only looks them up.
type MentorRepository struct {
	db *gorm.DB
}

func NewMentorRepository(db *gorm.DB) *MentorRepository {
	return &MentorRepository{db}
}

func (r *MentorRepository) FindByID(id string) (*model.Mentor, error) {
	var mentor model.Mentor
	err := r.db.First(&mentor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mentor, nil
}

func (r *MentorRepository) FindOnline() ([]model.Mentor, error) {
	var mentors []model.Mentor
	err := r.db.Where("is_online = ?", true).Order("rating DESC").Find(&mentors).Error
	return mentors, err
}

func (r *MentorRepository) List(page, pageSize int) ([]model.Mentor, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := r.db.Model(&model.Mentor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mentors []model.Mentor
	err := r.db.Order("rating DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&mentors).Error
	return mentors, total, err
}
