package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/types"
)

type SectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, section *types.Section) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Section, error)
	GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Section, error)
	GetIncompleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Section, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Section, error)

	// MarkCompleted sets is_completed and completed_at together.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, completedAt int64) error

	CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	CountCompletedByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) Create(ctx context.Context, tx *gorm.DB, section *types.Section) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if section == nil {
		return fmt.Errorf("nil section")
	}
	return transaction.WithContext(ctx).Create(section).Error
}

func (r *sectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var section types.Section
	err := transaction.WithContext(ctx).
		Where("section_id = ?", id).
		Limit(1).
		Find(&section).Error
	if err != nil {
		return nil, err
	}
	if section.SectionID == uuid.Nil {
		return nil, nil
	}
	return &section, nil
}

func (r *sectionRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sections []*types.Section
	err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("section_order ASC").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) GetIncompleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sections []*types.Section
	err := transaction.WithContext(ctx).
		Where("course_id = ? AND is_completed = ?", courseID, false).
		Order("section_order ASC").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sections []*types.Section
	err := transaction.WithContext(ctx).
		Order("course_id ASC, section_order ASC").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, completedAt int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Section{}).
		Where("section_id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": completedAt,
		}).Error
}

func (r *sectionRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Section{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (r *sectionRepo) CountCompletedByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Section{}).
		Where("course_id = ? AND is_completed = ?", courseID, true).
		Count(&count).Error
	return count, err
}
