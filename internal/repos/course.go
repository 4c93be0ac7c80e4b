package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/types"
)

// ErrInvalidCompletionPercentage is returned before any row is touched
// when a completion percentage falls outside [0.0, 1.0].
var ErrInvalidCompletionPercentage = errors.New("completion percentage out of range")

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *types.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	GetIncomplete(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	UpdateCompletionPercentage(ctx context.Context, tx *gorm.DB, id uuid.UUID, pct float64) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if course == nil {
		return fmt.Errorf("nil course")
	}
	return transaction.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var course types.Course
	err := transaction.WithContext(ctx).
		Where("course_id = ?", id).
		Limit(1).
		Find(&course).Error
	if err != nil {
		return nil, err
	}
	if course.CourseID == uuid.Nil {
		return nil, nil
	}
	return &course, nil
}

func (r *courseRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var courses []*types.Course
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetIncomplete(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var courses []*types.Course
	err := transaction.WithContext(ctx).
		Where("completion_percentage < ?", 1.0).
		Order("created_at ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) UpdateCompletionPercentage(ctx context.Context, tx *gorm.DB, id uuid.UUID, pct float64) error {
	if pct < 0.0 || pct > 1.0 {
		return fmt.Errorf("%w: %v", ErrInvalidCompletionPercentage, pct)
	}
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("course_id = ?", id).
		Update("completion_percentage", pct).Error
}
