package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/repos"
)

// CompletionService derives course completion percentages from
// section-level completion flags.
type CompletionService interface {
	// CompleteSection marks a section done and synchronously recomputes
	// the owning course's completion percentage in the same transaction.
	// An unknown section id is a logged no-op, not an error.
	CompleteSection(ctx context.Context, sectionID uuid.UUID) error

	// CourseCompletionPercentage is completed/total for the course,
	// 0.0 when the course has no sections.
	CourseCompletionPercentage(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (float64, error)
}

type completionService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	sectionRepo repos.SectionRepo
	now         func() time.Time
}

func NewCompletionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	sectionRepo repos.SectionRepo,
) CompletionService {
	return &completionService{
		db:          db,
		log:         baseLog.With("service", "CompletionService"),
		courseRepo:  courseRepo,
		sectionRepo: sectionRepo,
		now:         time.Now,
	}
}

func (cs *completionService) CompleteSection(ctx context.Context, sectionID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		section, err := cs.sectionRepo.GetByID(ctx, tx, sectionID)
		if err != nil {
			return err
		}
		if section == nil {
			cs.log.Info("CompleteSection for unknown section, ignoring", "section_id", sectionID)
			return nil
		}

		if err := cs.sectionRepo.MarkCompleted(ctx, tx, sectionID, cs.now().Unix()); err != nil {
			return err
		}

		pct, err := cs.CourseCompletionPercentage(ctx, tx, section.CourseID)
		if err != nil {
			return err
		}
		return cs.courseRepo.UpdateCompletionPercentage(ctx, tx, section.CourseID, pct)
	})
}

func (cs *completionService) CourseCompletionPercentage(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (float64, error) {
	total, err := cs.sectionRepo.CountByCourseID(ctx, tx, courseID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0.0, nil
	}
	completed, err := cs.sectionRepo.CountCompletedByCourseID(ctx, tx, courseID)
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(total), nil
}
