package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/repos"
	"github.com/quiplabs/quip-backend/internal/types"
)

// CourseService is the read-only query surface over courses and
// sections. It never mutates the store and is safe to call concurrently
// with in-flight creation runs.
type CourseService interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*types.Course, error)
	GetAllCourses(ctx context.Context) ([]*types.Course, error)
	GetIncompleteCourses(ctx context.Context) ([]*types.Course, error)
	GetSections(ctx context.Context, courseID uuid.UUID) ([]*types.Section, error)
	GetIncompleteSections(ctx context.Context, courseID uuid.UUID) ([]*types.Section, error)
}

type courseService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	sectionRepo repos.SectionRepo
}

func NewCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	sectionRepo repos.SectionRepo,
) CourseService {
	return &courseService{
		db:          db,
		log:         baseLog.With("service", "CourseService"),
		courseRepo:  courseRepo,
		sectionRepo: sectionRepo,
	}
}

func (cs *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	return cs.courseRepo.GetByID(ctx, nil, id)
}

func (cs *courseService) GetAllCourses(ctx context.Context) ([]*types.Course, error) {
	return cs.courseRepo.GetAll(ctx, nil)
}

func (cs *courseService) GetIncompleteCourses(ctx context.Context) ([]*types.Course, error) {
	return cs.courseRepo.GetIncomplete(ctx, nil)
}

func (cs *courseService) GetSections(ctx context.Context, courseID uuid.UUID) ([]*types.Section, error) {
	return cs.sectionRepo.GetByCourseID(ctx, nil, courseID)
}

func (cs *courseService) GetIncompleteSections(ctx context.Context, courseID uuid.UUID) ([]*types.Section, error) {
	return cs.sectionRepo.GetIncompleteByCourseID(ctx, nil, courseID)
}
