package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/repos"
)

type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type CourseAnalytics struct {
	CourseID             uuid.UUID `json:"course_id"`
	Title                string    `json:"title"`
	CompletionPercentage float64   `json:"completion_percentage"`
	TotalSections        int       `json:"total_sections"`
	CompletedSections    int       `json:"completed_sections"`
	LastCompletedAt      *int64    `json:"last_completed_at,omitempty"`
	LastCompletedAtHuman string    `json:"last_completed_at_human,omitempty"`
}

type AnalyticsData struct {
	Courses []CourseAnalytics `json:"courses"`

	// AverageCompletionSeconds is the mean wall-clock time from course
	// creation to its last section completion, across fully-completed
	// courses only.
	AverageCompletionSeconds float64 `json:"average_completion_seconds"`

	CourseCounts  Counts `json:"course_counts"`
	SectionCounts Counts `json:"section_counts"`

	// DailyCompletions buckets section completions per UTC calendar day,
	// keyed YYYY-MM-DD.
	DailyCompletions map[string]int `json:"daily_completions"`
}

type AnalyticsService interface {
	GetAnalyticsData(ctx context.Context) (*AnalyticsData, error)
}

type analyticsService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	sectionRepo repos.SectionRepo
}

func NewAnalyticsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	sectionRepo repos.SectionRepo,
) AnalyticsService {
	return &analyticsService{
		db:          db,
		log:         baseLog.With("service", "AnalyticsService"),
		courseRepo:  courseRepo,
		sectionRepo: sectionRepo,
	}
}

// GetAnalyticsData aggregates in Go from two full reads rather than
// driver-specific SQL, so the same code serves sqlite and postgres.
func (as *analyticsService) GetAnalyticsData(ctx context.Context) (*AnalyticsData, error) {
	courses, err := as.courseRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	sections, err := as.sectionRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	type courseAgg struct {
		total           int
		completed       int
		lastCompletedAt int64
	}
	perCourse := make(map[uuid.UUID]*courseAgg, len(courses))
	for _, c := range courses {
		perCourse[c.CourseID] = &courseAgg{}
	}

	data := &AnalyticsData{
		Courses:          make([]CourseAnalytics, 0, len(courses)),
		DailyCompletions: make(map[string]int),
	}

	for _, s := range sections {
		agg, ok := perCourse[s.CourseID]
		if !ok {
			// Section without a known course; still counted in totals.
			agg = &courseAgg{}
			perCourse[s.CourseID] = agg
		}
		agg.total++
		data.SectionCounts.Total++
		if s.IsCompleted {
			agg.completed++
			data.SectionCounts.Completed++
			if s.CompletedAt != nil {
				if *s.CompletedAt > agg.lastCompletedAt {
					agg.lastCompletedAt = *s.CompletedAt
				}
				day := time.Unix(*s.CompletedAt, 0).UTC().Format("2006-01-02")
				data.DailyCompletions[day]++
			}
		}
	}

	var (
		completionTimeSum   float64
		completionTimeCount int
	)
	for _, c := range courses {
		agg := perCourse[c.CourseID]
		entry := CourseAnalytics{
			CourseID:             c.CourseID,
			Title:                c.Title,
			CompletionPercentage: c.CompletionPercentage,
			TotalSections:        agg.total,
			CompletedSections:    agg.completed,
		}
		if agg.lastCompletedAt > 0 {
			last := agg.lastCompletedAt
			entry.LastCompletedAt = &last
			entry.LastCompletedAtHuman = time.Unix(last, 0).UTC().Format("2006-01-02 15:04:05")
		}

		data.CourseCounts.Total++
		if agg.total > 0 && agg.completed == agg.total {
			data.CourseCounts.Completed++
			if agg.lastCompletedAt > 0 && agg.lastCompletedAt >= c.CreatedAt {
				completionTimeSum += float64(agg.lastCompletedAt - c.CreatedAt)
				completionTimeCount++
			}
		}

		data.Courses = append(data.Courses, entry)
	}

	if completionTimeCount > 0 {
		data.AverageCompletionSeconds = completionTimeSum / float64(completionTimeCount)
	}
	return data, nil
}
