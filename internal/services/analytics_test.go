package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/repos"
	"github.com/quiplabs/quip-backend/internal/types"
)

func seedAnalyticsCourse(t *testing.T, gdb *gorm.DB, createdAt int64, pct float64, completedAts []*int64) uuid.UUID {
	t.Helper()
	sessionID := uuid.New()
	if err := gdb.Create(&types.Session{
		SessionID:   sessionID,
		Actions:     types.EmptyActions(),
		Description: "seed",
		Level:       "beginner",
		Progress:    types.SessionProgressSuccess,
	}).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	courseID := uuid.New()
	if err := gdb.Create(&types.Course{
		CourseID:             courseID,
		SessionID:            sessionID,
		Title:                "Course " + courseID.String()[:8],
		Description:          "seed",
		Level:                "beginner",
		CreatedAt:            createdAt,
		CompletionPercentage: pct,
	}).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	for i, at := range completedAts {
		section := &types.Section{
			SectionID:    uuid.New(),
			CourseID:     courseID,
			Title:        "Section",
			Description:  "seed",
			Content:      "<p>body</p>",
			SectionOrder: i,
			CreatedAt:    createdAt,
		}
		if at != nil {
			section.IsCompleted = true
			section.CompletedAt = at
		}
		if err := gdb.Create(section).Error; err != nil {
			t.Fatalf("seed section %d: %v", i, err)
		}
	}
	return courseID
}

func TestGetAnalyticsData(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	courseRepo := repos.NewCourseRepo(gdb, log)
	sectionRepo := repos.NewSectionRepo(gdb, log)
	svc := NewAnalyticsService(gdb, log, courseRepo, sectionRepo)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Unix()
	day1 := base + 3600       // 2026-05-01
	day2 := base + 26*3600    // 2026-05-02
	fullID := seedAnalyticsCourse(t, gdb, base, 1.0, []*int64{&day1, &day2})
	partialID := seedAnalyticsCourse(t, gdb, base, 0.0, []*int64{nil, nil, nil})

	data, err := svc.GetAnalyticsData(context.Background())
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if data.CourseCounts.Total != 2 || data.CourseCounts.Completed != 1 {
		t.Fatalf("course counts: want={2 1} got=%+v", data.CourseCounts)
	}
	if data.SectionCounts.Total != 5 || data.SectionCounts.Completed != 2 {
		t.Fatalf("section counts: want={5 2} got=%+v", data.SectionCounts)
	}

	// Last completion was 26h after creation.
	if want := float64(day2 - base); data.AverageCompletionSeconds != want {
		t.Fatalf("average completion: want=%v got=%v", want, data.AverageCompletionSeconds)
	}

	if len(data.DailyCompletions) != 2 {
		t.Fatalf("daily buckets: want=2 got=%v", data.DailyCompletions)
	}
	if data.DailyCompletions["2026-05-01"] != 1 || data.DailyCompletions["2026-05-02"] != 1 {
		t.Fatalf("daily completions: got=%v", data.DailyCompletions)
	}

	if len(data.Courses) != 2 {
		t.Fatalf("course entries: want=2 got=%d", len(data.Courses))
	}
	for _, entry := range data.Courses {
		switch entry.CourseID {
		case fullID:
			if entry.TotalSections != 2 || entry.CompletedSections != 2 {
				t.Fatalf("full course sections: got=%+v", entry)
			}
			if entry.LastCompletedAt == nil || *entry.LastCompletedAt != day2 {
				t.Fatalf("full course last_completed_at: got=%v", entry.LastCompletedAt)
			}
			if entry.LastCompletedAtHuman != "2026-05-02 12:00:00" {
				t.Fatalf("human timestamp: got=%q", entry.LastCompletedAtHuman)
			}
		case partialID:
			if entry.TotalSections != 3 || entry.CompletedSections != 0 {
				t.Fatalf("partial course sections: got=%+v", entry)
			}
			if entry.LastCompletedAt != nil {
				t.Fatalf("partial course last_completed_at should be unset")
			}
		default:
			t.Fatalf("unexpected course in analytics: %s", entry.CourseID)
		}
	}
}

func TestGetAnalyticsDataEmpty(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	svc := NewAnalyticsService(gdb, log, repos.NewCourseRepo(gdb, log), repos.NewSectionRepo(gdb, log))

	data, err := svc.GetAnalyticsData(context.Background())
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if data.CourseCounts.Total != 0 || data.SectionCounts.Total != 0 {
		t.Fatalf("empty store counts: got=%+v/%+v", data.CourseCounts, data.SectionCounts)
	}
	if data.AverageCompletionSeconds != 0 {
		t.Fatalf("empty store average: got=%v", data.AverageCompletionSeconds)
	}
	if len(data.Courses) != 0 {
		t.Fatalf("empty store courses: got=%d", len(data.Courses))
	}
}
