package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.Session{}, &types.Course{}, &types.Section{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// fakeNotifier records every published event in order.
type notifierEvent struct {
	Event     string
	SessionID uuid.UUID
	Data      map[string]any
	Message   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (n *fakeNotifier) PublishSessionUpdate(_ context.Context, sessionID uuid.UUID, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{Event: "session_update", SessionID: sessionID, Data: data})
}

func (n *fakeNotifier) PublishError(_ context.Context, sessionID uuid.UUID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{Event: "error", SessionID: sessionID, Message: message})
}

func (n *fakeNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e.Event == "error" {
			count++
		}
	}
	return count
}

func (n *fakeNotifier) lastUpdate() *notifierEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Event == "session_update" {
			e := n.events[i]
			return &e
		}
	}
	return nil
}

// fakeGenerationClient scripts the collaborator's behavior per call.
type fakeGenerationClient struct {
	validVerdict   bool
	validateErr    error
	outline        *CourseOutline
	outlineErr     error
	contentErr     error
	contentErrAt   int // fail the nth content call (0-based); -1 disables
	contentCalls   int
	contentByIndex []string
}

func newFakeGenerationClient(sections int) *fakeGenerationClient {
	stubs := make([]SectionOutline, 0, sections)
	contents := make([]string, 0, sections)
	for i := 0; i < sections; i++ {
		stubs = append(stubs, SectionOutline{
			SectionTitle:       fmt.Sprintf("Section %d", i+1),
			SectionDescription: fmt.Sprintf("Prompt for section %d", i+1),
		})
		contents = append(contents, fmt.Sprintf("<p>Content %d</p>", i+1))
	}
	return &fakeGenerationClient{
		validVerdict: true,
		outline: &CourseOutline{
			CourseTitle:       "Generated Course",
			CourseDescription: "A course about things.",
			Sections:          stubs,
		},
		contentErrAt:   -1,
		contentByIndex: contents,
	}
}

func (f *fakeGenerationClient) ValidateCourseRequest(context.Context, string) (bool, error) {
	return f.validVerdict, f.validateErr
}

func (f *fakeGenerationClient) GenerateOutline(context.Context, string, string) (*CourseOutline, error) {
	if f.outlineErr != nil {
		return nil, f.outlineErr
	}
	return f.outline, nil
}

func (f *fakeGenerationClient) GenerateSectionContent(context.Context, string) (string, error) {
	call := f.contentCalls
	f.contentCalls++
	if f.contentErrAt >= 0 && call == f.contentErrAt {
		if f.contentErr != nil {
			return "", f.contentErr
		}
		return "", &GenerationError{Op: "section content", Err: fmt.Errorf("model unavailable")}
	}
	if call < len(f.contentByIndex) {
		return f.contentByIndex[call], nil
	}
	return "<p>extra</p>", nil
}
