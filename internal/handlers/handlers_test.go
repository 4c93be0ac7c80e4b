package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/types"
	"gorm.io/gorm"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeCourseService struct {
	course   *types.Course
	courses  []*types.Course
	sections []*types.Section
	err      error
}

func (f *fakeCourseService) GetCourse(context.Context, uuid.UUID) (*types.Course, error) {
	return f.course, f.err
}

func (f *fakeCourseService) GetAllCourses(context.Context) ([]*types.Course, error) {
	return f.courses, f.err
}

func (f *fakeCourseService) GetIncompleteCourses(context.Context) ([]*types.Course, error) {
	return f.courses, f.err
}

func (f *fakeCourseService) GetSections(context.Context, uuid.UUID) ([]*types.Section, error) {
	return f.sections, f.err
}

func (f *fakeCourseService) GetIncompleteSections(context.Context, uuid.UUID) ([]*types.Section, error) {
	return f.sections, f.err
}

type fakeCompletionService struct {
	mu        sync.Mutex
	completed []uuid.UUID
	err       error
}

func (f *fakeCompletionService) CompleteSection(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return f.err
}

func (f *fakeCompletionService) CourseCompletionPercentage(context.Context, *gorm.DB, uuid.UUID) (float64, error) {
	return 0, nil
}

type fakeCreationService struct {
	mu      sync.Mutex
	started []uuid.UUID
	done    chan struct{}
}

func (f *fakeCreationService) Start(_ context.Context, sessionID uuid.UUID, _, _ string) {
	f.mu.Lock()
	f.started = append(f.started, sessionID)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Handle(method, "/", handler)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetCourseMissingID(t *testing.T) {
	h := NewCourseHandler(newTestLogger(t), &fakeCourseService{})
	rec := performJSON(t, h.GetCourse, http.MethodGet, "/", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if envelope.Error.Code != "missing_id" {
		t.Fatalf("error code: want=missing_id got=%q", envelope.Error.Code)
	}
}

func TestGetCourseInvalidID(t *testing.T) {
	h := NewCourseHandler(newTestLogger(t), &fakeCourseService{})
	rec := performJSON(t, h.GetCourse, http.MethodGet, "/?id=not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	h := NewCourseHandler(newTestLogger(t), &fakeCourseService{course: nil})
	rec := performJSON(t, h.GetCourse, http.MethodGet, "/?id="+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", rec.Code)
	}
}

func TestGetCourseFound(t *testing.T) {
	courseID := uuid.New()
	h := NewCourseHandler(newTestLogger(t), &fakeCourseService{course: &types.Course{
		CourseID: courseID,
		Title:    "Intro to Go",
	}})
	rec := performJSON(t, h.GetCourse, http.MethodGet, "/?id="+courseID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var got types.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.CourseID != courseID || got.Title != "Intro to Go" {
		t.Fatalf("unexpected course: %+v", got)
	}
}

func TestGetSectionsRequiresCourseID(t *testing.T) {
	h := NewCourseHandler(newTestLogger(t), &fakeCourseService{})
	rec := performJSON(t, h.GetSections, http.MethodGet, "/", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}

func TestCompleteSection(t *testing.T) {
	completion := &fakeCompletionService{}
	h := NewSectionHandler(newTestLogger(t), completion)
	sectionID := uuid.New()

	rec := performJSON(t, h.CompleteSection, http.MethodPost, "/", gin.H{"section_id": sectionID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(completion.completed) != 1 || completion.completed[0] != sectionID {
		t.Fatalf("completed ids: got=%v", completion.completed)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "success" {
		t.Fatalf("status field: got=%q", body["status"])
	}
}

func TestCompleteSectionRejectsMissingBody(t *testing.T) {
	h := NewSectionHandler(newTestLogger(t), &fakeCompletionService{})
	rec := performJSON(t, h.CompleteSection, http.MethodPost, "/", gin.H{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}

func TestStartCreationMintsSessionID(t *testing.T) {
	creation := &fakeCreationService{done: make(chan struct{})}
	h := NewCreateHandler(newTestLogger(t), creation)

	rec := performJSON(t, h.StartCreation, http.MethodPost, "/", gin.H{
		"description": "Teach me Go",
		"level":       "beginner",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: want=202 got=%d body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	returned, err := uuid.Parse(body["session_id"])
	if err != nil {
		t.Fatalf("session_id not a uuid: %q", body["session_id"])
	}

	select {
	case <-creation.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("creation run never started")
	}
	if creation.started[0] != returned {
		t.Fatalf("started with %s, returned %s", creation.started[0], returned)
	}
}

func TestStartCreationReusesProvidedSessionID(t *testing.T) {
	creation := &fakeCreationService{done: make(chan struct{})}
	h := NewCreateHandler(newTestLogger(t), creation)
	sessionID := uuid.New()

	rec := performJSON(t, h.StartCreation, http.MethodPost, "/", gin.H{
		"session_id":  sessionID.String(),
		"description": "Teach me Go",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: want=202 got=%d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["session_id"] != sessionID.String() {
		t.Fatalf("session_id: want=%s got=%s", sessionID, body["session_id"])
	}

	select {
	case <-creation.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("creation run never started")
	}
}

func TestStartCreationRequiresDescription(t *testing.T) {
	h := NewCreateHandler(newTestLogger(t), &fakeCreationService{})
	rec := performJSON(t, h.StartCreation, http.MethodPost, "/", gin.H{"level": "beginner"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}
