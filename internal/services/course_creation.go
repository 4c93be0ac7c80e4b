package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/repos"
	"github.com/quiplabs/quip-backend/internal/types"
)

// CourseCreationService drives one session through the full creation
// flow: validation, outline generation, per-section content generation,
// and finalisation. Every mutation of the session is followed by a
// broadcast on the session's channel.
type CourseCreationService interface {
	// Start runs the creation flow to completion. It is intended to run
	// on its own goroutine; all outcomes, including failures, are
	// reported through the notifier rather than the return path.
	Start(ctx context.Context, sessionID uuid.UUID, description, level string)
}

type courseCreationService struct {
	db                *gorm.DB
	log               *logger.Logger
	sessionRepo       repos.SessionRepo
	courseRepo        repos.CourseRepo
	sectionRepo       repos.SectionRepo
	ai                GenerationClient
	notifier          SessionNotifier
	validationEnabled bool
	now               func() time.Time
}

func NewCourseCreationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.SessionRepo,
	courseRepo repos.CourseRepo,
	sectionRepo repos.SectionRepo,
	ai GenerationClient,
	notifier SessionNotifier,
	validationEnabled bool,
) CourseCreationService {
	return &courseCreationService{
		db:                db,
		log:               baseLog.With("service", "CourseCreationService"),
		sessionRepo:       sessionRepo,
		courseRepo:        courseRepo,
		sectionRepo:       sectionRepo,
		ai:                ai,
		notifier:          notifier,
		validationEnabled: validationEnabled,
		now:               time.Now,
	}
}

func (ccs *courseCreationService) Start(ctx context.Context, sessionID uuid.UUID, description, level string) {
	log := ccs.log.With("session_id", sessionID)

	// Validation gate: a negative verdict stops the flow before any
	// state is persisted.
	if ccs.validationEnabled {
		valid, err := ccs.ai.ValidateCourseRequest(ctx, description)
		if err != nil {
			log.Error("Course request validation failed", "error", err)
			ccs.notifier.PublishError(ctx, sessionID, err.Error())
			return
		}
		if !valid {
			log.Info("Course request rejected by validator")
			ccs.notifier.PublishError(ctx, sessionID, "Invalid course description. Please provide a valid course request.")
			return
		}
	}

	// fail transitions the session to its terminal error state and
	// broadcasts the failure. Used for every error after the session row
	// exists, so a failed run never stays in_progress.
	fail := func(step string, err error) {
		log.Error("Course creation failed", "step", step, "error", err)
		if _, uerr := ccs.sessionRepo.UpdateProgress(ctx, nil, sessionID, types.SessionProgressError); uerr != nil {
			log.Error("Failed to mark session as errored", "error", uerr)
		}
		ccs.notifier.PublishError(ctx, sessionID, err.Error())
	}

	// emit broadcasts the current session snapshot, with the course id
	// once one exists.
	emit := func(courseID *uuid.UUID) {
		session, err := ccs.sessionRepo.GetByID(ctx, nil, sessionID)
		if err != nil || session == nil {
			log.Warn("Could not load session for broadcast", "error", err)
			return
		}
		ccs.notifier.PublishSessionUpdate(ctx, sessionID, sessionSnapshot(session, courseID))
	}

	actions := []string{}
	session := &types.Session{
		SessionID:   sessionID,
		Actions:     types.EmptyActions(),
		Description: description,
		Level:       level,
		Progress:    types.SessionProgressInProgress,
	}
	if err := ccs.sessionRepo.Create(ctx, nil, session); err != nil {
		log.Error("Failed to create session", "error", err)
		ccs.notifier.PublishError(ctx, sessionID, err.Error())
		return
	}
	emit(nil)

	actions = append(actions, "Creating course details")
	if err := ccs.sessionRepo.UpdateActions(ctx, nil, sessionID, actions); err != nil {
		fail("record action", err)
		return
	}
	emit(nil)

	outline, err := ccs.ai.GenerateOutline(ctx, description, level)
	if err != nil {
		fail("generate outline", err)
		return
	}

	courseID := uuid.New()
	createdAt := ccs.now().Unix()
	course := &types.Course{
		CourseID:             courseID,
		SessionID:            sessionID,
		Title:                outline.CourseTitle,
		Description:          outline.CourseDescription,
		Level:                level,
		CreatedAt:            createdAt,
		CompletionPercentage: 0.0,
	}
	if err := ccs.courseRepo.Create(ctx, nil, course); err != nil {
		fail("create course", err)
		return
	}

	actions = append(actions, "Course outline created")
	if err := ccs.sessionRepo.UpdateActions(ctx, nil, sessionID, actions); err != nil {
		fail("record action", err)
		return
	}
	emit(&courseID)

	// Sections are generated strictly in outline order; the loop index
	// becomes section_order and is never reassigned.
	for i, stub := range outline.Sections {
		actions = append(actions, fmt.Sprintf("Creating section: %s", stub.SectionTitle))
		if err := ccs.sessionRepo.UpdateActions(ctx, nil, sessionID, actions); err != nil {
			fail("record action", err)
			return
		}
		emit(&courseID)

		content, err := ccs.ai.GenerateSectionContent(ctx, stub.SectionDescription)
		if err != nil {
			fail(fmt.Sprintf("generate section %d", i), err)
			return
		}

		section := &types.Section{
			SectionID:    uuid.New(),
			CourseID:     courseID,
			Title:        stub.SectionTitle,
			Description:  stub.SectionDescription,
			Content:      content,
			SectionOrder: i,
			CreatedAt:    createdAt,
		}
		if err := ccs.sectionRepo.Create(ctx, nil, section); err != nil {
			fail(fmt.Sprintf("create section %d", i), err)
			return
		}
		emit(&courseID)
	}

	actions = append(actions, "Course creation completed!")
	if err := ccs.sessionRepo.UpdateActions(ctx, nil, sessionID, actions); err != nil {
		fail("record action", err)
		return
	}
	if _, err := ccs.sessionRepo.UpdateProgress(ctx, nil, sessionID, types.SessionProgressSuccess); err != nil {
		fail("finalise session", err)
		return
	}
	emit(&courseID)
	log.Info("Course creation completed", "course_id", courseID, "sections", len(outline.Sections))
}

// sessionSnapshot is the broadcast payload: the session's fields with
// the action log decoded, plus the course id once known.
func sessionSnapshot(session *types.Session, courseID *uuid.UUID) map[string]any {
	actions, err := session.ActionList()
	if err != nil {
		actions = []string{}
	}
	snapshot := map[string]any{
		"session_id":  session.SessionID.String(),
		"actions":     actions,
		"description": session.Description,
		"level":       session.Level,
		"progress":    session.Progress,
	}
	if courseID != nil {
		snapshot["course_id"] = courseID.String()
	} else {
		snapshot["course_id"] = nil
	}
	return snapshot
}
