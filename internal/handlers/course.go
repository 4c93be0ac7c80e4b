package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

// GetCourse handles GET /course?id=.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "missing_id", errors.New("missing 'id' query parameter"))
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	course, err := h.courseService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.log.Error("GetCourse failed", "course_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "load_course_failed", err)
		return
	}
	if course == nil {
		RespondError(c, http.StatusNotFound, "course_not_found", errors.New("course not found"))
		return
	}
	RespondOK(c, course)
}

// GetAllCourses handles GET /courses.
func (h *CourseHandler) GetAllCourses(c *gin.Context) {
	courses, err := h.courseService.GetAllCourses(c.Request.Context())
	if err != nil {
		h.log.Error("GetAllCourses failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_courses_failed", err)
		return
	}
	RespondOK(c, courses)
}

// GetIncompleteCourses handles GET /courses/incomplete.
func (h *CourseHandler) GetIncompleteCourses(c *gin.Context) {
	courses, err := h.courseService.GetIncompleteCourses(c.Request.Context())
	if err != nil {
		h.log.Error("GetIncompleteCourses failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_courses_failed", err)
		return
	}
	RespondOK(c, courses)
}

// GetSections handles GET /sections?course_id=.
func (h *CourseHandler) GetSections(c *gin.Context) {
	raw := c.Query("course_id")
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "missing_course_id", errors.New("missing 'course_id' query parameter"))
		return
	}
	courseID, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	sections, err := h.courseService.GetSections(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("GetSections failed", "course_id", courseID, "error", err)
		RespondError(c, http.StatusInternalServerError, "load_sections_failed", err)
		return
	}
	RespondOK(c, sections)
}

// GetIncompleteSections handles GET /sections/incomplete?course_id=.
func (h *CourseHandler) GetIncompleteSections(c *gin.Context) {
	raw := c.Query("course_id")
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "missing_course_id", errors.New("missing 'course_id' query parameter"))
		return
	}
	courseID, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	sections, err := h.courseService.GetIncompleteSections(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("GetIncompleteSections failed", "course_id", courseID, "error", err)
		RespondError(c, http.StatusInternalServerError, "load_sections_failed", err)
		return
	}
	RespondOK(c, sections)
}
