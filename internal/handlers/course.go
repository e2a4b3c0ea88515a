package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"coursegen-backend/internal/models"
)

// CourseService is the generation pipeline as seen by the HTTP layer.
type CourseService interface {
	GenerateRoadmap(ctx context.Context, topic string) (*models.Course, error)
	GenerateModule(ctx context.Context, courseID, moduleTitle, moduleDescription string) (*models.Lesson, error)
	DeepDive(ctx context.Context, originalText, subTopic string) (*models.DeepDiveResponse, error)
	SearchModule(ctx context.Context, contextNotes, userQuestion string) (*models.SearchAnswerResponse, error)
	FetchVideos(ctx context.Context, query string) ([]models.Video, error)
	GenerateQuiz(ctx context.Context, lessonTopic string, questionCount int) ([]models.QuizQuestion, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	DeleteCourse(ctx context.Context, courseID string) (bool, error)
}

type CourseHandler struct {
	service  CourseService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewCourseHandler(service CourseService, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{service: service, validate: validate, logger: logger}
}

func (h *CourseHandler) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRoadmapRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	course, err := h.service.GenerateRoadmap(r.Context(), req.Topic)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) GenerateModule(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateModuleRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	lesson, err := h.service.GenerateModule(r.Context(), chi.URLParam(r, "courseId"), req.ModuleTitle, req.ModuleDescription)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, lesson)
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
		"message": "Course deleted successfully.",
	})
}
