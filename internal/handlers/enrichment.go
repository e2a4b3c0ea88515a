package handlers

import (
	"net/http"

	"coursegen-backend/internal/models"
)

// The enrichment endpoints are stateless: nothing they return is stored.

func (h *CourseHandler) DeepDive(w http.ResponseWriter, r *http.Request) {
	var req models.DeepDiveRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.service.DeepDive(r.Context(), req.OriginalText, req.SubTopic)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *CourseHandler) SearchModule(w http.ResponseWriter, r *http.Request) {
	var req models.SearchModuleRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.service.SearchModule(r.Context(), req.ContextNotes, req.UserQuestion)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *CourseHandler) FetchVideos(w http.ResponseWriter, r *http.Request) {
	var req models.FetchVideosRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	videos, err := h.service.FetchVideos(r.Context(), req.Query)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, videos)
}

func (h *CourseHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	questions, err := h.service.GenerateQuiz(r.Context(), req.LessonTopic, req.QuestionCount)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}
