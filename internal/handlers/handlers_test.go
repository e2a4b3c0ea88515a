package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursegen-backend/internal/models"
	"coursegen-backend/internal/services"
)

type stubCourseService struct {
	course  *models.Course
	lesson  *models.Lesson
	quiz    []models.QuizQuestion
	videos  []models.Video
	err     error
	calls   int
	lastArg []string
}

func (s *stubCourseService) record(args ...string) {
	s.calls++
	s.lastArg = args
}

func (s *stubCourseService) GenerateRoadmap(ctx context.Context, topic string) (*models.Course, error) {
	s.record(topic)
	return s.course, s.err
}

func (s *stubCourseService) GenerateModule(ctx context.Context, courseID, moduleTitle, moduleDescription string) (*models.Lesson, error) {
	s.record(courseID, moduleTitle, moduleDescription)
	return s.lesson, s.err
}

func (s *stubCourseService) DeepDive(ctx context.Context, originalText, subTopic string) (*models.DeepDiveResponse, error) {
	s.record(originalText, subTopic)
	if s.err != nil {
		return nil, s.err
	}
	return &models.DeepDiveResponse{DeeperExplanation: "deeper"}, nil
}

func (s *stubCourseService) SearchModule(ctx context.Context, contextNotes, userQuestion string) (*models.SearchAnswerResponse, error) {
	s.record(contextNotes, userQuestion)
	if s.err != nil {
		return nil, s.err
	}
	return &models.SearchAnswerResponse{Answer: "42"}, nil
}

func (s *stubCourseService) FetchVideos(ctx context.Context, query string) ([]models.Video, error) {
	s.record(query)
	return s.videos, s.err
}

func (s *stubCourseService) GenerateQuiz(ctx context.Context, lessonTopic string, questionCount int) ([]models.QuizQuestion, error) {
	s.record(lessonTopic)
	return s.quiz, s.err
}

func (s *stubCourseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	s.record()
	if s.course == nil {
		return []*models.Course{}, s.err
	}
	return []*models.Course{s.course}, s.err
}

func (s *stubCourseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	s.record(courseID)
	return s.course, s.err
}

func (s *stubCourseService) DeleteCourse(ctx context.Context, courseID string) (bool, error) {
	s.record(courseID)
	if s.err != nil {
		return false, s.err
	}
	return true, nil
}

func newTestHandler(svc *stubCourseService) *CourseHandler {
	return NewCourseHandler(svc, NewValidator(), zerolog.Nop())
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestGenerateRoadmap_Created(t *testing.T) {
	course := models.NewCourse("Go", "learn go", []models.RoadmapItem{{Title: "Basics", Description: "syntax"}})
	svc := &stubCourseService{course: course}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roadmap", strings.NewReader(`{"topic":"learn go"}`))
	rr := httptest.NewRecorder()
	h.GenerateRoadmap(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"learn go"}, svc.lastArg)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Go", got["title"])
	assert.Equal(t, "learn go", got["originalPrompt"])
	lessons := got["lessons"].([]interface{})
	require.Len(t, lessons, 1)
	assert.Equal(t, false, lessons[0].(map[string]interface{})["isGenerated"])
}

func TestGenerateRoadmap_ValidationSkipsService(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing topic", `{}`, "topic"},
		{"empty topic", `{"topic":""}`, "topic"},
		{"malformed body", `{"topic":`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCourseService{}
			h := newTestHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roadmap", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.GenerateRoadmap(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			apiErr := decodeError(t, rr)
			assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
			if tc.field != "" {
				assert.Equal(t, "is required", apiErr.Fields[tc.field])
			}
			assert.Zero(t, svc.calls)
		})
	}
}

func TestGenerateModule_PassesCourseIDFromPath(t *testing.T) {
	courseID := uuid.NewString()
	svc := &stubCourseService{lesson: &models.Lesson{
		Title:          "Basics",
		Notes:          []string{"p1"},
		DeepDiveTopics: []string{},
		Flashcards:     []models.Flashcard{},
		YouTubeVideos:  []models.Video{},
		IsGenerated:    true,
	}}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/"+courseID+"/generate-module",
		strings.NewReader(`{"moduleTitle":"Basics","moduleDescription":"syntax"}`))
	req = withURLParam(req, "courseId", courseID)
	rr := httptest.NewRecorder()
	h.GenerateModule(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{courseID, "Basics", "syntax"}, svc.lastArg)
	assert.Contains(t, rr.Body.String(), `"isGenerated":true`)
	assert.Contains(t, rr.Body.String(), `"flashcards":[]`)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", &services.NotFoundError{Message: "Course not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"validation", &services.ValidationError{Fields: map[string]string{"moduleTitle": "is required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"provider", &services.ProviderError{Op: "module", Err: errors.New("quota exceeded")}, http.StatusBadGateway, "GENERATION_FAILED"},
		{"malformed", &services.ProviderError{Op: "module", Err: &services.MalformedContentError{Err: errors.New("bad"), Text: "x"}}, http.StatusBadGateway, "GENERATION_FAILED"},
		{"wrapped store failure", errors.New("course store error: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCourseService{err: tc.err}
			h := newTestHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/x/generate-module", strings.NewReader(`{"moduleTitle":"Basics"}`))
			req = withURLParam(req, "courseId", "x")
			rr := httptest.NewRecorder()
			h.GenerateModule(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.code, decodeError(t, rr).Code)
		})
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	svc := &stubCourseService{err: &services.NotFoundError{Message: "Course not found"}}
	h := newTestHandler(svc)

	id := uuid.NewString()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/courses/"+id, nil), "id", id)
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, "Course not found", apiErr.Message)
	assert.Equal(t, []string{id}, svc.lastArg)
}

func TestListCourses_EmptyIsArray(t *testing.T) {
	h := newTestHandler(&stubCourseService{})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestDeleteCourse(t *testing.T) {
	id := uuid.NewString()

	h := newTestHandler(&stubCourseService{})
	rr := httptest.NewRecorder()
	h.Delete(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/courses/"+id, nil), "id", id))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"deleted":true`)

	h = newTestHandler(&stubCourseService{err: &services.NotFoundError{Message: "Course not found"}})
	rr = httptest.NewRecorder()
	h.Delete(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/courses/"+id, nil), "id", id))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEnrichmentEndpoints(t *testing.T) {
	svc := &stubCourseService{
		videos: []models.Video{{VideoID: "abc123def45", Title: "Intro"}},
		quiz: []models.QuizQuestion{{
			Type: "MCQ", Question: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a",
		}},
	}
	h := newTestHandler(svc)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		want    string
	}{
		{"deep dive", h.DeepDive, `{"originalText":"notes","subTopic":"closures"}`, `{"deeperExplanation":"deeper"}`},
		{"search", h.SearchModule, `{"contextNotes":"notes","userQuestion":"why?"}`, `{"answer":"42"}`},
		{"videos", h.FetchVideos, `{"query":"go tutorial"}`, `[{"videoId":"abc123def45","title":"Intro"}]`},
		{"quiz", h.GenerateQuiz, `{"lessonTopic":"Go","questionCount":1}`, `[{"type":"MCQ","question":"Q?","options":["a","b","c","d"],"correctAnswer":"a"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.handler(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, tc.want, rr.Body.String())
		})
	}
}

func TestGenerateQuiz_QuestionCountBounds(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"zero", `{"lessonTopic":"Go","questionCount":0}`, "is required"},
		{"too many", `{"lessonTopic":"Go","questionCount":50}`, "must be at most 20"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCourseService{}
			h := newTestHandler(svc)

			rr := httptest.NewRecorder()
			h.GenerateQuiz(rr, httptest.NewRequest(http.MethodPost, "/api/v1/generate-quiz", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.msg, decodeError(t, rr).Fields["questionCount"])
			assert.Zero(t, svc.calls)
		})
	}
}

func TestErrorResp_UsesRequestIDHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")

	resp := errorResp("NOT_FOUND", "missing", req)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
