package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"coursegen-backend/internal/models"
	"coursegen-backend/internal/repository"
)

// CourseStore persists course aggregates.
type CourseStore interface {
	Create(ctx context.Context, title, prompt string, roadmap []models.RoadmapItem) (*models.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	ReplaceLesson(ctx context.Context, courseID uuid.UUID, title string, lesson models.Lesson) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// EventPublisher fans course events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, courseID uuid.UUID, msg models.WSMessage)
}

// ModuleQueue accepts background module-generation jobs.
type ModuleQueue interface {
	Enqueue(ctx context.Context, job *models.Job) error
}

// CourseService runs the generation pipeline: roadmap creation, cached
// per-module expansion and the uncached enrichments.
type CourseService struct {
	store    CourseStore
	provider ContentProvider
	events   EventPublisher
	queue    ModuleQueue
	inflight singleflight.Group
	logger   zerolog.Logger
}

func NewCourseService(store CourseStore, provider ContentProvider, events EventPublisher, logger zerolog.Logger) *CourseService {
	if events == nil {
		events = noopPublisher{}
	}
	return &CourseService{
		store:    store,
		provider: provider,
		events:   events,
		logger:   logger.With().Str("component", "course_service").Logger(),
	}
}

// EnablePrefetch makes GenerateRoadmap queue a generation job for every module
// of a new course.
func (s *CourseService) EnablePrefetch(q ModuleQueue) {
	s.queue = q
}

func (s *CourseService) GenerateRoadmap(ctx context.Context, topic string) (*models.Course, error) {
	if err := requireFields(map[string]string{"topic": topic}); err != nil {
		return nil, err
	}

	res, err := s.provider.Roadmap(ctx, topic)
	if err != nil {
		return nil, err
	}

	course, err := s.store.Create(ctx, res.Title, topic, res.Roadmap)
	if err != nil {
		return nil, fmt.Errorf("failed to save course: %w", err)
	}

	s.logger.Info().
		Str("course_id", course.ID.String()).
		Str("topic", topic).
		Int("modules", len(course.Roadmap)).
		Msg("roadmap created")

	s.events.Publish(ctx, course.ID, models.WSMessage{
		Type:    models.EventCourseCreated,
		Payload: models.CourseEvent{CourseID: course.ID, Title: course.Title},
	})

	if s.queue != nil {
		s.prefetch(ctx, course)
	}

	return course, nil
}

func (s *CourseService) prefetch(ctx context.Context, course *models.Course) {
	for _, item := range course.Roadmap {
		job := &models.Job{
			ID:                uuid.New(),
			Type:              models.JobTypeModuleGeneration,
			CourseID:          course.ID,
			ModuleTitle:       item.Title,
			ModuleDescription: item.Description,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Warn().Err(err).
				Str("course_id", course.ID.String()).
				Str("module", item.Title).
				Msg("failed to queue module prefetch")
		}
	}
}

// GenerateModule returns the lesson for moduleTitle, generating and storing it
// on first request. Once a lesson is generated it is served from the store
// without calling the provider again. Concurrent first requests for the same
// module in this process share one provider call.
func (s *CourseService) GenerateModule(ctx context.Context, courseID, moduleTitle, moduleDescription string) (*models.Lesson, error) {
	if err := requireFields(map[string]string{"courseId": courseID, "moduleTitle": moduleTitle}); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(courseID)
	if err != nil {
		return nil, &NotFoundError{Message: "Course not found"}
	}

	key := id.String() + "\x00" + moduleTitle
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		return s.generateModule(context.WithoutCancel(ctx), id, moduleTitle, moduleDescription)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		lesson := res.Val.(models.Lesson)
		return &lesson, nil
	}
}

func (s *CourseService) generateModule(ctx context.Context, courseID uuid.UUID, title, description string) (models.Lesson, error) {
	course, err := s.store.GetByID(ctx, courseID)
	if err != nil {
		return models.Lesson{}, s.storeError(err)
	}

	if existing, ok := course.FindLesson(title); ok && existing.IsGenerated {
		existing.Normalize()
		return existing, nil
	}

	if isBlank(description) {
		if item, ok := course.FindRoadmapItem(title); ok {
			description = item.Description
		}
	}

	detail, err := s.provider.ModuleDetail(ctx, title, description)
	if err != nil {
		return models.Lesson{}, err
	}

	flashcards, ok := validateFlashcards(detail.Flashcards)
	if !ok {
		s.logger.Warn().
			Str("course_id", courseID.String()).
			Str("module", title).
			Msg("malformed flashcards from model, storing none")
	}

	lesson := models.Lesson{
		Title:          title,
		Notes:          detail.Notes,
		DeepDiveTopics: decodeStringList(detail.DeepDiveTopics),
		Flashcards:     flashcards,
		YouTubeVideos:  []models.Video{},
		IsGenerated:    true,
	}
	lesson.Normalize()

	if err := s.store.ReplaceLesson(ctx, courseID, title, lesson); err != nil {
		return models.Lesson{}, s.storeError(err)
	}

	s.logger.Info().
		Str("course_id", courseID.String()).
		Str("module", title).
		Int("paragraphs", len(lesson.Notes)).
		Int("flashcards", len(lesson.Flashcards)).
		Msg("module generated")

	s.events.Publish(ctx, courseID, models.WSMessage{
		Type:    models.EventModuleGenerated,
		Payload: models.ModuleGeneratedEvent{CourseID: courseID, Lesson: lesson},
	})

	return lesson, nil
}

func (s *CourseService) DeepDive(ctx context.Context, originalText, subTopic string) (*models.DeepDiveResponse, error) {
	if err := requireFields(map[string]string{"originalText": originalText, "subTopic": subTopic}); err != nil {
		return nil, err
	}
	return s.provider.DeepDive(ctx, originalText, subTopic)
}

func (s *CourseService) SearchModule(ctx context.Context, contextNotes, userQuestion string) (*models.SearchAnswerResponse, error) {
	if err := requireFields(map[string]string{"contextNotes": contextNotes, "userQuestion": userQuestion}); err != nil {
		return nil, err
	}
	return s.provider.SearchAnswer(ctx, contextNotes, userQuestion)
}

func (s *CourseService) FetchVideos(ctx context.Context, query string) ([]models.Video, error) {
	if err := requireFields(map[string]string{"query": query}); err != nil {
		return nil, err
	}
	return s.provider.Videos(ctx, query), nil
}

func (s *CourseService) GenerateQuiz(ctx context.Context, lessonTopic string, questionCount int) ([]models.QuizQuestion, error) {
	if err := requireFields(map[string]string{"lessonTopic": lessonTopic}); err != nil {
		return nil, err
	}
	if questionCount < 1 {
		return nil, &ValidationError{Fields: map[string]string{"questionCount": "must be at least 1"}}
	}
	return s.provider.Quiz(ctx, lessonTopic, questionCount)
}

func (s *CourseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return courses, nil
}

func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	id, err := uuid.Parse(courseID)
	if err != nil {
		return nil, &NotFoundError{Message: "Course not found"}
	}
	course, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	return course, nil
}

// DeleteCourse removes the course and all its lessons. Unknown ids report a
// *NotFoundError.
func (s *CourseService) DeleteCourse(ctx context.Context, courseID string) (bool, error) {
	id, err := uuid.Parse(courseID)
	if err != nil {
		return false, &NotFoundError{Message: "Course not found"}
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete course: %w", err)
	}
	if !deleted {
		return false, &NotFoundError{Message: "Course not found"}
	}

	s.logger.Info().Str("course_id", id.String()).Msg("course deleted")
	s.events.Publish(ctx, id, models.WSMessage{
		Type:    models.EventCourseDeleted,
		Payload: models.CourseEvent{CourseID: id},
	})
	return true, nil
}

func (s *CourseService) storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: "Course not found"}
	}
	return fmt.Errorf("course store error: %w", err)
}

// validateFlashcards accepts only a JSON array whose every element is an
// object with non-empty string "front" and "back" fields. Anything else
// yields an empty set and ok == false.
func validateFlashcards(raw json.RawMessage) ([]models.Flashcard, bool) {
	if len(raw) == 0 {
		return []models.Flashcard{}, false
	}

	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []models.Flashcard{}, false
	}

	cards := make([]models.Flashcard, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return []models.Flashcard{}, false
		}
		front, _ := obj["front"].(string)
		back, _ := obj["back"].(string)
		if isBlank(front) || isBlank(back) {
			return []models.Flashcard{}, false
		}
		cards = append(cards, models.Flashcard{Front: front, Back: back})
	}
	return cards, true
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, courseID uuid.UUID, msg models.WSMessage) {}
