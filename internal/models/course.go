package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID             uuid.UUID     `json:"id"`
	Title          string        `json:"title"`
	OriginalPrompt string        `json:"originalPrompt"`
	Roadmap        []RoadmapItem `json:"roadmap"`
	Lessons        []Lesson      `json:"lessons"`
	CreatedAt      time.Time     `json:"createdAt"`
}

type RoadmapItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Lesson struct {
	Title          string      `json:"title"`
	Notes          []string    `json:"notes"`
	DeepDiveTopics []string    `json:"deepDiveTopics"`
	Flashcards     []Flashcard `json:"flashcards"`
	YouTubeVideos  []Video     `json:"youtubeVideos"`
	IsGenerated    bool        `json:"isGenerated"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type Video struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
}

// NewCourse builds a course with one ungenerated lesson stub per roadmap item.
func NewCourse(title, prompt string, roadmap []RoadmapItem) *Course {
	c := &Course{
		ID:             uuid.New(),
		Title:          title,
		OriginalPrompt: prompt,
		Roadmap:        roadmap,
		Lessons:        make([]Lesson, 0, len(roadmap)),
		CreatedAt:      time.Now().UTC(),
	}
	for _, item := range roadmap {
		c.Lessons = append(c.Lessons, NewLessonStub(item.Title))
	}
	return c
}

func NewLessonStub(title string) Lesson {
	return Lesson{
		Title:          title,
		Notes:          []string{},
		DeepDiveTopics: []string{},
		Flashcards:     []Flashcard{},
		YouTubeVideos:  []Video{},
	}
}

// FindLesson returns the lesson with the given title, if any.
func (c *Course) FindLesson(title string) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Title == title {
			return l, true
		}
	}
	return Lesson{}, false
}

// FindRoadmapItem returns the roadmap entry with the given title, if any.
func (c *Course) FindRoadmapItem(title string) (RoadmapItem, bool) {
	for _, item := range c.Roadmap {
		if item.Title == title {
			return item, true
		}
	}
	return RoadmapItem{}, false
}

// UpsertLesson overwrites the lesson stored under title in place, or appends
// it when no lesson carries that title yet.
func UpsertLesson(lessons []Lesson, title string, lesson Lesson) []Lesson {
	for i := range lessons {
		if lessons[i].Title == title {
			lessons[i] = lesson
			return lessons
		}
	}
	return append(lessons, lesson)
}

// Normalize replaces nil slices with empty ones so lessons always encode as
// arrays, never null.
func (l *Lesson) Normalize() {
	if l.Notes == nil {
		l.Notes = []string{}
	}
	if l.DeepDiveTopics == nil {
		l.DeepDiveTopics = []string{}
	}
	if l.Flashcards == nil {
		l.Flashcards = []Flashcard{}
	}
	if l.YouTubeVideos == nil {
		l.YouTubeVideos = []Video{}
	}
}
