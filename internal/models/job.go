package models

import (
	"github.com/google/uuid"
)

const JobTypeModuleGeneration = "module-generation"

// Job is a queued background generation request.
type Job struct {
	ID                uuid.UUID `json:"id"`
	Type              string    `json:"type"`
	CourseID          uuid.UUID `json:"course_id"`
	ModuleTitle       string    `json:"module_title"`
	ModuleDescription string    `json:"module_description"`
	RetryCount        int       `json:"retry_count"`
}

// WebSocket message types
const (
	EventCourseCreated   = "course_created"
	EventModuleGenerated = "module_generated"
	EventCourseDeleted   = "course_deleted"
	EventJobFailed       = "job_failed"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ModuleGeneratedEvent struct {
	CourseID uuid.UUID `json:"course_id"`
	Lesson   Lesson    `json:"lesson"`
}

type CourseEvent struct {
	CourseID uuid.UUID `json:"course_id"`
	Title    string    `json:"title,omitempty"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	CourseID     uuid.UUID `json:"course_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
