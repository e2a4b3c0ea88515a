package models

const QuestionTypeMCQ = "MCQ"

type QuizQuestion struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type GenerateQuizRequest struct {
	LessonTopic   string `json:"lessonTopic" validate:"required"`
	QuestionCount int    `json:"questionCount" validate:"required,min=1,max=20"`
}
