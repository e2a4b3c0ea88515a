package models

type GenerateRoadmapRequest struct {
	Topic string `json:"topic" validate:"required"`
}

type GenerateModuleRequest struct {
	ModuleTitle       string `json:"moduleTitle" validate:"required"`
	ModuleDescription string `json:"moduleDescription"`
}

type DeepDiveRequest struct {
	OriginalText string `json:"originalText" validate:"required"`
	SubTopic     string `json:"subTopic" validate:"required"`
}

type DeepDiveResponse struct {
	DeeperExplanation string `json:"deeperExplanation"`
}

type SearchModuleRequest struct {
	ContextNotes string `json:"contextNotes" validate:"required"`
	UserQuestion string `json:"userQuestion" validate:"required"`
}

type SearchAnswerResponse struct {
	Answer string `json:"answer"`
}

type FetchVideosRequest struct {
	Query string `json:"query" validate:"required"`
}
