package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"coursegen-backend/internal/models"
)

// ContentProvider produces structured course content. Text operations return
// *ProviderError on transport or parse failure; Videos never fails.
type ContentProvider interface {
	Roadmap(ctx context.Context, topic string) (*RoadmapResult, error)
	ModuleDetail(ctx context.Context, title, description string) (*ModuleDetail, error)
	DeepDive(ctx context.Context, originalText, subTopic string) (*models.DeepDiveResponse, error)
	Quiz(ctx context.Context, lessonTopic string, questionCount int) ([]models.QuizQuestion, error)
	SearchAnswer(ctx context.Context, contextNotes, question string) (*models.SearchAnswerResponse, error)
	Videos(ctx context.Context, query string) []models.Video
}

type RoadmapResult struct {
	Title   string               `json:"title"`
	Roadmap []models.RoadmapItem `json:"roadmap"`
}

// ModuleDetail is a module-detail reply. Flashcards and DeepDiveTopics are
// left raw so malformed values can degrade to empty instead of failing. The
// reply's own title is ignored; lessons keep the requested module title.
type ModuleDetail struct {
	Notes          []string        `json:"-"`
	DeepDiveTopics json.RawMessage `json:"deepDiveTopics"`
	Flashcards     json.RawMessage `json:"flashcards"`
}

type GenerativeProvider struct {
	text      TextGenerator
	videos    VideoSearcher
	maxVideos int64
	logger    zerolog.Logger
}

func NewGenerativeProvider(text TextGenerator, videos VideoSearcher, maxVideos int, logger zerolog.Logger) *GenerativeProvider {
	if maxVideos < 1 {
		maxVideos = 2
	}
	return &GenerativeProvider{
		text:      text,
		videos:    videos,
		maxVideos: int64(maxVideos),
		logger:    logger.With().Str("component", "provider").Logger(),
	}
}

func (p *GenerativeProvider) Roadmap(ctx context.Context, topic string) (*RoadmapResult, error) {
	var reply struct {
		Title   json.RawMessage   `json:"title"`
		Roadmap []json.RawMessage `json:"roadmap"`
	}
	raw, err := p.generateJSON(ctx, "roadmap", buildRoadmapPrompt(topic), &reply)
	if err != nil {
		return nil, err
	}

	res := RoadmapResult{Title: strings.TrimSpace(topic)}
	if title := decodeStringList(reply.Title); len(title) == 1 {
		res.Title = title[0]
	}

	items := make([]models.RoadmapItem, 0, len(reply.Roadmap))
	for _, rawItem := range reply.Roadmap {
		var item models.RoadmapItem
		if json.Unmarshal(rawItem, &item) == nil {
			items = append(items, item)
		}
	}
	res.Roadmap = sanitizeRoadmap(items)
	if len(res.Roadmap) == 0 {
		return nil, p.malformed("roadmap", errors.New("roadmap has no modules"), raw)
	}
	return &res, nil
}

func (p *GenerativeProvider) ModuleDetail(ctx context.Context, title, description string) (*ModuleDetail, error) {
	var reply struct {
		ModuleDetail
		DetailedNotes json.RawMessage `json:"detailedNotes"`
	}
	raw, err := p.generateJSON(ctx, "module", buildModuleDetailPrompt(title, description), &reply)
	if err != nil {
		return nil, err
	}

	detail := reply.ModuleDetail
	detail.Notes = decodeStringList(reply.DetailedNotes)
	if len(detail.Notes) == 0 {
		return nil, p.malformed("module", errors.New("module reply has no notes"), raw)
	}
	return &detail, nil
}

func (p *GenerativeProvider) DeepDive(ctx context.Context, originalText, subTopic string) (*models.DeepDiveResponse, error) {
	var res models.DeepDiveResponse
	raw, err := p.generateJSON(ctx, "deep-dive", buildDeepDivePrompt(originalText, subTopic), &res)
	if err != nil {
		return nil, err
	}
	if isBlank(res.DeeperExplanation) {
		return nil, p.malformed("deep-dive", errors.New("deep-dive reply has no explanation"), raw)
	}
	return &res, nil
}

func (p *GenerativeProvider) SearchAnswer(ctx context.Context, contextNotes, question string) (*models.SearchAnswerResponse, error) {
	var res models.SearchAnswerResponse
	raw, err := p.generateJSON(ctx, "search", buildSearchAnswerPrompt(contextNotes, question), &res)
	if err != nil {
		return nil, err
	}
	if isBlank(res.Answer) {
		return nil, p.malformed("search", errors.New("search reply has no answer"), raw)
	}
	return &res, nil
}

func (p *GenerativeProvider) Quiz(ctx context.Context, lessonTopic string, questionCount int) ([]models.QuizQuestion, error) {
	var msg json.RawMessage
	raw, err := p.generateJSON(ctx, "quiz", buildQuizPrompt(lessonTopic, questionCount), &msg)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Questions []json.RawMessage `json:"questions"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		items = wrapped.Questions
	} else {
		err = json.Unmarshal(trimmed, &items)
	}
	if err != nil {
		return nil, p.malformed("quiz", err, raw)
	}

	questions := decodeQuizQuestions(items)
	if dropped := len(items) - len(questions); dropped > 0 {
		p.logger.Warn().Int("dropped", dropped).Msg("skipped undecodable quiz questions")
	}

	valid := validateQuizQuestions(questions, questionCount)
	if len(valid) == 0 {
		return nil, p.malformed("quiz", errors.New("quiz reply has no valid questions"), raw)
	}
	return valid, nil
}

// Videos returns the top videos for query. Search failures are logged and
// reported as an empty result.
func (p *GenerativeProvider) Videos(ctx context.Context, query string) []models.Video {
	videos, err := p.videos.Search(ctx, query, p.maxVideos)
	if err != nil {
		p.logger.Warn().Err(err).Str("query", query).Msg("video search failed, returning no videos")
		return []models.Video{}
	}
	if videos == nil {
		return []models.Video{}
	}
	return videos
}

func (p *GenerativeProvider) generateJSON(ctx context.Context, op, prompt string, out any) (string, error) {
	raw, err := p.text.Generate(ctx, prompt)
	if err != nil {
		p.logger.Error().Err(err).Str("op", op).Msg("text generation failed")
		return "", &ProviderError{Op: op, Err: err}
	}

	if err := DecodeModelOutput(raw, out); err != nil {
		p.logger.Error().Err(err).Str("op", op).Str("text", truncate(raw, 2000)).Msg("model reply could not be parsed")
		return raw, &ProviderError{Op: op, Err: err}
	}
	return raw, nil
}

func (p *GenerativeProvider) malformed(op string, cause error, raw string) error {
	p.logger.Error().Err(cause).Str("op", op).Str("text", truncate(raw, 2000)).Msg("model reply failed validation")
	return &ProviderError{Op: op, Err: &MalformedContentError{Err: cause, Text: raw}}
}

// sanitizeRoadmap trims titles and drops items with an empty or repeated title.
func sanitizeRoadmap(items []models.RoadmapItem) []models.RoadmapItem {
	seen := make(map[string]bool, len(items))
	out := make([]models.RoadmapItem, 0, len(items))
	for _, item := range items {
		item.Title = strings.TrimSpace(item.Title)
		item.Description = strings.TrimSpace(item.Description)
		if item.Title == "" || seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		out = append(out, item)
	}
	return out
}

// decodeQuizQuestions decodes each element on its own so one wrong-typed
// question does not discard the rest.
func decodeQuizQuestions(items []json.RawMessage) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, 0, len(items))
	for _, item := range items {
		var q models.QuizQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

func validateQuizQuestions(questions []models.QuizQuestion, limit int) []models.QuizQuestion {
	valid := []models.QuizQuestion{}
	for _, q := range questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		if q.Type == "" || strings.EqualFold(q.Type, models.QuestionTypeMCQ) {
			q.Type = models.QuestionTypeMCQ
		}
		if q.Type == models.QuestionTypeMCQ {
			if len(q.Options) != 4 || isBlank(q.CorrectAnswer) {
				continue
			}
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		valid = append(valid, q)
		if limit > 0 && len(valid) == limit {
			break
		}
	}
	return valid
}

// decodeStringList accepts a JSON array of strings or a single string and
// returns the non-blank entries. Anything else yields nil.
func decodeStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if json.Unmarshal(raw, &single) == nil {
		if isBlank(single) {
			return nil
		}
		return []string{strings.TrimSpace(single)}
	}

	var items []any
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || isBlank(s) {
			continue
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
