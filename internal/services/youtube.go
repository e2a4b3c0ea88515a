package services

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"coursegen-backend/internal/models"
)

// VideoSearcher looks up videos relevant to a free-text query.
type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int64) ([]models.Video, error)
}

type YouTubeSearch struct {
	svc *youtube.Service
}

func NewYouTubeSearch(ctx context.Context, apiKey string) (*YouTubeSearch, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &YouTubeSearch{svc: svc}, nil
}

// Search returns up to maxResults high-definition videos ordered by relevance.
func (s *YouTubeSearch) Search(ctx context.Context, query string, maxResults int64) ([]models.Video, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		Order("relevance").
		VideoDefinition("high").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("YouTube search error: %w", err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		title := ""
		if item.Snippet != nil {
			title = item.Snippet.Title
		}
		videos = append(videos, models.Video{VideoID: item.Id.VideoId, Title: title})
	}
	return videos, nil
}

// disabledVideoSearch is used when no YouTube API key is configured.
type disabledVideoSearch struct{}

func (disabledVideoSearch) Search(ctx context.Context, query string, maxResults int64) ([]models.Video, error) {
	return nil, fmt.Errorf("video search is not configured")
}

// NewDisabledVideoSearch returns a VideoSearcher that always fails, which the
// provider degrades to an empty result.
func NewDisabledVideoSearch() VideoSearcher {
	return disabledVideoSearch{}
}
