package service

import (
	"context"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
)

// VideoService serves stateless view count reads and increments for players
// that do not hold a session.
type VideoService struct {
	inc     ViewIncrementer
	sources []ViewCountSource
}

func NewVideoService(inc ViewIncrementer, sources ...ViewCountSource) *VideoService {
	return &VideoService{inc: inc, sources: sources}
}

// ViewCount returns the count from the first source that has the video.
func (s *VideoService) ViewCount(ctx context.Context, videoID string) (int64, error) {
	for _, src := range s.sources {
		n, err := src.FetchViewCount(ctx, videoID)
		if err != nil {
			return 0, classify("fetch view count", err)
		}
		if n != nil {
			return *n, nil
		}
	}
	return 0, ErrNotFound
}

// RecordView adds one view and returns the new count.
func (s *VideoService) RecordView(ctx context.Context, videoID string) (int64, error) {
	n, err := s.inc.IncrementViewCount(ctx, videoID)
	if err != nil {
		metrics.ViewIncrements.WithLabelValues("error").Inc()
		return 0, classify("increment view count", err)
	}
	metrics.ViewIncrements.WithLabelValues("ok").Inc()
	return n, nil
}
