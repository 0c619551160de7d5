package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
	"github.com/LiveStak-Brad/mylivelinks-sub002/pkg/hash"
)

// FeedResult is a merged feed plus the sources that could not be read.
type FeedResult struct {
	Items         []model.ContentItem
	FailedSources []string
}

// FeedService builds the merged content feed of a profile.
type FeedService struct {
	sources []ContentSource
	cache   *FeedCache
	log     zerolog.Logger
}

// NewFeedService merges sources in the order given. cache may be nil.
func NewFeedService(cache *FeedCache, logger zerolog.Logger, sources ...ContentSource) *FeedService {
	return &FeedService{
		sources: sources,
		cache:   cache,
		log:     logger.With().Str("component", "feed").Logger(),
	}
}

// Feed fetches every source concurrently and merges them in priority order.
// A failing source is skipped and reported in FailedSources; an error is
// returned only when every source failed. Complete feeds are cached.
func (s *FeedService) Feed(ctx context.Context, ownerID string) (FeedResult, error) {
	key := s.cacheKey(ownerID)
	if items, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("feed cache read failed")
	} else if ok {
		return FeedResult{Items: items}, nil
	}

	rows := make([]SourceRows, len(s.sources))
	errs := make([]error, len(s.sources))
	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			r, err := src.FetchRows(ctx, ownerID)
			if err != nil {
				errs[i] = classify("fetch "+src.Tag(), err)
				return nil
			}
			rows[i] = SourceRows{Tag: src.Tag(), Rows: r}
			return nil
		})
	}
	_ = g.Wait()

	var (
		res    FeedResult
		usable []SourceRows
	)
	for i, src := range s.sources {
		if errs[i] != nil {
			res.FailedSources = append(res.FailedSources, src.Tag())
			s.log.Warn().Err(errs[i]).Str("source", src.Tag()).Str("owner_id", ownerID).Msg("content source failed")
			continue
		}
		usable = append(usable, rows[i])
	}
	res.Items = Merge(usable...)

	if len(s.sources) > 0 && len(usable) == 0 {
		return res, errors.Join(errs...)
	}
	if len(res.FailedSources) == 0 {
		if err := s.cache.Set(ctx, key, res.Items); err != nil {
			s.log.Warn().Err(err).Msg("feed cache write failed")
		}
	}
	return res, nil
}

// Invalidate drops the cached feed of ownerID.
func (s *FeedService) Invalidate(ctx context.Context, ownerID string) error {
	return s.cache.Invalidate(ctx, s.cacheKey(ownerID))
}

func (s *FeedService) cacheKey(ownerID string) string {
	parts := make([]string, 0, len(s.sources)+1)
	parts = append(parts, ownerID)
	for _, src := range s.sources {
		parts = append(parts, src.Tag())
	}
	return "feed:" + hash.Key(parts...)
}
