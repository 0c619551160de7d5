package service

import (
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// SourceRows is the output of one content source.
type SourceRows struct {
	Tag  string
	Rows []model.SourceRow
}

// Merge combines sources into one feed. Sources are visited in the order
// given (highest priority first); a row whose dedup key was already emitted
// is dropped whole, with no field-level merge. Output keeps first-seen order.
// Rows with empty titles share one key, so at most one of them survives.
func Merge(sources ...SourceRows) []model.ContentItem {
	seen := make(map[string]struct{})
	out := make([]model.ContentItem, 0)
	for _, src := range sources {
		for _, row := range src.Rows {
			item := row.ContentItem()
			key := model.DedupKey(item.Title)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
