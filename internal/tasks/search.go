package tasks

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// Search matches device names and definition text across technologies.
// Device name hits come first. An empty query yields no hits.
// Polls: before each of the two sub-queries.
func Search(store database.Searcher, query models.SearchQuery) worker.Task {
	return worker.Func(KindSearch, func(ctx context.Context, r worker.Reporter) (any, error) {
		payload := SearchPayload{Query: query}
		if query.Text == "" {
			r.Progress(100)
			return payload, nil
		}
		r.Status(fmt.Sprintf("Searching for %q...", query.Text))

		if query.Devices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			hits, err := store.SearchDeviceNames(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("failed to search device names: %w", err)
			}
			payload.Hits = append(payload.Hits, hits...)
		}
		r.Progress(50)

		if query.Definitions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			hits, err := store.SearchDefinitions(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("failed to search definitions: %w", err)
			}
			payload.Hits = append(payload.Hits, hits...)
		}

		r.Progress(100)
		r.Status(fmt.Sprintf("Found %d matches", len(payload.Hits)))
		return payload, nil
	})
}
