package database

import (
	"context"
	"strings"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// Search looks for query.Text in device names and definition text across all
// technologies. Device hits come first, then definition hits, each ordered
// by technology and device name. A definition hit carries the line that
// contains the first match as its context.
func (s *Store) Search(ctx context.Context, query models.SearchQuery) ([]models.SearchHit, error) {
	if query.Text == "" {
		return nil, nil
	}

	var hits []models.SearchHit
	err := s.read(ctx, "search", func(q querier) error {
		if query.Devices {
			deviceHits, err := searchDeviceNames(ctx, q, query)
			if err != nil {
				return err
			}
			hits = append(hits, deviceHits...)
		}
		if query.Definitions {
			if err := ctx.Err(); err != nil {
				return err
			}
			defHits, err := searchDefinitions(ctx, q, query)
			if err != nil {
				return err
			}
			hits = append(hits, defHits...)
		}
		return nil
	})
	return hits, err
}

// SearchDeviceNames runs only the device name half of Search
func (s *Store) SearchDeviceNames(ctx context.Context, query models.SearchQuery) ([]models.SearchHit, error) {
	if query.Text == "" {
		return nil, nil
	}
	var hits []models.SearchHit
	err := s.read(ctx, "search device names", func(q querier) error {
		var err error
		hits, err = searchDeviceNames(ctx, q, query)
		return err
	})
	return hits, err
}

// SearchDefinitions runs only the definition text half of Search
func (s *Store) SearchDefinitions(ctx context.Context, query models.SearchQuery) ([]models.SearchHit, error) {
	if query.Text == "" {
		return nil, nil
	}
	var hits []models.SearchHit
	err := s.read(ctx, "search definitions", func(q querier) error {
		var err error
		hits, err = searchDefinitions(ctx, q, query)
		return err
	})
	return hits, err
}

// matchExpr builds a substring predicate. instr is used instead of LIKE
// because LIKE ignores ASCII case and treats % and _ as wildcards.
func matchExpr(column string, caseSensitive bool) string {
	if caseSensitive {
		return "instr(" + column + ", ?) > 0"
	}
	return "instr(lower(" + column + "), lower(?)) > 0"
}

func searchDeviceNames(ctx context.Context, q querier, query models.SearchQuery) ([]models.SearchHit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT d.id, d.name, t.id, t.name
		FROM devices d
		INNER JOIN technologies t ON t.id = d.technology_id
		WHERE `+matchExpr("d.name", query.CaseSensitive)+`
		ORDER BY t.name, d.name
	`, query.Text)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		hit := models.SearchHit{Kind: models.MatchDeviceName}
		if err := rows.Scan(&hit.DeviceID, &hit.DeviceName, &hit.TechnologyID, &hit.TechnologyName); err != nil {
			return nil, err
		}
		hit.Context = hit.DeviceName
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

func searchDefinitions(ctx context.Context, q querier, query models.SearchQuery) ([]models.SearchHit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT d.id, d.name, t.id, t.name, def.definition_text
		FROM definitions def
		INNER JOIN devices d ON d.id = def.device_id
		INNER JOIN technologies t ON t.id = d.technology_id
		WHERE `+matchExpr("def.definition_text", query.CaseSensitive)+`
		ORDER BY t.name, d.name
	`, query.Text)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var text string
		hit := models.SearchHit{Kind: models.MatchDefinition}
		if err := rows.Scan(&hit.DeviceID, &hit.DeviceName, &hit.TechnologyID, &hit.TechnologyName, &text); err != nil {
			return nil, err
		}
		line, ok := MatchLine(text, query.Text, query.CaseSensitive)
		if !ok {
			// SQLite lower() only folds ASCII; skip rows Go disagrees on
			continue
		}
		hit.Context = line
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// MatchLine returns the full line of text holding the first occurrence of
// needle.
func MatchLine(text, needle string, caseSensitive bool) (string, bool) {
	haystack := text
	if !caseSensitive {
		haystack = strings.ToLower(text)
		needle = strings.ToLower(needle)
	}

	pos := strings.Index(haystack, needle)
	if pos < 0 {
		return "", false
	}

	// Lowering may change byte offsets but never the number of newlines
	lineNo := strings.Count(haystack[:pos], "\n")
	return strings.Split(text, "\n")[lineNo], true
}
