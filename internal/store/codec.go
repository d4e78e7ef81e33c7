package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robalobadob/cathunt/internal/board"
)

// Stored JSON uses snake_case timestamps (created_at, found_at) and may hold
// numeric item ids, matching boards already in production.
type rowItem struct {
	ID        board.ItemID `json:"id"`
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	Location  string       `json:"location"`
	Found     bool         `json:"found"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
	FoundAt   *time.Time   `json:"found_at,omitempty"`
}

type rowEvent struct {
	Type  string       `json:"type"`
	Delta int          `json:"delta,omitempty"`
	Where string       `json:"where,omitempty"`
	Color string       `json:"color,omitempty"`
	Name  string       `json:"name,omitempty"`
	ID    board.ItemID `json:"id,omitempty"`
	When  *time.Time   `json:"when,omitempty"`
}

func encodeItems(items []board.HiddenItem) (string, error) {
	rows := make([]rowItem, len(items))
	for i, it := range items {
		var created *time.Time
		if !it.CreatedAt.IsZero() {
			t := it.CreatedAt
			created = &t
		}
		rows[i] = rowItem{
			ID:        it.ID,
			Name:      it.Name,
			Color:     it.Color,
			Location:  it.Location,
			Found:     it.Found,
			CreatedAt: created,
			FoundAt:   it.FoundAt,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode hidden items: %w", err)
	}
	return string(b), nil
}

func decodeItems(raw []byte) ([]board.HiddenItem, error) {
	var rows []rowItem
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode hidden items: %w", err)
		}
	}
	items := make([]board.HiddenItem, len(rows))
	for i, r := range rows {
		items[i] = board.HiddenItem{
			ID:       r.ID,
			Name:     r.Name,
			Color:    r.Color,
			Location: r.Location,
			Found:    r.Found,
			FoundAt:  r.FoundAt,
		}
		if r.CreatedAt != nil {
			items[i].CreatedAt = *r.CreatedAt
		}
	}
	return items, nil
}

func encodeHistory(events []board.HistoryEvent) (string, error) {
	rows := make([]rowEvent, len(events))
	for i, e := range events {
		when := e.When
		rows[i] = rowEvent{
			Type:  e.Type,
			Delta: e.Delta,
			Where: e.Where,
			Color: e.Color,
			Name:  e.Name,
			ID:    e.ID,
			When:  &when,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}

func decodeHistory(raw []byte) ([]board.HistoryEvent, error) {
	var rows []rowEvent
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	events := make([]board.HistoryEvent, len(rows))
	for i, r := range rows {
		events[i] = board.HistoryEvent{
			Type:  r.Type,
			Delta: r.Delta,
			Where: r.Where,
			Color: r.Color,
			Name:  r.Name,
			ID:    r.ID,
		}
		if r.When != nil {
			events[i].When = *r.When
		}
	}
	return events, nil
}

// dbTime scans timestamps from either driver: lib/pq yields time.Time, while
// go-sqlite3 yields time.Time or text depending on how the column is read.
type dbTime struct{ time.Time }

var sqliteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = x.UTC()
		return nil
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	}
	return fmt.Errorf("unsupported timestamp type %T", v)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range sqliteLayouts {
		if p, err := time.Parse(layout, s); err == nil {
			t.Time = p.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
