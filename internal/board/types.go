// internal/board/types.go
//
// Core type definitions for the shared hidden-object board.
// Defines:
//   - GameState: the single persisted board document.
//   - HiddenItem: one thing to discover, matched by color/location.
//   - HistoryEvent: one entry of the bounded, newest-first event log.
//   - ItemID: item identifier tolerant of legacy numeric ids.

package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

const (
	// DefaultID is the row id of the one and only board.
	DefaultID = "default"
	// DefaultName is the display name of a freshly seeded board.
	DefaultName = "🐾 Lil Cat Hunt 🐾"
	// HiddenName replaces names a player is not allowed to see yet.
	HiddenName = "Hidden"
	// MaxHistory bounds GameState.History; oldest entries are dropped first.
	MaxHistory = 200
	// MaxNameLen is the maximum gameName length in runes.
	MaxNameLen = 60
)

// History event types.
const (
	EventAdded   = "total+"
	EventFound   = "found+"
	EventDeleted = "delete"
)

// GameState is the board aggregate. Found and Total are derived from
// HiddenItems and are recomputed by Normalize; they are never trusted as input.
type GameState struct {
	ID          string         `json:"id"`
	GameName    string         `json:"gameName"`
	Found       int            `json:"found"`
	Total       int            `json:"total"`
	HiddenItems []HiddenItem   `json:"hiddenItems"`
	History     []HistoryEvent `json:"history"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// HiddenItem is a single hidden object.
type HiddenItem struct {
	ID        ItemID     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Location  string     `json:"location"`
	Found     bool       `json:"found"`
	CreatedAt time.Time  `json:"createdAt"`
	FoundAt   *time.Time `json:"foundAt,omitempty"`
}

// HistoryEvent records one mutation of the board.
type HistoryEvent struct {
	Type  string    `json:"type"`
	Delta int       `json:"delta,omitempty"`
	Where string    `json:"where,omitempty"`
	Color string    `json:"color,omitempty"`
	Name  string    `json:"name,omitempty"`
	ID    ItemID    `json:"id,omitempty"`
	When  time.Time `json:"when"`
}

// ItemID identifies a HiddenItem. New ids are strings; boards written by the
// old frontend carry millisecond timestamps as JSON numbers, so both forms
// decode to the same string value.
type ItemID string

// UnmarshalJSON accepts a JSON string or an integral JSON number.
func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("item id must be a string or a number")
	}
	if i, err := n.Int64(); err == nil {
		*id = ItemID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ItemID(n.String())
	return nil
}

// text decodes any JSON scalar into a string. Strings are taken as is,
// non-zero numbers and true keep their literal form, and null, false and 0
// read as empty. Objects and arrays are rejected.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*t = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	case bytes.Equal(b, []byte("true")):
		*t = "true"
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("expected a string, number or boolean")
	}
	if f, err := n.Float64(); err == nil && f == 0 {
		*t = ""
		return nil
	}
	*t = text(n.String())
	return nil
}

// NewState returns an empty board with the given id and name.
func NewState(id, name string) GameState {
	if id == "" {
		id = DefaultID
	}
	if name == "" {
		name = DefaultName
	}
	return GameState{
		ID:          id,
		GameName:    name,
		HiddenItems: []HiddenItem{},
		History:     []HistoryEvent{},
	}
}

// Clone returns a deep copy of s that shares no slices or pointers with it.
func (s GameState) Clone() GameState {
	out := s
	out.HiddenItems = make([]HiddenItem, len(s.HiddenItems))
	for i, it := range s.HiddenItems {
		if it.FoundAt != nil {
			t := *it.FoundAt
			it.FoundAt = &t
		}
		out.HiddenItems[i] = it
	}
	out.History = make([]HistoryEvent, len(s.History))
	copy(out.History, s.History)
	return out
}
