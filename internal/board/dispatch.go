// internal/board/dispatch.go
//
// Action dispatcher for the shared board.
// Responsibilities:
//   - Gate admin-only actions before the store is touched.
//   - Validate the per-action input schema.
//   - Run load → normalize → mutate → normalize → save → mask.
//
// Notes:
//   - The read-modify-write cycle is not serialized. Two concurrent writers
//     can both read the same board and the last Save wins for the whole row.
//   - A failure before Save leaves the stored board untouched.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions accepted by Dispatcher.Apply.
const (
	ActionAddHidden    = "addHidden"
	ActionDeleteItem   = "deleteCat"
	ActionClearHistory = "clearHistory"
	ActionRenameGame   = "renameGame"
	ActionFound        = "found"
)

// adminOnly lists every known action and whether it needs an admin caller.
var adminOnly = map[string]bool{
	ActionAddHidden:    true,
	ActionDeleteItem:   true,
	ActionClearHistory: true,
	ActionRenameGame:   true,
	ActionFound:        false,
}

// Store persists the board. Load returns the board, creating the default one
// if it does not exist yet. Save upserts s and returns the stored row.
type Store interface {
	Load(ctx context.Context) (GameState, error)
	Save(ctx context.Context, s GameState) (GameState, error)
}

// Request is the POST body: an action name plus the fields that action uses.
// Fields an action does not use are ignored.
type Request struct {
	Action   string `json:"action"`
	Color    string `json:"color"`
	Location string `json:"location"`
	Name     string `json:"name"`
	ID       ItemID `json:"id"`
}

// UnmarshalJSON accepts any JSON scalar for the text fields, so a client
// sending "color": 7 matches an item whose color is "7".
func (r *Request) UnmarshalJSON(b []byte) error {
	var w struct {
		Action   text   `json:"action"`
		Color    text   `json:"color"`
		Location text   `json:"location"`
		Name     text   `json:"name"`
		ID       ItemID `json:"id"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Request{
		Action:   string(w.Action),
		Color:    string(w.Color),
		Location: string(w.Location),
		Name:     string(w.Name),
		ID:       w.ID,
	}
	return nil
}

// Dispatcher resolves actions against the board held by a Store.
type Dispatcher struct {
	store Store
	now   func() time.Time
	newID func() ItemID
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source used for createdAt/foundAt/when stamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithIDs overrides the hidden item id generator.
func WithIDs(next func() ItemID) Option {
	return func(d *Dispatcher) { d.newID = next }
}

// NewDispatcher returns a Dispatcher backed by st.
func NewDispatcher(st Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: st, now: time.Now, newID: newItemID}
	for _, o := range opts {
		o(d)
	}
	return d
}

// View returns the current board as seen by the caller.
func (d *Dispatcher) View(ctx context.Context, isAdmin bool) (GameState, error) {
	s, err := d.store.Load(ctx)
	if err != nil {
		return GameState{}, err
	}
	return Mask(Normalize(s), isAdmin), nil
}

// Apply runs req against the board and returns the stored result as seen by
// the caller. Gating, unknown actions and input validation are checked before
// the store is read.
func (d *Dispatcher) Apply(ctx context.Context, isAdmin bool, req Request) (GameState, error) {
	needsAdmin, known := adminOnly[req.Action]
	if !known {
		return GameState{}, ErrUnknownAction
	}
	if needsAdmin && !isAdmin {
		return GameState{}, ErrAdminRequired
	}
	req = cleanRequest(req)
	if err := validate(req); err != nil {
		return GameState{}, err
	}

	s, err := d.store.Load(ctx)
	if err != nil {
		return GameState{}, err
	}
	s = Normalize(s)
	if err := d.mutate(&s, req); err != nil {
		return GameState{}, err
	}
	saved, err := d.store.Save(ctx, Normalize(s))
	if err != nil {
		return GameState{}, err
	}
	return Mask(Normalize(saved), isAdmin), nil
}

// mutate applies a validated request to s in place.
func (d *Dispatcher) mutate(s *GameState, req Request) error {
	now := d.now().UTC()

	switch req.Action {
	case ActionAddHidden:
		name := req.Name
		if name == "" {
			name = HiddenName
		}
		it := HiddenItem{
			ID:        d.uniqueID(s.HiddenItems),
			Name:      name,
			Color:     req.Color,
			Location:  req.Location,
			CreatedAt: now,
		}
		s.HiddenItems = append(s.HiddenItems, it)
		s.History = pushHistory(s.History, HistoryEvent{
			Type: EventAdded, Delta: 1, Where: it.Location, Color: it.Color, Name: it.Name, When: now,
		})

	case ActionDeleteItem:
		idx := -1
		for i, it := range s.HiddenItems {
			if req.ID != "" && it.ID == req.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrItemNotFound
		}
		s.HiddenItems = append(s.HiddenItems[:idx:idx], s.HiddenItems[idx+1:]...)
		s.History = pushHistory(s.History, HistoryEvent{Type: EventDeleted, ID: req.ID, When: now})

	case ActionClearHistory:
		s.History = []HistoryEvent{}

	case ActionRenameGame:
		if req.Name != "" {
			s.GameName = truncateRunes(req.Name, MaxNameLen)
		}

	case ActionFound:
		idx, ok := Resolve(s.HiddenItems, req.Color, req.Location)
		if !ok {
			return ErrNoCandidate
		}
		it := &s.HiddenItems[idx]
		it.Found = true
		it.FoundAt = &now
		s.History = pushHistory(s.History, HistoryEvent{
			Type: EventFound, Delta: 1, Where: it.Location, Color: it.Color, Name: it.Name, When: now,
		})
	}
	return nil
}

// uniqueID draws ids until one is not used by items.
func (d *Dispatcher) uniqueID(items []HiddenItem) ItemID {
	for {
		id := d.newID()
		taken := false
		for _, it := range items {
			if it.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

// cleanRequest trims every free-text field.
func cleanRequest(req Request) Request {
	req.Color = strings.TrimSpace(req.Color)
	req.Location = strings.TrimSpace(req.Location)
	req.Name = strings.TrimSpace(req.Name)
	req.ID = ItemID(strings.TrimSpace(string(req.ID)))
	return req
}

// validate checks the required fields of req.Action.
func validate(req Request) error {
	switch req.Action {
	case ActionAddHidden:
		if req.Color == "" || req.Location == "" {
			return fmt.Errorf("%w: color and location are required", ErrInvalidInput)
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// newItemID returns a UUIDv7, which sorts by creation time.
func newItemID() ItemID {
	return ItemID(uuid.Must(uuid.NewV7()).String())
}
