package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a counting in-memory Store.
type fakeStore struct {
	state   *GameState
	loads   int
	saves   int
	loadErr error
	saveErr error
	stamp   time.Time
}

func (f *fakeStore) Load(ctx context.Context) (GameState, error) {
	f.loads++
	if f.loadErr != nil {
		return GameState{}, f.loadErr
	}
	if f.state == nil {
		s := NewState("", "")
		f.state = &s
	}
	return f.state.Clone(), nil
}

func (f *fakeStore) Save(ctx context.Context, s GameState) (GameState, error) {
	f.saves++
	if f.saveErr != nil {
		return GameState{}, f.saveErr
	}
	s.UpdatedAt = f.stamp
	stored := s.Clone()
	f.state = &stored
	return stored.Clone(), nil
}

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestDispatcher(st Store) *Dispatcher {
	n := 0
	return NewDispatcher(st,
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() ItemID {
			n++
			return ItemID(fmt.Sprintf("item-%d", n))
		}),
	)
}

func add(t *testing.T, d *Dispatcher, color, location, name string) GameState {
	t.Helper()
	s, err := d.Apply(context.Background(), true, Request{
		Action: ActionAddHidden, Color: color, Location: location, Name: name,
	})
	require.NoError(t, err)
	return s
}

func TestApply_AddThenFoundScenario(t *testing.T) {
	st := &fakeStore{stamp: testNow}
	d := newTestDispatcher(st)
	ctx := context.Background()

	s := add(t, d, "Black", "Kitchen", "Shadow")
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 0, s.Found)
	require.Len(t, s.History, 1)
	assert.Equal(t, EventAdded, s.History[0].Type)
	assert.Equal(t, "Shadow", s.HiddenItems[0].Name, "admin sees real names")

	s, err := d.Apply(ctx, false, Request{Action: ActionFound, Color: "black", Location: "kitchen"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Found)
	require.Len(t, s.HiddenItems, 1)
	assert.True(t, s.HiddenItems[0].Found)
	require.NotNil(t, s.HiddenItems[0].FoundAt)
	assert.Equal(t, testNow, *s.HiddenItems[0].FoundAt)

	require.Len(t, s.History, 2)
	assert.Equal(t, EventFound, s.History[0].Type)
	assert.Equal(t, "Shadow", s.History[0].Name)
	assert.Equal(t, "Kitchen", s.History[0].Where)
	assert.Equal(t, HiddenName, s.History[1].Name, "non-discovery events stay masked")
	assert.Equal(t, testNow, s.History[0].When)
}

func TestApply_AdminOnlyActionsNeverTouchStore(t *testing.T) {
	for _, action := range []string{ActionAddHidden, ActionDeleteItem, ActionClearHistory, ActionRenameGame} {
		t.Run(action, func(t *testing.T) {
			st := &fakeStore{}
			d := newTestDispatcher(st)

			_, err := d.Apply(context.Background(), false, Request{
				Action: action, Color: "Black", Location: "Kitchen", Name: "x", ID: "item-1",
			})
			assert.ErrorIs(t, err, ErrAdminRequired)
			assert.Zero(t, st.loads)
			assert.Zero(t, st.saves)
		})
	}
}

func TestApply_UnknownAction(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	for _, action := range []string{"", "reset", "FOUND"} {
		_, err := d.Apply(context.Background(), true, Request{Action: action})
		assert.ErrorIs(t, err, ErrUnknownAction, action)
	}
	assert.Zero(t, st.saves)
}

func TestApply_AddHiddenValidation(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	for _, req := range []Request{
		{Action: ActionAddHidden, Location: "Kitchen"},
		{Action: ActionAddHidden, Color: "Black"},
		{Action: ActionAddHidden, Color: "  ", Location: "Kitchen"},
	} {
		_, err := d.Apply(context.Background(), true, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, st.saves)
}

func TestApply_AddHiddenDefaultsAndTrims(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})

	s := add(t, d, " Black ", " Kitchen ", "   ")
	it := s.HiddenItems[0]
	assert.Equal(t, ItemID("item-1"), it.ID)
	assert.Equal(t, HiddenName, it.Name)
	assert.Equal(t, "Black", it.Color)
	assert.Equal(t, "Kitchen", it.Location)
	assert.False(t, it.Found)
	assert.Nil(t, it.FoundAt)
	assert.Equal(t, testNow, it.CreatedAt)
}

func TestApply_FoundNoCandidateLeavesStateUnchanged(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	_, err := d.Apply(context.Background(), false, Request{Action: ActionFound, Color: "Black", Location: "Kitchen"})
	assert.ErrorIs(t, err, ErrNoCandidate)
	assert.Zero(t, st.saves)

	s, err := d.View(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.HiddenItems)
	assert.Empty(t, s.History)
}

func TestApply_FoundResolvesColorBeforeLocation(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})
	add(t, d, "Black", "Kitchen", "Shadow")
	add(t, d, "Black", "Hall", "Soot")

	s, err := d.Apply(context.Background(), true, Request{Action: ActionFound, Color: "Black", Location: "Bath"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total, "a found claim never creates items")
	assert.True(t, s.HiddenItems[0].Found)
	assert.False(t, s.HiddenItems[1].Found)
}

func TestApply_FoundIsMonotonic(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})
	ctx := context.Background()
	add(t, d, "Black", "Kitchen", "Shadow")

	_, err := d.Apply(ctx, false, Request{Action: ActionFound, Color: "Black", Location: "Kitchen"})
	require.NoError(t, err)

	// nothing left to find
	_, err = d.Apply(ctx, false, Request{Action: ActionFound, Color: "Black", Location: "Kitchen"})
	assert.ErrorIs(t, err, ErrNoCandidate)

	// other actions keep the found flag
	_, err = d.Apply(ctx, true, Request{Action: ActionRenameGame, Name: "New"})
	require.NoError(t, err)
	s := add(t, d, "White", "Hall", "Snow")
	assert.True(t, s.HiddenItems[0].Found)
	assert.Equal(t, 1, s.Found)
	assert.Equal(t, 2, s.Total)
}

func TestApply_DeleteItem(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})
	ctx := context.Background()
	add(t, d, "Black", "Kitchen", "Shadow")
	add(t, d, "White", "Hall", "Snow")

	s, err := d.Apply(ctx, true, Request{Action: ActionDeleteItem, ID: "item-1"})
	require.NoError(t, err)
	require.Len(t, s.HiddenItems, 1)
	assert.Equal(t, ItemID("item-2"), s.HiddenItems[0].ID)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, EventDeleted, s.History[0].Type)
	assert.Equal(t, ItemID("item-1"), s.History[0].ID)

	_, err = d.Apply(ctx, true, Request{Action: ActionDeleteItem, ID: "item-1"})
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = d.Apply(ctx, true, Request{Action: ActionDeleteItem})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestApply_NewIDsSkipExistingOnes(t *testing.T) {
	st := &fakeStore{}
	ids := []ItemID{"dup", "dup", "fresh"}
	d := NewDispatcher(st, WithIDs(func() ItemID {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	add(t, d, "Black", "Kitchen", "")
	s := add(t, d, "White", "Hall", "")
	assert.Equal(t, ItemID("dup"), s.HiddenItems[0].ID)
	assert.Equal(t, ItemID("fresh"), s.HiddenItems[1].ID)
}

func TestApply_RenameGame(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})
	ctx := context.Background()

	s, err := d.Apply(ctx, true, Request{Action: ActionRenameGame, Name: "  Garden Hunt  "})
	require.NoError(t, err)
	assert.Equal(t, "Garden Hunt", s.GameName)

	s, err = d.Apply(ctx, true, Request{Action: ActionRenameGame, Name: "   "})
	require.NoError(t, err)
	assert.Equal(t, "Garden Hunt", s.GameName, "blank keeps current name")

	long := strings.Repeat("🐈", MaxNameLen+10)
	s, err = d.Apply(ctx, true, Request{Action: ActionRenameGame, Name: long})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("🐈", MaxNameLen), s.GameName)
}

func TestApply_ClearHistory(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})
	add(t, d, "Black", "Kitchen", "Shadow")

	s, err := d.Apply(context.Background(), true, Request{Action: ActionClearHistory})
	require.NoError(t, err)
	assert.Empty(t, s.History)
	assert.NotNil(t, s.History)
	assert.Equal(t, 1, s.Total)
}

func TestApply_HistoryStaysBounded(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})
	for i := 0; i < MaxHistory+20; i++ {
		add(t, d, "Black", fmt.Sprintf("Room %d", i), "")
	}

	s, err := d.View(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, s.History, MaxHistory)
	assert.Equal(t, fmt.Sprintf("Room %d", MaxHistory+19), s.History[0].Where)
	assert.Equal(t, MaxHistory+20, s.Total)
}

func TestApply_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")

	d := newTestDispatcher(&fakeStore{loadErr: boom})
	_, err := d.Apply(context.Background(), true, Request{Action: ActionClearHistory})
	assert.ErrorIs(t, err, boom)

	st := &fakeStore{saveErr: boom}
	d = newTestDispatcher(st)
	_, err = d.Apply(context.Background(), true, Request{Action: ActionClearHistory})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, st.saves)
}

func TestView_NormalizesStaleCounters(t *testing.T) {
	s := NewState("", "")
	s.Found, s.Total = 9, 9
	s.HiddenItems = []HiddenItem{{ID: "1", Name: "Rex"}}
	d := newTestDispatcher(&fakeStore{state: &s})

	v, err := d.View(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Total)
	assert.Equal(t, 0, v.Found)
	assert.Equal(t, HiddenName, v.HiddenItems[0].Name)
}
