// internal/store/sql.go
//
// SQL implementation of board.Store for PostgreSQL and SQLite.
// Responsibilities:
//   - Create the cat_game table on first access (IF NOT EXISTS DDL from assets).
//   - Load the board row, seeding the default board when it is missing.
//   - Save with a single INSERT .. ON CONFLICT DO UPDATE .. RETURNING statement.
//
// Every call checks out its own *sql.Conn and returns it to the pool before
// returning, error paths included.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/cathunt/assets"
	"github.com/robalobadob/cathunt/internal/board"
)

const boardColumns = `id, found, total, game_name, hidden_cats, history, updated_at`

const (
	selectBoard = `SELECT ` + boardColumns + ` FROM cat_game WHERE id = ?`

	insertSeed = `INSERT INTO cat_game (` + boardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	upsertBoard = `INSERT INTO cat_game (` + boardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			found = excluded.found,
			total = excluded.total,
			game_name = excluded.game_name,
			hidden_cats = excluded.hidden_cats,
			history = excluded.history,
			updated_at = excluded.updated_at
		RETURNING ` + boardColumns
)

// SQL stores the board in a cat_game row.
type SQL struct {
	db      *sql.DB
	dialect string
	id      string
	name    string
	now     func() time.Time

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewSQL returns a store for board id on db. dialect is DialectPostgres or
// DialectSQLite; defaultName names the board when it is first seeded.
func NewSQL(db *sql.DB, dialect, id, defaultName string) *SQL {
	return &SQL{db: db, dialect: dialect, id: id, name: defaultName, now: time.Now}
}

// Load returns the board row, inserting the default board if there is none.
func (s *SQL) Load(ctx context.Context) (board.GameState, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return board.GameState{}, err
	}
	defer conn.Close()

	st, err := scanBoard(conn.QueryRowContext(ctx, s.rebind(selectBoard), s.id))
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return board.GameState{}, fmt.Errorf("load board: %w", err)
	}

	seed := board.NewState(s.id, s.name)
	seed.UpdatedAt = s.now().UTC()
	args, err := rowArgs(seed)
	if err != nil {
		return board.GameState{}, err
	}
	if _, err := conn.ExecContext(ctx, s.rebind(insertSeed), args...); err != nil {
		return board.GameState{}, fmt.Errorf("seed board: %w", err)
	}
	return seed, nil
}

// Save upserts the whole board row and returns it as stored.
func (s *SQL) Save(ctx context.Context, st board.GameState) (board.GameState, error) {
	st.ID = s.id
	st.UpdatedAt = s.now().UTC()
	args, err := rowArgs(st)
	if err != nil {
		return board.GameState{}, err
	}

	conn, err := s.conn(ctx)
	if err != nil {
		return board.GameState{}, err
	}
	defer conn.Close()

	saved, err := scanBoard(conn.QueryRowContext(ctx, s.rebind(upsertBoard), args...))
	if err != nil {
		return board.GameState{}, fmt.Errorf("save board: %w", err)
	}
	return saved, nil
}

// conn checks out a connection and makes sure the table exists.
func (s *SQL) conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := s.ensureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// ensureSchema runs the dialect's DDL once per process. A failed attempt is
// retried on the next call.
func (s *SQL) ensureSchema(ctx context.Context, conn *sql.Conn) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	ddl, err := assets.Schema(s.dialect)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	s.schemaReady = true
	return nil
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL.
func (s *SQL) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rowArgs flattens st into the boardColumns argument order.
func rowArgs(st board.GameState) ([]any, error) {
	st = board.Normalize(st)
	items, err := encodeItems(st.HiddenItems)
	if err != nil {
		return nil, err
	}
	history, err := encodeHistory(st.History)
	if err != nil {
		return nil, err
	}
	return []any{st.ID, st.Found, st.Total, st.GameName, items, history, st.UpdatedAt}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBoard reads one boardColumns row. Stored counters are coerced to
// non-negative integers but the result is normalized anyway.
func scanBoard(row rowScanner) (board.GameState, error) {
	var (
		st           board.GameState
		found, total sql.NullInt64
		items, hist  []byte
		updated      dbTime
	)
	if err := row.Scan(&st.ID, &found, &total, &st.GameName, &items, &hist, &updated); err != nil {
		return board.GameState{}, err
	}
	st.Found = nonNegative(found)
	st.Total = nonNegative(total)
	st.UpdatedAt = updated.Time

	var err error
	if st.HiddenItems, err = decodeItems(items); err != nil {
		return board.GameState{}, err
	}
	if st.History, err = decodeHistory(hist); err != nil {
		return board.GameState{}, err
	}
	return board.Normalize(st), nil
}

func nonNegative(n sql.NullInt64) int {
	if !n.Valid || n.Int64 < 0 {
		return 0
	}
	return int(n.Int64)
}

// Unconfigured is the store used when no database is configured. Every call
// fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Load(context.Context) (board.GameState, error) {
	return board.GameState{}, ErrNotConfigured
}

func (Unconfigured) Save(context.Context, board.GameState) (board.GameState, error) {
	return board.GameState{}, ErrNotConfigured
}
