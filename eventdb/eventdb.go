// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	contract BLOB(20) NOT NULL,
	name TEXT NOT NULL,
	args TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS event_i1 ON event(contract);
CREATE INDEX IF NOT EXISTS event_i2 ON event(name);
CREATE INDEX IF NOT EXISTS event_i3 ON event(ts);`

// EventDB is an append-only audit log of contract events, backed by sqlite.
type EventDB struct {
	path string
	db   *sql.DB
}

// New creates or opens the event db at the given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{path, db}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() {
	db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Write appends events emitted at the given time.
func (db *EventDB) Write(time uint64, events []runtime.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO event(ts, contract, name, args) VALUES(?,?,?,?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(time, ev.Contract.Bytes(), ev.Name, string(args)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Event is a stored contract event.
type Event struct {
	Seq      uint64        `json:"seq"`
	Time     uint64        `json:"time"`
	Contract cnu.Address   `json:"contract"`
	Name     string        `json:"name"`
	Args     []runtime.Arg `json:"args"`
}

// Range limits a filter to events within [From, To] by emit time.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Options paginates filter results.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Order of filter results by sequence.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Filter selects stored events.
type Filter struct {
	Contract *cnu.Address `json:"contract"`
	Name     string       `json:"name"`
	Range    *Range       `json:"range"`
	Options  *Options     `json:"options"`
	Order    Order        `json:"order"`
}

// FilterEvents queries stored events matching the filter. A nil filter selects everything.
func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	stmt := "SELECT seq, ts, contract, name, args FROM event WHERE 1"
	var args []any
	if filter != nil {
		if filter.Contract != nil {
			stmt += " AND contract = ?"
			args = append(args, filter.Contract.Bytes())
		}
		if filter.Name != "" {
			stmt += " AND name = ?"
			args = append(args, filter.Name)
		}
		if filter.Range != nil {
			stmt += " AND ts >= ?"
			args = append(args, filter.Range.From)
			if filter.Range.To >= filter.Range.From {
				stmt += " AND ts <= ?"
				args = append(args, filter.Range.To)
			}
		}
		if filter.Order == DESC {
			stmt += " ORDER BY seq DESC"
		} else {
			stmt += " ORDER BY seq ASC"
		}
		if filter.Options != nil {
			stmt += " LIMIT ?, ?"
			args = append(args, filter.Options.Offset, filter.Options.Limit)
		}
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			seq      uint64
			ts       uint64
			contract []byte
			name     string
			rawArgs  string
		)
		if err := rows.Scan(&seq, &ts, &contract, &name, &rawArgs); err != nil {
			return nil, err
		}
		ev := &Event{
			Seq:      seq,
			Time:     ts,
			Contract: cnu.BytesToAddress(contract),
			Name:     name,
		}
		if err := json.Unmarshal([]byte(rawArgs), &ev.Args); err != nil {
			return nil, fmt.Errorf("decode event args: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
