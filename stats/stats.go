// Package stats keeps a per-client scoreboard in SQLite. Writes are queued
// to a single writer goroutine so the simulation never waits on disk.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one client's totals.
type Record struct {
	ClientID    uint64
	Shots       int64
	Hits        int64
	Kills       int64
	Deaths      int64
	DamageDealt float64
	LastSeen    time.Time
}

type delta struct {
	clientID uint64
	shots    int64
	hits     int64
	kills    int64
	deaths   int64
	damage   float64
	seen     time.Time
	sync     chan struct{}
}

type Store struct {
	db *sql.DB

	ch     chan delta
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
	errs   atomic.Int64
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS players (
			client_id INTEGER PRIMARY KEY,
			shots INTEGER NOT NULL DEFAULT 0,
			hits INTEGER NOT NULL DEFAULT 0,
			kills INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			damage_dealt REAL NOT NULL DEFAULT 0,
			last_seen INTEGER NOT NULL DEFAULT 0
		);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	s := &Store{db: db, ch: make(chan delta, 4096)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func (s *Store) RecordJoin(clientID uint64, at time.Time) {
	s.push(delta{clientID: clientID, seen: at})
}

func (s *Store) RecordShot(clientID uint64) {
	s.push(delta{clientID: clientID, shots: 1})
}

func (s *Store) RecordHit(clientID uint64, damage float64) {
	s.push(delta{clientID: clientID, hits: 1, damage: damage})
}

// RecordKill credits killer (if any) and charges victim a death.
func (s *Store) RecordKill(killer *uint64, victim uint64) {
	if killer != nil {
		s.push(delta{clientID: *killer, kills: 1})
	}
	s.push(delta{clientID: victim, deaths: 1})
}

func (s *Store) push(d delta) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- d:
	default:
		// The writer fell behind; the scoreboard is best effort.
	}
}

// Sync blocks until every record queued before it has been written.
func (s *Store) Sync() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- delta{sync: done}
	<-done
}

// WriteErrors counts failed writes since Open.
func (s *Store) WriteErrors() int64 {
	return s.errs.Load()
}

func (s *Store) loop() {
	upsert, err := s.db.Prepare(`INSERT INTO players(client_id,shots,hits,kills,deaths,damage_dealt,last_seen)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(client_id) DO UPDATE SET
			shots = shots + excluded.shots,
			hits = hits + excluded.hits,
			kills = kills + excluded.kills,
			deaths = deaths + excluded.deaths,
			damage_dealt = damage_dealt + excluded.damage_dealt,
			last_seen = MAX(last_seen, excluded.last_seen)`)
	if err != nil {
		s.errs.Add(1)
	}
	defer func() {
		if upsert != nil {
			_ = upsert.Close()
		}
	}()

	for d := range s.ch {
		if d.sync != nil {
			close(d.sync)
			continue
		}
		if upsert == nil {
			s.errs.Add(1)
			continue
		}
		var seen int64
		if !d.seen.IsZero() {
			seen = d.seen.Unix()
		}
		if _, err := upsert.Exec(int64(d.clientID), d.shots, d.hits, d.kills, d.deaths, d.damage, seen); err != nil {
			s.errs.Add(1)
		}
	}
}

// Get returns the totals for one client.
func (s *Store) Get(ctx context.Context, clientID uint64) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT client_id,shots,hits,kills,deaths,damage_dealt,last_seen FROM players WHERE client_id=?`, int64(clientID))
	return scanRecord(row)
}

// Top returns up to limit clients ordered by kills, then fewest deaths.
func (s *Store) Top(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT client_id,shots,hits,kills,deaths,damage_dealt,last_seen FROM players
		ORDER BY kills DESC, deaths ASC, client_id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r        Record
		id, seen int64
	)
	if err := sc.Scan(&id, &r.Shots, &r.Hits, &r.Kills, &r.Deaths, &r.DamageDealt, &seen); err != nil {
		return Record{}, err
	}
	r.ClientID = uint64(id)
	if seen > 0 {
		r.LastSeen = time.Unix(seen, 0)
	}
	return r, nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
