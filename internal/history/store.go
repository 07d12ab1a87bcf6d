// Package history keeps a sqlite log of finished play sessions per chart.
package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"git.lost.host/meutraa/notefall/internal/game"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type Record struct {
	Sum       string
	BPM       float64
	Total     int
	Spawned   int
	Retired   int
	Skipped   int
	PoolPeak  int // Largest live instance count over all note types
	PlayedAt  time.Time
	Completed bool // The session ran through every note
}

type Store struct {
	db *sql.DB
}

const initStatement = `
create table if not exists sessions
  (
	  id integer not null primary key,
	  sum text not null,
	  bpm real,
	  total integer,
	  spawned integer,
	  retired integer,
	  skipped integer,
	  pool_peak integer,
	  played_at integer,
	  completed integer
  );
create index if not exists sessions_sum on sessions(sum);
`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, errors.Wrap(err, "unable to open history")
	}
	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return nil, errors.Wrap(err, "unable to create history tables")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if nil == s.db {
		return nil
	}
	return s.db.Close()
}

// Hash identifies a chart by the notes the scheduler would see.
func Hash(c *game.Chart) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d;", c.Difficulty.NKeys)
	for _, n := range c.Notes {
		fmt.Fprintf(h, "%d,%d,%g,%g;", n.Lane, n.Type, n.Beat, n.HoldDuration)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (s *Store) Save(c *game.Chart, r Record) error {
	if r.Sum == "" {
		r.Sum = Hash(c)
	}
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now()
	}
	_, err := s.db.Exec(
		"insert into sessions(sum, bpm, total, spawned, retired, skipped, pool_peak, played_at, completed) values(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.Sum, r.BPM, r.Total, r.Spawned, r.Retired, r.Skipped, r.PoolPeak, r.PlayedAt.UnixNano(), r.Completed,
	)
	return errors.Wrap(err, "unable to save session")
}

// Load returns the sessions played on c, oldest first.
func (s *Store) Load(c *game.Chart) ([]Record, error) {
	rows, err := s.db.Query(
		"select sum, bpm, total, spawned, retired, skipped, pool_peak, played_at, completed from sessions where sum = ? order by played_at, id",
		Hash(c),
	)
	if nil != err {
		return nil, errors.Wrap(err, "unable to load sessions")
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var playedAt int64
		if err := rows.Scan(&r.Sum, &r.BPM, &r.Total, &r.Spawned, &r.Retired, &r.Skipped, &r.PoolPeak, &playedAt, &r.Completed); nil != err {
			return nil, errors.Wrap(err, "unable to read session")
		}
		r.PlayedAt = time.Unix(0, playedAt)
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "unable to read sessions")
}
