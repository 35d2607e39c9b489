// Package store implements the small typed data-access layer the player and
// button listener need: the currently-active schedule, button state, and
// sequence metadata cached from FSEQ headers.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Schedule is one calendar entry: a playlist to run on a set of weekdays
// within a start/end date range and a start/end time-of-day window.
type Schedule struct {
	Name         string
	PlaylistName string
	Enabled      bool
	Weekdays     uint8 // bit 0 = Sunday .. bit 6 = Saturday
	StartDate    int64 // days since epoch
	EndDate      int64
	StartTime    int32 // seconds since midnight
	EndTime      int32
}

// Playlist is an ordered, named list of sequences to play.
type Playlist struct {
	Name      string
	Desc      string
	Repeat    bool
	LoopCount int32
	Entries   []PlaylistEntry
}

// PlaylistEntry is one (sequence, play-once, sort position) triple. Entries
// are returned sorted ascending by SortBy, which is unique within a
// playlist.
type PlaylistEntry struct {
	SequenceName string
	Enabled      bool
	PlayOnce     bool
	SortBy       int32
}

// SequenceMeta is the subset of an FSEQ header cached in the store so the
// scheduler can log/plan without opening the file.
type SequenceMeta struct {
	Name         string
	Path         string
	FrameCount   uint32
	StepTimeMS   uint8
	ChannelCount uint32
}

// PlaylistSequence pairs a playlist entry's play-once flag with the
// resolved metadata of the sequence it names.
type PlaylistSequence struct {
	PlayOnce bool
	Meta     SequenceMeta
}

// ButtonState mirrors the button protocol's observed-state JSON schema:
// status/error/battery are free-form telemetry, Input is the momentary
// press bit, and Last/Now are press timestamps (seconds since epoch).
type ButtonState struct {
	ID      string
	Status  string
	Error   string
	Battery float64
	Input   bool
	Last    int64
	Now     int64
}

// ErrNotFound is returned when a lookup (schedule, button, sequence) comes
// up empty.
var ErrNotFound = errors.New("store: not found")

// Store is the data-access surface the player and button listener depend
// on.
type Store interface {
	// CurrentSchedule returns the earliest-starting enabled schedule active
	// right now (today's weekday bit set, start_date<=today<=end_date,
	// start_time<=now<=end_time), its playlist, and the playlist's
	// sequences resolved to SequenceMeta. Returns ErrNotFound if none match.
	CurrentSchedule(now time.Time) (*Schedule, *Playlist, []PlaylistSequence, error)
	// Button returns the last observed state for the named button.
	Button(id string) (*ButtonState, error)
	// UpdateButton persists an observed button state.
	UpdateButton(s ButtonState) error
	// UpsertSequenceMeta inserts or replaces cached sequence metadata.
	UpsertSequenceMeta(m SequenceMeta) error
}

// SQLiteStore is the Store implementation backed by a single SQLite file,
// grounded on the teacher's direct database/sql + modernc.org/sqlite usage.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schedules (
			name TEXT PRIMARY KEY,
			playlist_name TEXT NOT NULL,
			enabled INTEGER NOT NULL,
			weekdays INTEGER NOT NULL,
			start_date INTEGER NOT NULL,
			end_date INTEGER NOT NULL,
			start_time INTEGER NOT NULL,
			end_time INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS playlists (
			name TEXT PRIMARY KEY,
			desc TEXT NOT NULL DEFAULT '',
			repeat INTEGER NOT NULL,
			loop_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS playlist_entries (
			playlist_name TEXT NOT NULL,
			sequence_name TEXT NOT NULL,
			enabled INTEGER NOT NULL,
			play_once INTEGER NOT NULL,
			sort_by INTEGER NOT NULL,
			PRIMARY KEY (playlist_name, sort_by)
		)`,
		`CREATE TABLE IF NOT EXISTS sequence_meta (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			frame_count INTEGER NOT NULL,
			step_time_ms INTEGER NOT NULL,
			channel_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS buttons (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			battery REAL NOT NULL DEFAULT 0,
			input INTEGER NOT NULL,
			last INTEGER NOT NULL DEFAULT 0,
			now INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CurrentSchedule(now time.Time) (*Schedule, *Playlist, []PlaylistSequence, error) {
	today := now.Truncate(24 * time.Hour).Unix() / 86400
	seconds := int32(now.Hour()*3600 + now.Minute()*60 + now.Second())
	weekdayBit := uint8(1) << uint(now.Weekday())

	row := s.db.QueryRow(`
		SELECT name, playlist_name, enabled, weekdays, start_date, end_date, start_time, end_time
		FROM schedules
		WHERE enabled = 1
		  AND (weekdays & ?) != 0
		  AND start_date <= ? AND end_date >= ?
		  AND start_time <= ? AND end_time >= ?
		ORDER BY start_time ASC
		LIMIT 1`, weekdayBit, today, today, seconds, seconds)

	var sched Schedule
	var enabled int
	if err := row.Scan(&sched.Name, &sched.PlaylistName, &enabled, &sched.Weekdays,
		&sched.StartDate, &sched.EndDate, &sched.StartTime, &sched.EndTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, fmt.Errorf("store: query schedule: %w", err)
	}
	sched.Enabled = enabled != 0

	playlist, err := s.playlist(sched.PlaylistName)
	if err != nil {
		return nil, nil, nil, err
	}

	seqs := make([]PlaylistSequence, 0, len(playlist.Entries))
	for _, e := range playlist.Entries {
		if !e.Enabled {
			continue
		}
		meta, err := s.sequenceMeta(e.SequenceName)
		if err != nil {
			return nil, nil, nil, err
		}
		seqs = append(seqs, PlaylistSequence{PlayOnce: e.PlayOnce, Meta: *meta})
	}

	return &sched, playlist, seqs, nil
}

func (s *SQLiteStore) playlist(name string) (*Playlist, error) {
	row := s.db.QueryRow(`SELECT name, desc, repeat, loop_count FROM playlists WHERE name = ?`, name)
	var p Playlist
	var repeat int
	if err := row.Scan(&p.Name, &p.Desc, &repeat, &p.LoopCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: query playlist %s: %w", name, err)
	}
	p.Repeat = repeat != 0

	rows, err := s.db.Query(`
		SELECT sequence_name, enabled, play_once, sort_by
		FROM playlist_entries WHERE playlist_name = ? ORDER BY sort_by ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("store: query playlist entries %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e PlaylistEntry
		var enabled, playOnce int
		if err := rows.Scan(&e.SequenceName, &enabled, &playOnce, &e.SortBy); err != nil {
			return nil, err
		}
		e.Enabled = enabled != 0
		e.PlayOnce = playOnce != 0
		p.Entries = append(p.Entries, e)
	}
	return &p, rows.Err()
}

func (s *SQLiteStore) sequenceMeta(name string) (*SequenceMeta, error) {
	row := s.db.QueryRow(`
		SELECT name, path, frame_count, step_time_ms, channel_count
		FROM sequence_meta WHERE name = ?`, name)
	var m SequenceMeta
	if err := row.Scan(&m.Name, &m.Path, &m.FrameCount, &m.StepTimeMS, &m.ChannelCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sequence %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("store: query sequence meta %s: %w", name, err)
	}
	return &m, nil
}

// Playlist looks up a playlist by name along with its enabled entries
// resolved to sequence metadata. This is an extra capability beyond the
// four-method Store interface, used by the player's direct
// Playlist(name)/Sequence(name) commands when the backing store supports it.
func (s *SQLiteStore) Playlist(name string) (*Playlist, []PlaylistSequence, error) {
	p, err := s.playlist(name)
	if err != nil {
		return nil, nil, err
	}
	seqs := make([]PlaylistSequence, 0, len(p.Entries))
	for _, e := range p.Entries {
		if !e.Enabled {
			continue
		}
		meta, err := s.sequenceMeta(e.SequenceName)
		if err != nil {
			return nil, nil, err
		}
		seqs = append(seqs, PlaylistSequence{PlayOnce: e.PlayOnce, Meta: *meta})
	}
	return p, seqs, nil
}

// SequenceMeta looks up one sequence's cached metadata by name. See
// Playlist's comment on why this is exported outside the core interface.
func (s *SQLiteStore) SequenceMeta(name string) (*SequenceMeta, error) {
	return s.sequenceMeta(name)
}

func (s *SQLiteStore) Button(id string) (*ButtonState, error) {
	row := s.db.QueryRow(`SELECT id, status, error, battery, input, last, now FROM buttons WHERE id = ?`, id)
	var st ButtonState
	var input int
	if err := row.Scan(&st.ID, &st.Status, &st.Error, &st.Battery, &input, &st.Last, &st.Now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: query button %s: %w", id, err)
	}
	st.Input = input != 0
	return &st, nil
}

func (s *SQLiteStore) UpdateButton(st ButtonState) error {
	_, err := s.db.Exec(`
		INSERT INTO buttons (id, status, error, battery, input, last, now)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			battery = excluded.battery,
			input = excluded.input,
			last = excluded.last,
			now = excluded.now`,
		st.ID, st.Status, st.Error, st.Battery, st.Input, st.Last, st.Now)
	if err != nil {
		return fmt.Errorf("store: update button %s: %w", st.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertSequenceMeta(m SequenceMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO sequence_meta (name, path, frame_count, step_time_ms, channel_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path = excluded.path,
			frame_count = excluded.frame_count,
			step_time_ms = excluded.step_time_ms,
			channel_count = excluded.channel_count`,
		m.Name, m.Path, m.FrameCount, m.StepTimeMS, m.ChannelCount)
	if err != nil {
		return fmt.Errorf("store: upsert sequence meta %s: %w", m.Name, err)
	}
	return nil
}
