// Package library exposes the tag store's public operations. Each call opens
// its own connection on the library database and closes it before returning;
// no handle is shared between calls.
package library

import (
	"fmt"
	"time"

	"github.com/graevy/mag/internal/query"
	"github.com/graevy/mag/internal/report"
	"github.com/graevy/mag/internal/store"
	"github.com/graevy/mag/internal/util"
)

// Config holds library configuration
type Config struct {
	DBPath           string
	NetworkOptimized bool
	Logger           *report.EventLogger
}

// Library is a handle on a library database file. It holds configuration
// only, never an open connection.
type Library struct {
	dbPath string
	opts   *store.OpenOptions
	logger *report.EventLogger
}

// New creates a Library for the configured database path
func New(cfg *Config) *Library {
	path := cfg.DBPath
	if path == "" {
		path = util.DefaultDBPath
	}
	return &Library{
		dbPath: path,
		opts:   &store.OpenOptions{NetworkOptimized: cfg.NetworkOptimized},
		logger: cfg.Logger,
	}
}

// Path returns the library database path
func (l *Library) Path() string {
	return l.dbPath
}

// Connect opens the database and ensures the schema exists.
// The caller owns the returned store and must close it.
func (l *Library) Connect() (*store.Store, error) {
	return store.OpenWithOptions(l.dbPath, l.opts)
}

// withStore runs fn on a fresh connection
func (l *Library) withStore(fn func(*store.Store) error) error {
	s, err := l.Connect()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// AddSong adds a song by path. Adding an existing path is a no-op.
func (l *Library) AddSong(path string) error {
	var added bool
	err := l.withStore(func(s *store.Store) error {
		var err error
		added, err = s.InsertSong(path)
		return err
	})
	l.logger.LogSong(report.EventAddSong, path, added, err)
	if err != nil {
		return fmt.Errorf("add song %q: %w", path, err)
	}
	if added {
		util.DebugLog("Added song %s", path)
	}
	return nil
}

// AddSongs adds many songs over one connection and one transaction.
// Returns how many were new.
func (l *Library) AddSongs(paths []string) (int, error) {
	var added int
	err := l.withStore(func(s *store.Store) error {
		var err error
		added, err = s.InsertSongBatch(paths)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add songs: %w", err)
	}
	return added, nil
}

// AddTag adds a tag by name. Adding an existing name is a no-op.
func (l *Library) AddTag(name string) error {
	name = query.NormalizeTagName(name)
	var added bool
	err := l.withStore(func(s *store.Store) error {
		var err error
		added, err = s.InsertTag(name)
		return err
	})
	l.logger.LogTag(report.EventAddTag, name, added, err)
	if err != nil {
		return fmt.Errorf("add tag %q: %w", name, err)
	}
	if added {
		util.DebugLog("Added tag %s", name)
	}
	return nil
}

// TagSong sets the value of tagName on the song at songPath, replacing any
// previous value. Both must already exist (util.ErrNotFound otherwise) and
// value must be within 0-9 (util.ErrConstraintViolation otherwise).
func (l *Library) TagSong(songPath, tagName string, value int) error {
	tagName = query.NormalizeTagName(tagName)
	err := l.withStore(func(s *store.Store) error {
		return s.SetSongTag(songPath, tagName, value)
	})
	l.logger.LogTagSong(songPath, tagName, value, err)
	if err != nil {
		return fmt.Errorf("tag song: %w", err)
	}
	util.DebugLog("Tagged %s with %s=%d", songPath, tagName, value)
	return nil
}

// RemoveSong deletes a song and everything referencing it.
// Removing an unknown path is a no-op.
func (l *Library) RemoveSong(path string) error {
	var removed bool
	err := l.withStore(func(s *store.Store) error {
		var err error
		removed, err = s.DeleteSong(path)
		return err
	})
	l.logger.LogSong(report.EventRemoveSong, path, removed, err)
	if err != nil {
		return fmt.Errorf("remove song %q: %w", path, err)
	}
	if !removed {
		util.DebugLog("Song %s not in library, nothing to remove", path)
	}
	return nil
}

// RemoveTag deletes a tag, its assignments and its feedback.
// Removing an unknown tag is a no-op.
func (l *Library) RemoveTag(name string) error {
	name = query.NormalizeTagName(name)
	var removed bool
	err := l.withStore(func(s *store.Store) error {
		var err error
		removed, err = s.DeleteTag(name)
		return err
	})
	l.logger.LogTag(report.EventRemoveTag, name, removed, err)
	if err != nil {
		return fmt.Errorf("remove tag %q: %w", name, err)
	}
	if !removed {
		util.DebugLog("Tag %s not in library, nothing to remove", name)
	}
	return nil
}

// QuerySongs returns the songs matching every condition, deduplicated and
// ordered by path. No conditions yields an empty result without opening
// the database.
func (l *Library) QuerySongs(conds []query.Condition) ([]store.Song, error) {
	if len(conds) == 0 {
		return []store.Song{}, nil
	}

	start := time.Now()
	texts := make([]string, len(conds))
	for i, c := range conds {
		texts[i] = c.String()
	}

	plan, err := query.NewPlan(conds)
	if err != nil {
		l.logger.LogQuery(texts, 0, time.Since(start), err)
		return nil, err
	}
	sqlText, args, err := plan.Compile()
	if err != nil {
		l.logger.LogQuery(texts, 0, time.Since(start), err)
		return nil, err
	}
	util.DebugLog("Compiled %d conditions:\n%s", len(conds), sqlText)

	var songs []store.Song
	err = l.withStore(func(s *store.Store) error {
		var err error
		songs, err = s.QuerySongs(sqlText, args)
		return err
	})
	l.logger.LogQuery(texts, len(songs), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return songs, nil
}

// SongTags returns the tag assignments of one song, ordered by tag name
func (l *Library) SongTags(path string) ([]store.TagValue, error) {
	var tags []store.TagValue
	err := l.withStore(func(s *store.Store) error {
		song, err := s.GetSongByPath(path)
		if err != nil {
			return err
		}
		if song == nil {
			return fmt.Errorf("song %q: %w", path, util.ErrNotFound)
		}
		tags, err = s.GetSongTags(song.ID)
		return err
	})
	return tags, err
}

// ListTags returns every tag with the number of songs carrying it
func (l *Library) ListTags() ([]store.TagUsage, error) {
	var usage []store.TagUsage
	err := l.withStore(func(s *store.Store) error {
		var err error
		usage, err = s.GetTagUsage()
		return err
	})
	return usage, err
}

// Stats returns row counts for the library
func (l *Library) Stats() (*store.Stats, error) {
	var stats *store.Stats
	err := l.withStore(func(s *store.Store) error {
		var err error
		stats, err = s.GetStats()
		return err
	})
	return stats, err
}

// Summary gathers library counts and tag usage for reporting
func (l *Library) Summary() (*report.SummaryReport, error) {
	var summary *report.SummaryReport
	err := l.withStore(func(s *store.Store) error {
		var err error
		summary, err = report.GenerateSummaryReport(s, l.logger.Path())
		return err
	})
	return summary, err
}
