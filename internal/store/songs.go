package store

import (
	"database/sql"
	"fmt"

	"github.com/graevy/mag/internal/util"
)

// InsertSong adds a song if its path is not already present.
// Returns true when a new row was created.
func (s *Store) InsertSong(path string) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO songs (path) VALUES (?)
		ON CONFLICT(path) DO NOTHING
	`, path)
	if err != nil {
		return false, fmt.Errorf("failed to insert song: %w", classify(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert song: %w", err)
	}
	return n > 0, nil
}

// InsertSongBatch adds many songs in a single transaction, ignoring paths
// that already exist. Returns the number of new rows.
func (s *Store) InsertSongBatch(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	added := 0
	err := s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO songs (path) VALUES (?)
			ON CONFLICT(path) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range paths {
			result, err := stmt.Exec(p)
			if err != nil {
				return fmt.Errorf("failed to insert song %s: %w", p, classify(err))
			}
			if n, err := result.RowsAffected(); err == nil && n > 0 {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return added, nil
}

// GetSongByPath retrieves a song by its path. Returns nil, nil when absent.
func (s *Store) GetSongByPath(path string) (*Song, error) {
	return getSongByPath(s.db, path)
}

// queryRower is satisfied by both *sql.DB and *sql.Tx
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getSongByPath(q queryRower, path string) (*Song, error) {
	song := &Song{}
	err := q.QueryRow("SELECT id, path FROM songs WHERE path = ?", path).Scan(&song.ID, &song.Path)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return song, nil
}

// CountSongs returns the number of songs in the library
func (s *Store) CountSongs() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM songs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

// DeleteSong removes a song and every row that references it, in dependency
// order: feedback on its play events, its play events, its tag assignments,
// then the song itself. All deletes commit together or not at all.
// Returns false when no song has the given path.
func (s *Store) DeleteSong(path string) (bool, error) {
	removed := false
	err := s.Transaction(func(tx *sql.Tx) error {
		song, err := getSongByPath(tx, path)
		if err != nil {
			return err
		}
		if song == nil {
			return nil
		}

		steps := []struct {
			what  string
			query string
		}{
			{"feedback", "DELETE FROM feedback WHERE play_event_id IN (SELECT id FROM play_events WHERE song_id = ?)"},
			{"play events", "DELETE FROM play_events WHERE song_id = ?"},
			{"tag assignments", "DELETE FROM song_tags WHERE song_id = ?"},
			{"song", "DELETE FROM songs WHERE id = ?"},
		}
		for _, step := range steps {
			res, err := tx.Exec(step.query, song.ID)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.what, classify(err))
			}
			n, _ := res.RowsAffected()
			util.DebugLog("Removed %d %s for song %d", n, step.what, song.ID)
		}

		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// GetSongTags returns the tag assignments of a song ordered by tag name
func (s *Store) GetSongTags(songID int64) ([]TagValue, error) {
	rows, err := s.db.Query(`
		SELECT t.name, st.value
		FROM song_tags st
		JOIN tags t ON st.tag_id = t.id
		WHERE st.song_id = ?
		ORDER BY t.name
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query song tags: %w", err)
	}
	defer rows.Close()

	var tags []TagValue
	for rows.Next() {
		var tv TagValue
		if err := rows.Scan(&tv.Name, &tv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan song tag: %w", err)
		}
		tags = append(tags, tv)
	}

	return tags, rows.Err()
}

// QuerySongs executes a compiled song query. The statement must select
// (id, path); arguments are bound positionally.
func (s *Store) QuerySongs(query string, args []any) ([]Song, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrQuery, err)
	}
	defer rows.Close()

	songs := make([]Song, 0)
	for rows.Next() {
		var song Song
		if err := rows.Scan(&song.ID, &song.Path); err != nil {
			return nil, fmt.Errorf("%w: failed to scan song: %w", util.ErrQuery, err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrQuery, err)
	}

	return songs, nil
}

// GetStats returns row counts for the library tables
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM song_tags),
			(SELECT COUNT(*) FROM play_events)
	`).Scan(&stats.Songs, &stats.Tags, &stats.Assignments, &stats.PlayEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
