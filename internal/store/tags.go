package store

import (
	"database/sql"
	"fmt"

	"github.com/graevy/mag/internal/util"
)

// InsertTag adds a tag if its name is not already present.
// Returns true when a new row was created.
func (s *Store) InsertTag(name string) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO tags (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return false, fmt.Errorf("failed to insert tag: %w", classify(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert tag: %w", err)
	}
	return n > 0, nil
}

// GetTagByName retrieves a tag by name. Returns nil, nil when absent.
func (s *Store) GetTagByName(name string) (*Tag, error) {
	return getTagByName(s.db, name)
}

func getTagByName(q queryRower, name string) (*Tag, error) {
	tag := &Tag{}
	err := q.QueryRow("SELECT id, name FROM tags WHERE name = ?", name).Scan(&tag.ID, &tag.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return tag, nil
}

// SetSongTag assigns value to (song, tag), overwriting any previous value.
// Neither the song nor the tag is created; a missing one yields util.ErrNotFound.
// Values outside 0-9 are rejected by the schema with util.ErrConstraintViolation.
func (s *Store) SetSongTag(songPath, tagName string, value int) error {
	return s.Transaction(func(tx *sql.Tx) error {
		song, err := getSongByPath(tx, songPath)
		if err != nil {
			return err
		}
		if song == nil {
			return fmt.Errorf("song %q: %w", songPath, util.ErrNotFound)
		}

		tag, err := getTagByName(tx, tagName)
		if err != nil {
			return err
		}
		if tag == nil {
			return fmt.Errorf("tag %q: %w", tagName, util.ErrNotFound)
		}

		_, err = tx.Exec(`
			INSERT INTO song_tags (song_id, tag_id, value)
			VALUES (?, ?, ?)
			ON CONFLICT(song_id, tag_id) DO UPDATE SET value = excluded.value
		`, song.ID, tag.ID, value)
		if err != nil {
			return fmt.Errorf("failed to tag song %q with %s=%d: %w", songPath, tagName, value, classify(err))
		}
		return nil
	})
}

// DeleteTag removes a tag, its feedback rows and its song assignments, then
// the tag row itself, in one transaction. Returns false when the tag is absent.
func (s *Store) DeleteTag(name string) (bool, error) {
	removed := false
	err := s.Transaction(func(tx *sql.Tx) error {
		tag, err := getTagByName(tx, name)
		if err != nil {
			return err
		}
		if tag == nil {
			return nil
		}

		steps := []struct {
			what  string
			query string
		}{
			{"feedback", "DELETE FROM feedback WHERE tag_id = ?"},
			{"tag assignments", "DELETE FROM song_tags WHERE tag_id = ?"},
			{"tag", "DELETE FROM tags WHERE id = ?"},
		}
		for _, step := range steps {
			res, err := tx.Exec(step.query, tag.ID)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.what, classify(err))
			}
			n, _ := res.RowsAffected()
			util.DebugLog("Removed %d %s for tag %d", n, step.what, tag.ID)
		}

		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// GetTagUsage lists every tag with the number of songs it is assigned to
func (s *Store) GetTagUsage() ([]TagUsage, error) {
	rows, err := s.db.Query(`
		SELECT t.name, COUNT(st.song_id)
		FROM tags t
		LEFT JOIN song_tags st ON st.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var usage []TagUsage
	for rows.Next() {
		var u TagUsage
		if err := rows.Scan(&u.Name, &u.Songs); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}
