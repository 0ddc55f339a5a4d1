package library

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graevy/mag/internal/query"
	"github.com/graevy/mag/internal/report"
	"github.com/graevy/mag/internal/store"
	"github.com/graevy/mag/internal/util"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	return New(&Config{DBPath: filepath.Join(t.TempDir(), "music.db")})
}

func songPaths(songs []store.Song) []string {
	paths := make([]string, len(songs))
	for i, s := range songs {
		paths[i] = s.Path
	}
	return paths
}

func mustQuery(t *testing.T, lib *Library, conds ...string) []string {
	t.Helper()
	parsed, err := query.ParseConditions(conds)
	require.NoError(t, err)
	songs, err := lib.QuerySongs(parsed)
	require.NoError(t, err)
	return songPaths(songs)
}

// seed adds songs and tags and applies "path:tag=value" assignments
func seed(t *testing.T, lib *Library, assignments map[string]map[string]int) {
	t.Helper()
	for path, tags := range assignments {
		require.NoError(t, lib.AddSong(path))
		for name, value := range tags {
			require.NoError(t, lib.AddTag(name))
			require.NoError(t, lib.TagSong(path, name, value))
		}
	}
}

func withDB(t *testing.T, lib *Library, fn func(tx *sql.Tx) error) {
	t.Helper()
	s, err := lib.Connect()
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Transaction(fn))
}

func count(t *testing.T, lib *Library, q string, args ...any) int {
	t.Helper()
	var n int
	withDB(t, lib, func(tx *sql.Tx) error {
		return tx.QueryRow(q, args...).Scan(&n)
	})
	return n
}

func TestConnectCreatesSchema(t *testing.T) {
	lib := newTestLibrary(t)

	s, err := lib.Connect()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(lib.Path())
	assert.NoError(t, err)

	// A second connect on an existing file migrates nothing and loses nothing
	require.NoError(t, lib.AddSong("/m/a.mp3"))
	s, err = lib.Connect()
	require.NoError(t, err)
	n, err := s.CountSongs()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	s.Close()
}

func TestConnectUnavailable(t *testing.T) {
	lib := New(&Config{DBPath: filepath.Join(t.TempDir(), "missing", "dir", "music.db")})

	_, err := lib.Connect()
	assert.ErrorIs(t, err, util.ErrStorageUnavailable)

	err = lib.AddSong("/m/a.mp3")
	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
}

func TestNewDefaultsPath(t *testing.T) {
	lib := New(&Config{})
	assert.Equal(t, util.DefaultDBPath, lib.Path())
}

func TestAddSongIdempotent(t *testing.T) {
	lib := newTestLibrary(t)

	require.NoError(t, lib.AddSong("/m/a.mp3"))
	require.NoError(t, lib.AddSong("/m/a.mp3"))

	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM songs WHERE path = ?", "/m/a.mp3"))
}

func TestAddSongs(t *testing.T) {
	lib := newTestLibrary(t)
	require.NoError(t, lib.AddSong("/m/b.mp3"))

	added, err := lib.AddSongs([]string{"/m/a.mp3", "/m/b.mp3", "/m/c.mp3", "/m/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 3, count(t, lib, "SELECT COUNT(*) FROM songs"))
}

func TestAddTagIdempotent(t *testing.T) {
	lib := newTestLibrary(t)

	require.NoError(t, lib.AddTag("energy"))
	require.NoError(t, lib.AddTag("energy"))
	require.NoError(t, lib.AddTag(" energy "))

	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM tags"))
}

func TestTagNamesNormalized(t *testing.T) {
	lib := newTestLibrary(t)
	require.NoError(t, lib.AddSong("/m/a.mp3"))

	// Decomposed and precomposed spellings name the same tag
	require.NoError(t, lib.AddTag("caf\u00e9"))
	require.NoError(t, lib.AddTag("cafe\u0301"))
	require.NoError(t, lib.TagSong("/m/a.mp3", "cafe\u0301", 3))

	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM tags"))
	assert.Equal(t, []string{"/m/a.mp3"}, mustQuery(t, lib, "caf\u00e9=3"))
}

func TestTagSongOverwrites(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{"/m/a.mp3": {"mood": 4}})

	require.NoError(t, lib.TagSong("/m/a.mp3", "mood", 7))

	tags, err := lib.SongTags("/m/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, []store.TagValue{{Name: "mood", Value: 7}}, tags)
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM song_tags"))
}

func TestTagSongBounds(t *testing.T) {
	lib := newTestLibrary(t)
	require.NoError(t, lib.AddSong("/m/a.mp3"))
	require.NoError(t, lib.AddTag("mood"))

	for _, v := range []int{0, 9} {
		assert.NoError(t, lib.TagSong("/m/a.mp3", "mood", v), "value %d", v)
	}
	for _, v := range []int{-1, 10, 100} {
		err := lib.TagSong("/m/a.mp3", "mood", v)
		assert.ErrorIs(t, err, util.ErrConstraintViolation, "value %d", v)
	}

	tags, err := lib.SongTags("/m/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, []store.TagValue{{Name: "mood", Value: 9}}, tags)
}

func TestTagSongMissing(t *testing.T) {
	lib := newTestLibrary(t)
	require.NoError(t, lib.AddSong("/m/a.mp3"))
	require.NoError(t, lib.AddTag("mood"))

	err := lib.TagSong("/m/missing.mp3", "mood", 3)
	assert.ErrorIs(t, err, util.ErrNotFound)

	err = lib.TagSong("/m/a.mp3", "missing", 3)
	assert.ErrorIs(t, err, util.ErrNotFound)

	assert.Equal(t, 0, count(t, lib, "SELECT COUNT(*) FROM song_tags"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM songs"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM tags"))
}

func TestRemoveSongCascades(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{
		"/m/a.mp3": {"mood": 4, "energy": 2},
		"/m/b.mp3": {"mood": 5},
	})

	withDB(t, lib, func(tx *sql.Tx) error {
		for _, path := range []string{"/m/a.mp3", "/m/b.mp3"} {
			res, err := tx.Exec(`INSERT INTO play_events (song_id) SELECT id FROM songs WHERE path = ?`, path)
			if err != nil {
				return err
			}
			eventID, _ := res.LastInsertId()
			if _, err := tx.Exec(`INSERT INTO feedback (play_event_id, tag_id, feedback)
				SELECT ?, id, 1 FROM tags WHERE name = 'mood'`, eventID); err != nil {
				return err
			}
		}
		return nil
	})

	require.NoError(t, lib.RemoveSong("/m/a.mp3"))

	assert.Equal(t, 0, count(t, lib, "SELECT COUNT(*) FROM songs WHERE path = ?", "/m/a.mp3"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM song_tags"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM play_events"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM feedback"))
	assert.Equal(t, 2, count(t, lib, "SELECT COUNT(*) FROM tags"))

	assert.Empty(t, mustQuery(t, lib, "energy>=0"))
	assert.Equal(t, []string{"/m/b.mp3"}, mustQuery(t, lib, "mood>=0"))
}

func TestRemoveMissingIsNoop(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{"/m/a.mp3": {"mood": 4}})

	require.NoError(t, lib.RemoveSong("/m/missing.mp3"))
	require.NoError(t, lib.RemoveTag("missing"))

	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM songs"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM tags"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM song_tags"))
}

func TestRemoveTagCascades(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{
		"/m/a.mp3": {"mood": 4, "energy": 2},
		"/m/b.mp3": {"mood": 5},
	})

	withDB(t, lib, func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO play_events (song_id) SELECT id FROM songs WHERE path = '/m/a.mp3'`)
		if err != nil {
			return err
		}
		eventID, _ := res.LastInsertId()
		_, err = tx.Exec(`INSERT INTO feedback (play_event_id, tag_id, feedback)
			SELECT ?, id, -1 FROM tags`, eventID)
		return err
	})

	require.NoError(t, lib.RemoveTag("mood"))

	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM tags"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM song_tags"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM feedback"))
	assert.Equal(t, 1, count(t, lib, "SELECT COUNT(*) FROM play_events"))
	assert.Equal(t, 2, count(t, lib, "SELECT COUNT(*) FROM songs"))

	assert.Empty(t, mustQuery(t, lib, "mood>=0"))
}

func TestQuerySongs(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{
		"/m/c.mp3": {"energy": 8, "mood": 3},
		"/m/a.mp3": {"energy": 5, "mood": 7},
		"/m/b.mp3": {"energy": 9},
		"/m/d.mp3": {},
	})

	tests := []struct {
		conds []string
		want  []string
	}{
		{[]string{"energy>5"}, []string{"/m/b.mp3", "/m/c.mp3"}},
		{[]string{"energy>=5"}, []string{"/m/a.mp3", "/m/b.mp3", "/m/c.mp3"}},
		{[]string{"energy=5"}, []string{"/m/a.mp3"}},
		{[]string{"energy!=5"}, []string{"/m/b.mp3", "/m/c.mp3"}},
		{[]string{"energy<9"}, []string{"/m/a.mp3", "/m/c.mp3"}},
		{[]string{"energy<=5"}, []string{"/m/a.mp3"}},
		{[]string{"energy>5", "mood<5"}, []string{"/m/c.mp3"}},
		{[]string{"energy>=0", "mood>=0"}, []string{"/m/a.mp3", "/m/c.mp3"}},
		{[]string{"mood!=3"}, []string{"/m/a.mp3"}},
		{[]string{"unknown=1"}, []string{}},
		{[]string{"energy>9"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.conds), func(t *testing.T) {
			assert.Equal(t, tt.want, mustQuery(t, lib, tt.conds...))
		})
	}
}

func TestQuerySongsSameTagTwice(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{
		"/m/a.mp3": {"energy": 3},
		"/m/b.mp3": {"energy": 5},
		"/m/c.mp3": {"energy": 8},
	})

	assert.Equal(t, []string{"/m/b.mp3"}, mustQuery(t, lib, "energy>=4", "energy<=6"))
	assert.Empty(t, mustQuery(t, lib, "energy>5", "energy<5"))
}

func TestQuerySongsEmptyConditions(t *testing.T) {
	// The path cannot be opened, so any connection attempt would fail
	lib := New(&Config{DBPath: filepath.Join(t.TempDir(), "missing", "music.db")})

	songs, err := lib.QuerySongs(nil)
	require.NoError(t, err)
	assert.NotNil(t, songs)
	assert.Empty(t, songs)
}

func TestQuerySongsNormalizesConditionTags(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{
		"/m/a.mp3": {"caf\u00e9": 3, "mood": 4},
		"/m/b.mp3": {"caf\u00e9": 5},
	})

	for _, tag := range []string{"cafe\u0301", " caf\u00e9 ", "caf\u00e9"} {
		songs, err := lib.QuerySongs([]query.Condition{{Tag: tag, Op: query.OpEqual, Value: 3}})
		require.NoError(t, err)
		assert.Equal(t, []string{"/m/a.mp3"}, songPaths(songs), "tag %q", tag)
	}

	songs, err := lib.QuerySongs([]query.Condition{{Tag: " mood ", Op: query.OpGreater, Value: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/m/a.mp3"}, songPaths(songs))

	_, err = lib.QuerySongs([]query.Condition{{Tag: "  ", Op: query.OpEqual, Value: 1}})
	assert.ErrorIs(t, err, query.ErrEmptyTagName)
}

func TestQuerySongsRejectsInvalidOperator(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.QuerySongs([]query.Condition{{Tag: "mood", Op: query.Operator(0), Value: 1}})
	assert.ErrorIs(t, err, util.ErrInvalidOperator)

	_, err = lib.QuerySongs([]query.Condition{{Tag: "mood", Op: query.Operator(42), Value: 1}})
	assert.ErrorIs(t, err, util.ErrInvalidOperator)
}

func TestQuerySongsHostileTagName(t *testing.T) {
	lib := newTestLibrary(t)
	hostile := "x' OR '1'='1"
	seed(t, lib, map[string]map[string]int{
		"/m/a.mp3": {"mood": 4},
		"/m/b.mp3": {hostile: 2},
	})

	songs, err := lib.QuerySongs([]query.Condition{{Tag: hostile, Op: query.OpEqual, Value: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/m/b.mp3"}, songPaths(songs))
	assert.Equal(t, 2, count(t, lib, "SELECT COUNT(*) FROM songs"))
}

func TestQueryMatchesBruteForce(t *testing.T) {
	lib := newTestLibrary(t)
	rng := rand.New(rand.NewSource(7))
	tagNames := []string{"energy", "mood", "tempo"}

	library := make(map[string]map[string]int)
	for i := 0; i < 30; i++ {
		path := fmt.Sprintf("/m/%02d.flac", i)
		tags := make(map[string]int)
		for _, name := range tagNames {
			if rng.Intn(4) > 0 {
				tags[name] = rng.Intn(10)
			}
		}
		library[path] = tags
	}
	seed(t, lib, library)

	ops := []query.Operator{
		query.OpEqual, query.OpNotEqual, query.OpGreater,
		query.OpGreaterEqual, query.OpLess, query.OpLessEqual,
	}

	for round := 0; round < 40; round++ {
		n := 1 + rng.Intn(3)
		conds := make([]query.Condition, n)
		for i := range conds {
			conds[i] = query.Condition{
				Tag:   tagNames[rng.Intn(len(tagNames))],
				Op:    ops[rng.Intn(len(ops))],
				Value: rng.Intn(10),
			}
		}

		want := []string{}
		for path, tags := range library {
			match := true
			for _, c := range conds {
				v, ok := tags[c.Tag]
				if !ok || !c.Op.Matches(v, c.Value) {
					match = false
					break
				}
			}
			if match {
				want = append(want, path)
			}
		}
		sort.Strings(want)

		songs, err := lib.QuerySongs(conds)
		require.NoError(t, err)
		assert.Equal(t, want, songPaths(songs), "conditions %v", conds)
	}
}

func TestListTagsAndSummary(t *testing.T) {
	lib := newTestLibrary(t)
	seed(t, lib, map[string]map[string]int{
		"/m/a.mp3": {"mood": 4, "energy": 2},
		"/m/b.mp3": {"mood": 5},
	})
	require.NoError(t, lib.AddTag("unused"))

	usage, err := lib.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []store.TagUsage{
		{Name: "energy", Songs: 1},
		{Name: "mood", Songs: 2},
		{Name: "unused", Songs: 0},
	}, usage)

	stats, err := lib.Stats()
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Songs: 2, Tags: 3, Assignments: 3}, *stats)

	summary, err := lib.Summary()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Stats.Songs)
	assert.Equal(t, 3, summary.Stats.Tags)
	assert.Equal(t, 3, summary.Stats.Assignments)
}

func TestSongTagsNotFound(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.SongTags("/m/missing.mp3")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestOperationsWriteEvents(t *testing.T) {
	dir := t.TempDir()
	logger, err := report.NewEventLogger(dir, report.LevelInfo)
	require.NoError(t, err)

	lib := New(&Config{DBPath: filepath.Join(dir, "music.db"), Logger: logger})
	require.NoError(t, lib.AddSong("/m/a.mp3"))
	require.NoError(t, lib.AddTag("mood"))
	require.NoError(t, lib.TagSong("/m/a.mp3", "mood", 4))
	assert.Error(t, lib.TagSong("/m/a.mp3", "mood", 12))
	_ = mustQuery(t, lib, "mood=4")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	for _, want := range []string{`"event":"add_song"`, `"event":"add_tag"`, `"event":"tag_song"`, `"event":"query"`, `"level":"error"`} {
		assert.Contains(t, string(data), want)
	}
}
