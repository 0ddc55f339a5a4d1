package store

// Schema v1 - library tables
//
// songs, tags and song_tags carry all tagging state. contexts, play_events and
// feedback are recorded-history tables; nothing writes them yet, but deletes of
// songs and tags clear their rows first so no foreign key is left dangling.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Songs, identified by filesystem path
CREATE TABLE IF NOT EXISTS songs (
  id INTEGER PRIMARY KEY,
  path TEXT NOT NULL UNIQUE
);

-- Tag names
CREATE TABLE IF NOT EXISTS tags (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

-- One 0-9 value per (song, tag)
CREATE TABLE IF NOT EXISTS song_tags (
  song_id INTEGER NOT NULL REFERENCES songs(id),
  tag_id INTEGER NOT NULL REFERENCES tags(id),
  value INTEGER NOT NULL CHECK(value BETWEEN 0 AND 9),
  PRIMARY KEY (song_id, tag_id)
);

-- Issued queries, for correlating playback with the playlist that produced it
CREATE TABLE IF NOT EXISTS contexts (
  id INTEGER PRIMARY KEY,
  timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
  query TEXT NOT NULL
);

-- Playback sessions
CREATE TABLE IF NOT EXISTS play_events (
  id INTEGER PRIMARY KEY,
  song_id INTEGER NOT NULL REFERENCES songs(id),
  context_id INTEGER REFERENCES contexts(id),
  started_at DATETIME,
  ended_at DATETIME,
  skipped BOOLEAN DEFAULT 0
);

-- Signed per-tag feedback on a play event
CREATE TABLE IF NOT EXISTS feedback (
  id INTEGER PRIMARY KEY,
  play_event_id INTEGER NOT NULL REFERENCES play_events(id),
  tag_id INTEGER NOT NULL REFERENCES tags(id),
  feedback INTEGER NOT NULL CHECK(feedback IN (-1, 1))
);
`

// Schema v2 - lookup indexes for query joins and cascading deletes
const schemaV2 = `
-- Query engine joins song_tags by tag then filters on value
CREATE INDEX IF NOT EXISTS idx_song_tags_tag_value ON song_tags(tag_id, value);

-- Cascading deletes walk these foreign keys
CREATE INDEX IF NOT EXISTS idx_play_events_song ON play_events(song_id);
CREATE INDEX IF NOT EXISTS idx_feedback_play_event ON feedback(play_event_id);
CREATE INDEX IF NOT EXISTS idx_feedback_tag ON feedback(tag_id);
`
