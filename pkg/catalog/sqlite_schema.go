package catalog

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// Schema creates the catalog tables. Times are UTC epoch seconds stored as REAL.
const Schema = `
CREATE TABLE IF NOT EXISTS recordings (
    id TEXT PRIMARY KEY,
    camera TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    start_time REAL NOT NULL,
    end_time REAL NOT NULL,
    objects INTEGER NOT NULL DEFAULT 0,
    motion INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_recordings_camera_start ON recordings(camera, start_time);
CREATE INDEX IF NOT EXISTS idx_recordings_end ON recordings(end_time);

CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    camera TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    start_time REAL NOT NULL,
    end_time REAL,
    has_clip INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_event_camera_start ON event(camera, start_time);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at REAL NOT NULL
);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, CAST(strftime('%s','now') AS REAL))`

// GetSchemaVersion reads the newest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`
