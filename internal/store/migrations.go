package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS read_marks (
	id        TEXT PRIMARY KEY,
	marked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS feed_snapshot (
	position    INTEGER PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	message     TEXT NOT NULL,
	timestamp   DATETIME NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0,
	action_url  TEXT NOT NULL DEFAULT '',
	action_text TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}'
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_read_marks_marked_at ON read_marks(marked_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
