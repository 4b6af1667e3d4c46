package journal

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations must be listed in ascending version order.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	seq         INTEGER NOT NULL,
	goal_index  INTEGER NOT NULL,
	goal_name   TEXT NOT NULL,
	goal_kind   TEXT NOT NULL,
	points      INTEGER NOT NULL,
	bonus       INTEGER NOT NULL DEFAULT 0,
	accepted    INTEGER NOT NULL,
	finished    INTEGER NOT NULL DEFAULT 0,
	milestone   INTEGER NOT NULL DEFAULT 0,
	recorded_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_events_seq ON events(seq);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
