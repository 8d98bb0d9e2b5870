package store

// migration is a single schema step.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create turns",
		SQL: `
			CREATE TABLE turns (
				id              TEXT PRIMARY KEY,
				generation      INTEGER NOT NULL,
				kind            TEXT NOT NULL,
				outcome         TEXT NOT NULL,
				session_id      TEXT NOT NULL DEFAULT '',
				recommendations INTEGER NOT NULL DEFAULT 0,
				duration_ms     INTEGER NOT NULL DEFAULT 0,
				error           TEXT NOT NULL DEFAULT '',
				started_at      TEXT NOT NULL
			);

			CREATE INDEX idx_turns_started ON turns (started_at);
		`,
	},
	{
		Version: 2,
		Name:    "index turns by generation",
		SQL: `
			CREATE INDEX idx_turns_generation ON turns (generation, started_at);
		`,
	},
}
