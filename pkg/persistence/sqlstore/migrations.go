package sqlstore

import "github.com/dukex/webmonitor/pkg/persistence/sqlbase"

func migrations(dialect sqlbase.Dialect) map[int]string {
	if dialect == sqlbase.SQLite {
		return map[int]string{
			1: `
				CREATE TABLE websites (
					position INTEGER NOT NULL,
					url TEXT PRIMARY KEY
				);

				CREATE INDEX idx_websites_position ON websites(position);

				CREATE TABLE schedule (
					weekday INTEGER PRIMARY KEY CHECK (weekday BETWEEN 0 AND 6),
					time_of_day TEXT NOT NULL
				);
			`,
		}
	}

	return map[int]string{
		1: `
			CREATE TABLE websites (
				position INTEGER NOT NULL,
				url TEXT PRIMARY KEY
			);

			CREATE INDEX idx_websites_position ON websites(position);

			CREATE TABLE schedule (
				weekday SMALLINT PRIMARY KEY CHECK (weekday BETWEEN 0 AND 6),
				time_of_day VARCHAR(5) NOT NULL
			);
		`,
	}
}
