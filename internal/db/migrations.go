package db

import "database/sql"

func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Event rows are keyed by their position in the parent link's sequence,
// so re-saving an append-only history never duplicates a row.
const schema = `
CREATE TABLE IF NOT EXISTS links (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    tracking_id   TEXT     NOT NULL UNIQUE,
    original_url  TEXT     NOT NULL,
    created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS clicks (
    tracking_id  TEXT     NOT NULL,
    seq          INTEGER  NOT NULL,
    clicked_at   DATETIME NOT NULL,
    ip           TEXT     NOT NULL DEFAULT '',
    country      TEXT     NOT NULL DEFAULT '',
    region       TEXT     NOT NULL DEFAULT '',
    city         TEXT     NOT NULL DEFAULT '',
    latitude     REAL,
    longitude    REAL,
    device_type  TEXT     NOT NULL DEFAULT '',
    browser      TEXT     NOT NULL DEFAULT '',
    os           TEXT     NOT NULL DEFAULT '',
    referrer     TEXT     NOT NULL DEFAULT '',
    PRIMARY KEY (tracking_id, seq),
    FOREIGN KEY (tracking_id) REFERENCES links(tracking_id)
);

CREATE TABLE IF NOT EXISTS location_entries (
    tracking_id  TEXT     NOT NULL,
    seq          INTEGER  NOT NULL,
    recorded_at  DATETIME NOT NULL,
    lat          REAL     NOT NULL,
    lng          REAL     NOT NULL,
    accuracy     REAL,
    source       TEXT     NOT NULL DEFAULT '',
    PRIMARY KEY (tracking_id, seq),
    FOREIGN KEY (tracking_id) REFERENCES links(tracking_id)
);
`
