package store

import (
	"database/sql"
	"fmt"

	"github.com/scmmishra/geolink/internal/db"
	"github.com/scmmishra/geolink/internal/models"
)

// SQLite stores links and their event sequences in relational tables.
// Since events are append-only, Save only inserts rows past what is
// already on disk.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{db: database}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load() (*models.State, error) {
	state := &models.State{}
	index := make(map[string]int)

	rows, err := s.db.Query(`SELECT tracking_id, original_url, created_at FROM links ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.TrackingID, &l.OriginalURL, &l.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan link: %w", err)
		}
		index[l.TrackingID] = len(state.Links)
		state.Links = append(state.Links, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}

	if err := s.loadClicks(state, index); err != nil {
		return nil, err
	}
	if err := s.loadLocations(state, index); err != nil {
		return nil, err
	}
	return normalize(state), nil
}

func (s *SQLite) loadClicks(state *models.State, index map[string]int) error {
	rows, err := s.db.Query(`SELECT tracking_id, clicked_at, ip, country, region, city, latitude, longitude, device_type, browser, os, referrer FROM clicks ORDER BY tracking_id, seq`)
	if err != nil {
		return fmt.Errorf("load clicks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var c models.ClickEvent
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&id, &c.Timestamp, &c.IPAddress, &c.Country, &c.Region, &c.City, &lat, &lng, &c.DeviceType, &c.Browser, &c.OS, &c.Referrer); err != nil {
			return fmt.Errorf("scan click: %w", err)
		}
		c.Latitude = floatPtr(lat)
		c.Longitude = floatPtr(lng)
		i, ok := index[id]
		if !ok {
			continue
		}
		state.Links[i].Clicks = append(state.Links[i].Clicks, c)
	}
	return rows.Err()
}

func (s *SQLite) loadLocations(state *models.State, index map[string]int) error {
	rows, err := s.db.Query(`SELECT tracking_id, recorded_at, lat, lng, accuracy, source FROM location_entries ORDER BY tracking_id, seq`)
	if err != nil {
		return fmt.Errorf("load location entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var e models.LocationEntry
		var accuracy sql.NullFloat64
		if err := rows.Scan(&id, &e.Timestamp, &e.Location.Lat, &e.Location.Lng, &accuracy, &e.Location.Source); err != nil {
			return fmt.Errorf("scan location entry: %w", err)
		}
		e.Location.Accuracy = floatPtr(accuracy)
		i, ok := index[id]
		if !ok {
			continue
		}
		state.Links[i].LocationEntries = append(state.Links[i].LocationEntries, e)
	}
	return rows.Err()
}

func (s *SQLite) Save(state *models.State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	known, err := knownLinks(tx)
	if err != nil {
		return err
	}
	clickCounts, err := seqCounts(tx, "clicks")
	if err != nil {
		return err
	}
	locationCounts, err := seqCounts(tx, "location_entries")
	if err != nil {
		return err
	}

	linkStmt, err := tx.Prepare(`INSERT INTO links (tracking_id, original_url, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer linkStmt.Close()

	clickStmt, err := tx.Prepare(`INSERT INTO clicks (tracking_id, seq, clicked_at, ip, country, region, city, latitude, longitude, device_type, browser, os, referrer) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer clickStmt.Close()

	locStmt, err := tx.Prepare(`INSERT INTO location_entries (tracking_id, seq, recorded_at, lat, lng, accuracy, source) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer locStmt.Close()

	for _, l := range state.Links {
		if !known[l.TrackingID] {
			if _, err := linkStmt.Exec(l.TrackingID, l.OriginalURL, l.CreatedAt); err != nil {
				return fmt.Errorf("insert link %s: %w", l.TrackingID, err)
			}
		}
		for seq := clickCounts[l.TrackingID]; seq < len(l.Clicks); seq++ {
			c := l.Clicks[seq]
			_, err := clickStmt.Exec(
				l.TrackingID, seq, c.Timestamp, c.IPAddress, c.Country, c.Region, c.City,
				nullFloat(c.Latitude), nullFloat(c.Longitude),
				c.DeviceType, c.Browser, c.OS, c.Referrer,
			)
			if err != nil {
				return fmt.Errorf("insert click: %w", err)
			}
		}
		for seq := locationCounts[l.TrackingID]; seq < len(l.LocationEntries); seq++ {
			e := l.LocationEntries[seq]
			_, err := locStmt.Exec(
				l.TrackingID, seq, e.Timestamp, e.Location.Lat, e.Location.Lng,
				nullFloat(e.Location.Accuracy), e.Location.Source,
			)
			if err != nil {
				return fmt.Errorf("insert location entry: %w", err)
			}
		}
	}

	return tx.Commit()
}

func knownLinks(tx *sql.Tx) (map[string]bool, error) {
	rows, err := tx.Query(`SELECT tracking_id FROM links`)
	if err != nil {
		return nil, fmt.Errorf("known links: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan link id: %w", err)
		}
		known[id] = true
	}
	return known, rows.Err()
}

// seqCounts returns how many rows of table each link already has.
func seqCounts(tx *sql.Tx, table string) (map[string]int, error) {
	rows, err := tx.Query(fmt.Sprintf(`SELECT tracking_id, COUNT(*) FROM %s GROUP BY tracking_id`, table))
	if err != nil {
		return nil, fmt.Errorf("%s counts: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", table, err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
