package geo

import (
	"fmt"
	"net"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// Result is the coarse location of an IP address. Fields the database does
// not carry for an address are left empty.
type Result struct {
	Country   string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
}

// cityRecord is the subset of a GeoIP2/GeoLite2 City record we decode.
type cityRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"subdivisions"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

func (c *cityRecord) result() Result {
	res := Result{
		Country:   c.Country.ISOCode,
		City:      c.City.Names["en"],
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
	}
	if len(c.Subdivisions) > 0 {
		res.Region = c.Subdivisions[0].ISOCode
	}
	return res
}

// Reader looks addresses up in a MaxMind database. The zero Reader has no
// database and misses every lookup.
type Reader struct {
	db *maxminddb.Reader
}

// Open opens a MaxMind .mmdb file. An empty path gives a no-op Reader.
func Open(path string) (*Reader, error) {
	if path == "" {
		return &Reader{}, nil
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() {
	if r != nil && r.db != nil {
		r.db.Close()
	}
}

// Describe names the loaded database and its build date, for startup logs.
func (r *Reader) Describe() string {
	if r == nil || r.db == nil {
		return "none"
	}
	built := time.Unix(int64(r.db.Metadata.BuildEpoch), 0).UTC()
	return fmt.Sprintf("%s (built %s)", r.db.Metadata.DatabaseType, built.Format(time.DateOnly))
}

// Lookup resolves an IP to geo data. The bool is false when the reader has
// no database, the IP does not parse, or the address is not in the database.
func (r *Reader) Lookup(ipStr string) (Result, bool) {
	if r == nil || r.db == nil {
		return Result{}, false
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Result{}, false
	}

	var rec cityRecord
	if _, ok, err := r.db.LookupNetwork(ip, &rec); err != nil || !ok {
		return Result{}, false
	}
	return rec.result(), true
}
