package geo

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"go.uber.org/multierr"
)

const maxmindDownloadURL = "https://download.maxmind.com/app/geoip_download?edition_id=%s&license_key=%s&suffix=tar.gz"

// MaxMindDB answers lookups offline from GeoLite2 City and ASN databases.
type MaxMindDB struct {
	cityDB     *maxminddb.Reader
	asnDB      *maxminddb.Reader
	licenseKey string
	cityPath   string
	asnPath    string
	client     *http.Client
	mu         sync.RWMutex
}

// MaxMindConfig holds configuration for the offline databases.
type MaxMindConfig struct {
	LicenseKey string `yaml:"license_key"`
	CityDBPath string `yaml:"city_db"`
	ASNDBPath  string `yaml:"asn_db"`
}

type maxmindCityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
}

type maxmindASNRecord struct {
	AutonomousSystemNumber       uint   `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// OpenMaxMind opens whichever configured database files exist. Missing
// files are not an error; Locate then reports ErrNoLocalData.
func OpenMaxMind(cfg MaxMindConfig) (*MaxMindDB, error) {
	db := &MaxMindDB{
		licenseKey: cfg.LicenseKey,
		cityPath:   cfg.CityDBPath,
		asnPath:    cfg.ASNDBPath,
		client:     &http.Client{Timeout: 5 * time.Minute},
	}
	if err := db.open(); err != nil {
		return nil, err
	}
	return db, nil
}

// open must be called with the write lock held or before db is shared.
func (db *MaxMindDB) open() error {
	city, err := openIfExists(db.cityPath)
	if err != nil {
		return fmt.Errorf("open city database: %w", err)
	}
	asn, err := openIfExists(db.asnPath)
	if err != nil {
		if city != nil {
			city.Close()
		}
		return fmt.Errorf("open ASN database: %w", err)
	}
	db.cityDB, db.asnDB = city, asn
	return nil
}

func openIfExists(path string) (*maxminddb.Reader, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return maxminddb.Open(path)
}

// Loaded reports whether at least one database is open.
func (db *MaxMindDB) Loaded() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.cityDB != nil || db.asnDB != nil
}

// Locate implements Locator. The ASN organization fills ISP.
func (db *MaxMindDB) Locate(ctx context.Context, ip string) (Record, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return Record{}, fmt.Errorf("invalid IP %q: %w", ip, ErrNoLocalData)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.cityDB == nil && db.asnDB == nil {
		return Record{}, ErrNoLocalData
	}

	rec := Record{IP: ip}
	if db.cityDB != nil {
		var city maxmindCityRecord
		if err := db.cityDB.Lookup(addr, &city); err != nil {
			return Record{}, fmt.Errorf("city lookup: %w", err)
		}
		rec.Country = city.Country.Names["en"]
		rec.City = city.City.Names["en"]
		if len(city.Subdivisions) > 0 {
			rec.Region = city.Subdivisions[0].Names["en"]
		}
	}
	if db.asnDB != nil {
		var asn maxmindASNRecord
		if err := db.asnDB.Lookup(addr, &asn); err != nil {
			return Record{}, fmt.Errorf("ASN lookup: %w", err)
		}
		rec.ISP = asn.AutonomousSystemOrganization
	}

	if rec.IsEmpty() {
		return rec, ErrNoLocalData
	}
	return rec, nil
}

// Close releases database resources.
func (db *MaxMindDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.closeLocked()
}

func (db *MaxMindDB) closeLocked() error {
	var err error
	if db.cityDB != nil {
		err = multierr.Append(err, db.cityDB.Close())
		db.cityDB = nil
	}
	if db.asnDB != nil {
		err = multierr.Append(err, db.asnDB.Close())
		db.asnDB = nil
	}
	return err
}

// NeedsUpdate reports whether a configured database is missing or older
// than maxAge.
func (db *MaxMindDB) NeedsUpdate(maxAge time.Duration) bool {
	for _, path := range []string{db.cityPath, db.asnPath} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err != nil || time.Since(info.ModTime()) > maxAge {
			return true
		}
	}
	return false
}

// DownloadDatabases fetches the latest GeoLite2 editions and reopens them.
func (db *MaxMindDB) DownloadDatabases(ctx context.Context) error {
	if db.licenseKey == "" {
		return fmt.Errorf("maxmind: %w", ErrMissingAPIKey)
	}

	if db.cityPath != "" {
		if err := db.download(ctx, "GeoLite2-City", db.cityPath); err != nil {
			return fmt.Errorf("download city database: %w", err)
		}
	}
	if db.asnPath != "" {
		if err := db.download(ctx, "GeoLite2-ASN", db.asnPath); err != nil {
			return fmt.Errorf("download ASN database: %w", err)
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.closeLocked(); err != nil {
		return err
	}
	return db.open()
}

// UpdateIfNeeded downloads the databases when NeedsUpdate reports so.
func (db *MaxMindDB) UpdateIfNeeded(ctx context.Context, maxAge time.Duration) error {
	if !db.NeedsUpdate(maxAge) {
		return nil
	}
	return db.DownloadDatabases(ctx)
}

func (db *MaxMindDB) download(ctx context.Context, edition, destPath string) error {
	url := fmt.Sprintf(maxmindDownloadURL, edition, db.licenseKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := db.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	return extractMMDB(resp.Body, destPath)
}

// extractMMDB writes the first .mmdb member of a tar.gz stream to
// destPath, replacing it atomically.
func extractMMDB(r io.Reader, destPath string) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("no .mmdb file found in archive")
		}
		if err != nil {
			return err
		}
		if !strings.HasSuffix(header.Name, ".mmdb") {
			continue
		}

		tmp, err := os.CreateTemp(filepath.Dir(destPath), ".mmdb-*")
		if err != nil {
			return err
		}
		if _, err := io.Copy(tmp, tr); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		return os.Rename(tmp.Name(), destPath)
	}
}
