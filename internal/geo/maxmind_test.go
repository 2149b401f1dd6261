package geo

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMaxMind_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenMaxMind(MaxMindConfig{
		CityDBPath: filepath.Join(dir, "GeoLite2-City.mmdb"),
		ASNDBPath:  filepath.Join(dir, "GeoLite2-ASN.mmdb"),
	})
	if err != nil {
		t.Fatalf("OpenMaxMind() error = %v", err)
	}
	defer db.Close()

	if db.Loaded() {
		t.Error("Loaded() = true with no files")
	}
	if _, err := db.Locate(context.Background(), "8.8.8.8"); !errors.Is(err, ErrNoLocalData) {
		t.Errorf("Locate() error = %v, want ErrNoLocalData", err)
	}
	if !db.NeedsUpdate(time.Hour) {
		t.Error("NeedsUpdate() = false for missing files")
	}
	if err := db.DownloadDatabases(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("DownloadDatabases() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestExtractMMDB(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	files := []struct{ name, body string }{
		{"GeoLite2-City_20250101/LICENSE.txt", "license"},
		{"GeoLite2-City_20250101/GeoLite2-City.mmdb", "mmdb-bytes"},
	}
	for _, f := range files {
		tw.WriteHeader(&tar.Header{Name: f.name, Mode: 0644, Size: int64(len(f.body))})
		tw.Write([]byte(f.body))
	}
	tw.Close()
	gz.Close()

	dest := filepath.Join(t.TempDir(), "city.mmdb")
	if err := extractMMDB(&buf, dest); err != nil {
		t.Fatalf("extractMMDB() error = %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "mmdb-bytes" {
		t.Errorf("extracted %q, want mmdb-bytes", got)
	}
}
