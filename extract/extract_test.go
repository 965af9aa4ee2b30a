package extract

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T, dir, name, content string) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeSidecar(t *testing.T, archive string) {
	t.Helper()
	b, err := os.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	sum := md5.Sum(b)
	line := fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), filepath.Base(archive))
	if err := os.WriteFile(archive+".md5", []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "Compound_000000001_000500000.sdf.gz", "hello sdf")
	writeSidecar(t, archive)

	var received string
	err := Archive(archive, func(path string) error {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		received = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("archive processing failed: %v", err)
	}
	if received != "hello sdf" {
		t.Errorf("unexpected extracted content %q", received)
	}

	// scratch file must be gone
	scratch := filepath.Join(dir, "Compound_000000001_000500000.sdf")
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("scratch file %s was not removed", scratch)
	}
}

func TestVerifyChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "a.sdf.gz", "payload")
	bad := fmt.Sprintf("%032d  a.sdf.gz\n", 0)
	if err := os.WriteFile(archive+".md5", []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := VerifyChecksum(archive); err == nil {
		t.Error("expected checksum mismatch error")
	}
}

func TestVerifyChecksumMissingSidecar(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "a.sdf.gz", "payload")

	if err := VerifyChecksum(archive); err != nil {
		t.Errorf("missing sidecar should not be an error: %v", err)
	}
}

func TestVerifyAll(t *testing.T) {
	dir := t.TempDir()
	good := writeArchive(t, dir, "good.sdf.gz", "good payload")
	writeSidecar(t, good)

	if err := VerifyAll(dir); err != nil {
		t.Fatalf("verification of a clean mirror failed: %v", err)
	}

	bad := writeArchive(t, dir, "bad.sdf.gz", "bad payload")
	wrong := fmt.Sprintf("%032d  bad.sdf.gz\n", 0)
	if err := os.WriteFile(bad+".md5", []byte(wrong), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := VerifyAll(dir); err == nil {
		t.Error("expected an error for a mismatched sidecar")
	}

	// verification must never gunzip anything into the mirror
	if _, err := os.Stat(filepath.Join(dir, "good.sdf")); !os.IsNotExist(err) {
		t.Error("verification left an extracted file behind")
	}
}

func TestWalkSkipsCorruptArchives(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "good.sdf.gz", "good")
	if err := os.WriteFile(filepath.Join(dir, "bad.sdf.gz"), []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}

	var handled []string
	err := Walk(dir, func(path string) error {
		handled = append(handled, filepath.Base(path))
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if len(handled) != 1 || handled[0] != "good.sdf" {
		t.Errorf("expected only the good archive, received %v", handled)
	}
}
