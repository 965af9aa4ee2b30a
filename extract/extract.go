// Package extract walks a mirror of gzipped SDF archives, verifying md5
// sidecars and handing decompressed scratch files to a handler.
package extract

import (
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/azer/logger"
	"github.com/pkg/errors"
)

var log = logger.New("extract")

// Walk visits every .gz archive under dir. Archive failures are logged
// and skipped, a corrupt dump file never aborts the walk.
func Walk(dir string, handler func(path string) error) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".gz" {
			return nil
		}
		if err := Archive(path, handler); err != nil {
			log.Error("unable to process archive", logger.Attrs{"archive": path, "err": err})
		}
		return nil
	})
}

// VerifyAll checks every archive under dir against its md5 sidecar
// without extracting anything. Failures are logged and counted so one
// bad archive does not hide the rest.
func VerifyAll(dir string) error {
	failed := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".gz" {
			return nil
		}
		if err := VerifyChecksum(path); err != nil {
			log.Error("archive failed verification", logger.Attrs{"archive": path, "err": err})
			failed++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return errors.Errorf("%d archives failed verification", failed)
	}
	return nil
}

// Archive verifies the archive against its md5 sidecar when one exists,
// gunzips it next to itself and hands the scratch file to handler. The
// scratch file is removed afterwards.
func Archive(path string, handler func(path string) error) error {
	if err := VerifyChecksum(path); err != nil {
		return err
	}

	extracted, err := gunzip(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(extracted); err != nil {
			log.Error("unable to remove scratch file", logger.Attrs{"file": extracted, "err": err})
		}
	}()

	return handler(extracted)
}

// VerifyChecksum compares an archive against its <name>.md5 sidecar.
// A missing sidecar is not an error, the mirror may predate it.
func VerifyChecksum(archive string) error {
	sidecar := archive + ".md5"
	b, err := os.ReadFile(sidecar)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "unable to read checksum sidecar")
	}

	// format: <hex digest> <filename>
	fields := strings.Fields(string(b))
	if len(fields) == 0 || len(fields[0]) != md5.Size*2 {
		return errors.Errorf("malformed checksum sidecar %s", sidecar)
	}
	want := strings.ToLower(fields[0])

	f, err := os.Open(archive)
	if err != nil {
		return errors.Wrap(err, "unable to open archive")
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrap(err, "unable to hash archive")
	}
	got := hex.EncodeToString(h.Sum(nil))

	if got != want {
		return errors.Errorf("checksum mismatch for %s: %s != %s", archive, got, want)
	}
	return nil
}

func gunzip(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to open archive")
	}
	defer src.Close()

	gz, err := gzip.NewReader(src)
	if err != nil {
		return "", errors.Wrap(err, "archive is not valid gzip")
	}
	defer gz.Close()

	target := strings.TrimSuffix(path, ".gz")
	dst, err := os.Create(target)
	if err != nil {
		return "", errors.Wrap(err, "unable to create scratch file")
	}

	if _, err := io.Copy(dst, gz); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return "", errors.Wrap(err, "archive is truncated or corrupt")
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(target)
		return "", err
	}

	return target, nil
}
