// Package mirror maintains a local copy of the PubChem compound dump
// published on the NCBI FTP server.
package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/azer/logger"
	"github.com/dustin/go-humanize"
	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/MysterionRise/chemical-similarity/events"
)

var log = logger.New("mirror")

// md5 sidecars first so archives can be verified as they land
var supExtensions = []string{".md5", ".gz"}

const retryDelay = 5 * time.Second

type Loader struct {
	host      string
	user      string
	pass      string
	remoteDir string
	dataDir   string
}

func NewLoader() *Loader {
	return &Loader{
		host:      viper.GetString("pubchem.ftp.host"),
		user:      viper.GetString("pubchem.ftp.user"),
		pass:      viper.GetString("pubchem.ftp.pass"),
		remoteDir: viper.GetString("pubchem.ftp.dir"),
		dataDir:   viper.GetString("pubchem.dataDir"),
	}
}

// FullDownload mirrors the remote dump directory until a pass completes
// without error. FTP servers at NCBI drop long sessions routinely, so a
// failed pass sleeps briefly and resumes where the local diff left off.
func (l *Loader) FullDownload(ctx context.Context) error {
	for {
		err := l.downloadPass(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Error("download pass failed, retrying", logger.Attrs{"err": err, "delay": retryDelay.String()})
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loader) downloadPass(ctx context.Context) error {
	conn, err := l.connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			log.Error("ftp quit failed", logger.Attrs{"err": err})
		}
	}()

	names, err := conn.NameList(l.remoteDir)
	if err != nil {
		return errors.Wrapf(err, "unable to list %s", l.remoteDir)
	}

	for _, ext := range supExtensions {
		local, err := localNames(filepath.Join(l.dataDir, filepath.FromSlash(l.remoteDir)), ext)
		if err != nil {
			return err
		}

		missing := Diff(names, local, ext)
		if len(missing) > 0 {
			log.Info("%d %s files missing from the mirror", len(missing), ext)
		}

		for _, remote := range missing {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := l.fetch(conn, remote); err != nil {
				return errors.Wrapf(err, "unable to fetch %s", remote)
			}
		}
	}

	return nil
}

func (l *Loader) connect() (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(l.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to dial %s", l.host)
	}
	if err := conn.Login(l.user, l.pass); err != nil {
		_ = conn.Quit()
		return nil, errors.Wrap(err, "ftp login failed")
	}
	return conn, nil
}

func (l *Loader) fetch(conn *ftp.ServerConn, remote string) error {
	local := filepath.Join(l.dataDir, filepath.FromSlash(remote))
	if err := os.MkdirAll(filepath.Dir(local), os.ModePerm); err != nil {
		return err
	}

	t := log.Timer()
	resp, err := conn.Retr(remote)
	if err != nil {
		return err
	}

	// land in a scratch name so partial downloads never satisfy the diff
	part := local + ".part"
	f, err := os.Create(part)
	if err != nil {
		_ = resp.Close()
		return err
	}

	n, err := io.Copy(f, resp)
	_ = resp.Close()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(part)
		return err
	}

	if err := os.Rename(part, local); err != nil {
		_ = os.Remove(part)
		return err
	}

	t.End("downloaded %s (%s)", local, humanize.Bytes(uint64(n)))

	if strings.HasSuffix(local, ".gz") {
		events.Publish("pubchem:archive", local)
	}
	return nil
}

func localNames(dir string, ext string) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return names, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read mirror directory %s", dir)
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			names[e.Name()] = struct{}{}
		}
	}
	return names, nil
}
