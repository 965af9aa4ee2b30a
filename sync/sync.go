package sync

import (
	"context"
	"os"
	"path/filepath"

	"github.com/azer/logger"
	"github.com/dustin/go-humanize"

	"github.com/MysterionRise/chemical-similarity/datastore"
	"github.com/MysterionRise/chemical-similarity/events"
	"github.com/MysterionRise/chemical-similarity/extract"
	"github.com/MysterionRise/chemical-similarity/filters"
	"github.com/MysterionRise/chemical-similarity/sdf"
)

var log = logger.New("sync")

var (
	IsInitialSync   = true
	recentCompounds = ringBuffer{}
)

func Setup() {
	log.Info("Subscribing to events")
	events.SubscribeAsync("pubchem:archive", onArchive)
}

// onArchive indexes archives that land after the initial sync; during
// initial sync the full mirror walk picks them up anyway.
func onArchive(path string) {
	if IsInitialSync {
		return
	}
	if err := IndexArchive(context.TODO(), path); err != nil {
		log.Error("unable to index archive", logger.Attrs{"archive": path, "err": err})
	}
}

// doneMarker names the sidecar recording that an archive was fully
// indexed and flushed; marked archives are skipped on later passes.
func doneMarker(archive string) string {
	return archive + ".indexed"
}

func markDone(archive string) error {
	return os.WriteFile(doneMarker(archive), []byte{}, 0o644)
}

func isDone(archive string) bool {
	_, err := os.Stat(doneMarker(archive))
	return err == nil
}

// IndexArchive extracts one archive and bulk indexes every parseable,
// non excluded compound in it. The done marker is written only after a
// flush so a crash never strands unindexed compounds behind a marker.
func IndexArchive(ctx context.Context, archive string) error {
	if isDone(archive) {
		log.Info("archive already indexed, skipping", logger.Attrs{"archive": archive})
		return nil
	}

	t := log.Timer()
	var indexed, skipped int64

	err := extract.Archive(archive, func(extracted string) error {
		f, err := os.Open(extracted)
		if err != nil {
			return err
		}
		defer f.Close()

		return sdf.ParseRecords(f, func(rec *sdf.Record) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c, err := sdf.ParseCompound(rec)
			if err != nil {
				log.Error("skipping record", logger.Attrs{"archive": archive, "record": rec.Name, "err": err})
				skipped++
				return nil
			}

			if filters.Contains(datastore.DocID(c.CID)) {
				skipped++
				return nil
			}

			cd := &datastore.CompoundData{
				CID:            c.CID,
				Fingerprint:    c.Fingerprint,
				FingerprintLen: c.FingerprintLen,
				Smiles:         c.Smiles,
			}
			datastore.AutoBulk.StoreCompound(cd)
			recentCompounds.Push(cd)
			indexed++

			if indexed%100000 == 0 {
				log.Info("Sync currently at %s compounds in %s", humanize.Comma(indexed), filepath.Base(archive))
			}

			_, err = datastore.AutoBulk.CheckSizeStore(ctx)
			return err
		})
	})
	if err != nil {
		return err
	}

	if err := datastore.AutoBulk.Flush(ctx); err != nil {
		return err
	}

	t.End("Indexed archive", logger.Attrs{"archive": archive, "indexed": indexed, "skipped": skipped})

	return markDone(archive)
}
