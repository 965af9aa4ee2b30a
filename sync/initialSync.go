package sync

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/azer/logger"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/MysterionRise/chemical-similarity/datastore"
)

// InitialSync walks the local mirror and indexes every archive that has
// not been indexed yet. Archives downloaded while it runs are covered by
// the walk itself; only afterwards does the archive event subscription
// take over.
func InitialSync(ctx context.Context) error {
	startup := time.Now()

	Setup()

	count, err := datastore.CountCompounds(ctx)
	if err != nil {
		log.Error("unable to count indexed compounds", logger.Attrs{"err": err})
	} else {
		log.Info("%s compounds already indexed", humanize.Comma(count))
	}

	dataDir := viper.GetString("pubchem.dataDir")
	archives, err := listArchives(dataDir)
	if err != nil {
		return err
	}
	log.Info("%d archives in the mirror", len(archives))

	for _, archive := range archives {
		if err := ctx.Err(); err != nil {
			log.Error("context error", logger.Attrs{"err": err})
			break
		}
		if err := IndexArchive(ctx, archive); err != nil {
			return err
		}
	}

	if err := datastore.AutoBulk.Flush(ctx); err != nil {
		return err
	}

	IsInitialSync = false

	total, err := datastore.CountCompounds(ctx)
	if err != nil {
		log.Error("unable to count indexed compounds", logger.Attrs{"err": err})
	}
	log.Info("Completed full sync of %d archives, %s compounds indexed, took %s",
		len(archives), humanize.Comma(total), time.Since(startup))

	return nil
}

func listArchives(dir string) ([]string, error) {
	var archives []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if os.IsNotExist(err) {
			return filepath.SkipAll
		}
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".gz" {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(archives)
	return archives, nil
}
