// Package filters maintains CID exclusion lists, bundled with the binary
// or fetched from remote URLs. The pubchem mapping carries no metadata
// fields, so exclusion is enforced by skipping compounds at index time
// and deleting newly excluded documents when a list refresh lands.
package filters

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/azer/logger"
	"github.com/gobuffalo/packr/v2"
	"github.com/spf13/viper"

	"github.com/MysterionRise/chemical-similarity/datastore"
)

var log = logger.New("filters")

var filterBox = packr.New("bundled", "./bundled")
// filterMu guards filterMap and filterLabels; the staging maps are
// touched only by the refresh goroutine.
var filterMu sync.RWMutex
var filterMap = make(map[string]int)  // cid: label id
var filterMapB = make(map[string]int) // cid: label id
var filterLabels = []string{""}
var filterBundled map[string]int

// deleteExcluded routes swap deletions through the shared bulk indexer;
// tests substitute it.
var deleteExcluded = func(cid string) {
	datastore.AutoBulk.DeleteCompound(cid)
}

func InitViper(ctx context.Context) {
	bundled := viper.GetStringSlice("pubchem.exclude.bundled")
	err := loadBundledLists(bundled)
	if err != nil {
		log.Error("unable to load bundled lists")
		panic(err)
	}

	snapshotBundled()

	updateRemoteLists()

	refresh := viper.GetString("pubchem.exclude.remote.refresh")
	if refresh != "false" {
		d, err := time.ParseDuration(refresh)
		if err != nil {
			log.Error("unable to parse refresh duration", logger.Attrs{"refresh": refresh, "err": err})
		} else {
			go startRefreshInterval(ctx, d)
		}
	}
}

func startRefreshInterval(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-time.After(interval):
			updateRemoteLists()
		case <-ctx.Done():
			return
		}
	}
}

func updateRemoteLists() {
	log.Info("updating remote exclusion lists")
	remote := viper.GetStringMapString("pubchem.exclude.remote.urls")
	for label, url := range remote {
		attrs := logger.Attrs{"label": label, "url": url}

		log.Info("fetching remote list", attrs)

		res, err := http.Get(url)
		if err != nil {
			attrs["err"] = err
			log.Error("unable to get remote list", attrs)
			continue
		}
		body, err := io.ReadAll(res.Body)
		if err != nil {
			attrs["err"] = err
			log.Error("unable to get remote list", attrs)
			continue
		}
		_ = res.Body.Close()
		processList(string(body), label)
	}

	swapLists()

	filterMu.RLock()
	size := len(filterMap)
	filterMu.RUnlock()
	log.Info("current exclusion list size %d", size)
}

// snapshotBundled copies the staged bundled entries so later remote
// updates cannot write through into the snapshot; swapLists re-seeds the
// staging map from it on every refresh.
func snapshotBundled() {
	filterBundled = make(map[string]int, len(filterMapB))
	for key, value := range filterMapB {
		filterBundled[key] = value
	}
}

func loadBundledLists(lists []string) error {
	for _, label := range lists {
		list, err := filterBox.FindString(label + ".txt")
		if err != nil {
			return err
		}
		processList(list, label)
	}

	return nil
}

func processList(list, label string) {
	labelId := getLabelId(label)
	lines := strings.Split(list, "\n")
	for _, line := range lines {
		id := strings.SplitN(strings.TrimSpace(line), " ", 2)[0]
		if isCID(id) {
			filterMapB[id] = labelId
		}
	}
}

func isCID(id string) bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

func getLabelId(label string) int {
	filterMu.Lock()
	defer filterMu.Unlock()

	for id, l := range filterLabels {
		if label == l {
			return id
		}
	}
	filterLabels = append(filterLabels, label)
	return len(filterLabels) - 1
}

func Add(cid string, label string) {
	// ToDo requires tweaks as manually added items are lost on next remote update
	labelId := getLabelId(label)
	filterMu.Lock()
	filterMap[cid] = labelId
	filterMu.Unlock()
}

func Contains(cid string) bool {
	filterMu.RLock()
	_, ok := filterMap[cid]
	filterMu.RUnlock()
	return ok
}

func ContainsWithLabel(cid string) (bool, string) {
	filterMu.RLock()
	defer filterMu.RUnlock()

	lid, ok := filterMap[cid]
	if ok {
		if lid < len(filterLabels) {
			return true, filterLabels[lid]
		}
		return true, ""
	}
	return false, ""
}

func Clear() {
	filterMu.Lock()
	filterMap = make(map[string]int)
	filterMu.Unlock()
}

func swapLists() {
	filterMu.Lock()

	var added []string
	var removed []string

	if len(filterMap) == 0 {
		added = make([]string, len(filterMapB))
		i := 0
		for key := range filterMapB {
			added[i] = key
			i++
		}
	} else {
		for key := range filterMapB {
			if _, ok := filterMap[key]; !ok {
				added = append(added, key)
			}
		}
		for key := range filterMap {
			if _, ok := filterMapB[key]; !ok {
				removed = append(removed, key)
			}
		}
	}

	log.Info("Swapping lists", logger.Attrs{
		"lenA":    len(filterMap),
		"lenB":    len(filterMapB),
		"added":   len(added),
		"removed": len(removed),
	})

	filterMap = filterMapB
	filterMapB = make(map[string]int, len(filterBundled))
	for key, value := range filterBundled {
		filterMapB[key] = value
	}
	filterMu.Unlock()

	// newly excluded compounds leave the index; removed ones reappear
	// on the next sync pass, there is nothing to restore from
	for _, cid := range added {
		deleteExcluded(cid)
	}
	if len(removed) > 0 {
		log.Info("%d compounds left the exclusion lists, next sync re-indexes them", len(removed))
	}
}
