package sync

import (
	"net/http"

	"github.com/azer/logger"

	"github.com/MysterionRise/chemical-similarity/datastore"
	"github.com/MysterionRise/chemical-similarity/httpapi"
)

var syncRouter = httpapi.NewSubRoute("/sync")

func init() {
	syncRouter.HandleFunc("/status", HandleStatus)
}

func HandleStatus(w http.ResponseWriter, r *http.Request) {
	var lastCID int64
	if cd := recentCompounds.PeekFront(); cd != nil {
		lastCID = cd.CID
	}

	count, err := datastore.CountCompounds(r.Context())
	if err != nil {
		log.Error("/sync/status compound count failed", logger.Attrs{"err": err})
	}

	httpapi.RespondJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"IsInitialSync":  IsInitialSync,
		"LastCID":        lastCID,
		"Compounds":      count,
		"PendingActions": datastore.AutoBulk.NumberOfActions(),
	})
}
