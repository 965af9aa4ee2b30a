package httpapi

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	json "github.com/json-iterator/go"

	"github.com/MysterionRise/chemical-similarity/events"
)

// similarity screens are expensive bool queries over hundreds of term
// clauses and identical queries arrive in bursts; responses stay cached
// until the next bulk commit changes the index
var similarCache *lru.Cache[string, map[string]interface{}]

func init() {
	var err error
	similarCache, err = lru.New[string, map[string]interface{}](512)
	if err != nil {
		panic(err)
	}

	events.SubscribeAsync("datastore:commit", func() {
		similarCache.Purge()
	})
}

func similarCacheKey(ctx context.Context, fp string, min float64) string {
	return fp + "|" + strconv.FormatFloat(min, 'f', -1, 64) +
		"|" + strconv.Itoa(GetSizeFromContext(ctx)) +
		"|" + strconv.Itoa(GetFromFromContext(ctx))
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
