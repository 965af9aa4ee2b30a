package httpapi

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/azer/logger"
	"github.com/gorilla/mux"
	"github.com/olivere/elastic/v7"

	"github.com/MysterionRise/chemical-similarity/datastore"
	"github.com/MysterionRise/chemical-similarity/sdf"
)

func init() {
	rootRouter.HandleFunc("/compound/get/{cid:[0-9]+}", handleCompoundGet)
	rootRouter.HandleFunc("/compound/search", handleCompoundSearch).Queries("q", "{query}")
	rootRouter.HandleFunc("/compound/similar", handleCompoundSimilar).Queries("fp", "{fp}")
}

var compoundIndices = []string{"pubchem"}

const defaultMinSimilarity = 0.8

func handleCompoundGet(w http.ResponseWriter, r *http.Request) {
	var opts = mux.Vars(r)

	cid, err := strconv.ParseInt(opts["cid"], 10, 64)
	if err != nil {
		RespondJSON(r.Context(), w, 400, map[string]interface{}{
			"error": "unable to decode cid",
		})
		return
	}

	cd, err := datastore.GetCompoundFromCID(r.Context(), cid)
	if err != nil {
		if elastic.IsNotFound(err) {
			RespondJSON(r.Context(), w, 404, map[string]interface{}{
				"error": "compound not found",
			})
			return
		}
		log.Error("compound lookup failed", logger.Attrs{"cid": cid, "err": err})
		RespondESError(r.Context(), w, err)
		return
	}

	RespondJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"cid":      cid,
		"compound": cd,
	})
}

func handleCompoundSearch(w http.ResponseWriter, r *http.Request) {
	var opts = mux.Vars(r)

	searchQuery, err := url.PathUnescape(opts["query"])
	if err != nil {
		RespondJSON(r.Context(), w, 400, map[string]interface{}{
			"error": "unable to decode query",
		})
		return
	}

	query := elastic.NewQueryStringQuery(searchQuery).
		DefaultField("smiles").
		AnalyzeWildcard(false)

	searchService := BuildCommonSearchService(
		r.Context(),
		compoundIndices,
		query,
		nil,
		nil,
	)

	RespondSearch(r.Context(), w, searchService)
}

// handleCompoundSimilar runs a fingerprint screen: each set bit becomes a
// term clause, boolean similarity scores one point per matching bit and
// minimum_should_match floors the match count at min * query popcount.
func handleCompoundSimilar(w http.ResponseWriter, r *http.Request) {
	var opts = mux.Vars(r)

	min := defaultMinSimilarity
	if m := r.FormValue("min"); m != "" {
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			RespondJSON(r.Context(), w, 400, map[string]interface{}{
				"error": "min must be a number in (0, 1]",
			})
			return
		}
		min = parsed
	}

	bits, err := sdf.DecodeSubskeys(opts["fp"])
	if err != nil {
		RespondJSON(r.Context(), w, 400, map[string]interface{}{
			"error": "unable to decode fingerprint",
		})
		return
	}
	if len(bits) == 0 {
		RespondJSON(r.Context(), w, 400, map[string]interface{}{
			"error": "fingerprint has no bits set",
		})
		return
	}

	// custom sorts and search-after cursors bypass the cache
	cacheable := GetSortInfoFromContext(r.Context()) == nil && GetSearchAfterFromContext(r.Context()) == nil

	cacheKey := similarCacheKey(r.Context(), opts["fp"], min)
	if cacheable {
		if payload, ok := similarCache.Get(cacheKey); ok {
			RespondJSON(r.Context(), w, http.StatusOK, payload)
			return
		}
	}

	query := elastic.NewBoolQuery()
	for _, bit := range bits {
		query.Should(elastic.NewTermQuery("fingerprint", bit))
	}
	query.MinimumNumberShouldMatch(minimumShouldMatch(min, len(bits)))

	searchService := BuildCommonSearchService(
		r.Context(),
		compoundIndices,
		query,
		nil,
		nil,
	)

	results, err := searchService.Do(r.Context())
	if err != nil {
		log.Error("similarity search failed", logger.Attrs{"err": err})
		RespondESError(r.Context(), w, err)
		return
	}

	payload := buildSimilarResponse(results, len(bits))
	if cacheable {
		similarCache.Add(cacheKey, payload)
	}
	RespondJSON(r.Context(), w, http.StatusOK, payload)
}

// minimumShouldMatch converts a similarity floor into a term clause count.
func minimumShouldMatch(min float64, queryBits int) int {
	n := int(math.Ceil(min * float64(queryBits)))
	if n < 1 {
		n = 1
	}
	if n > queryBits {
		n = queryBits
	}
	return n
}

type similarHit struct {
	CID            string  `json:"cid"`
	MatchedBits    int     `json:"matched_bits"`
	Tanimoto       float64 `json:"tanimoto"`
	Smiles         string  `json:"smiles,omitempty"`
	FingerprintLen int16   `json:"fingerprint_len"`
}

func buildSimilarResponse(results *elastic.SearchResult, queryBits int) map[string]interface{} {
	hits := make([]similarHit, 0, len(results.Hits.Hits))
	for _, hit := range results.Hits.Hits {
		var cd datastore.CompoundData
		if err := jsonUnmarshal(hit.Source, &cd); err != nil {
			log.Error("unable to decode compound source", logger.Attrs{"id": hit.Id, "err": err})
			continue
		}

		matched := 0
		if hit.Score != nil {
			// boolean similarity: _score is the matched term count
			matched = int(*hit.Score + 0.5)
		}

		hits = append(hits, similarHit{
			CID:            hit.Id,
			MatchedBits:    matched,
			Tanimoto:       tanimoto(matched, queryBits, int(cd.FingerprintLen)),
			Smiles:         cd.Smiles,
			FingerprintLen: cd.FingerprintLen,
		})
	}

	return map[string]interface{}{
		"count":   len(hits),
		"total":   results.TotalHits(),
		"results": hits,
	}
}

// tanimoto computes |A∩B| / |A∪B| from the matched bit count and the two
// popcounts.
func tanimoto(matched, queryBits, docBits int) float64 {
	union := queryBits + docBits - matched
	if union <= 0 {
		return 0
	}
	return float64(matched) / float64(union)
}
