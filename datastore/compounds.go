package datastore

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

func init() {
	RegisterMapping("pubchem", compoundsMapping)
}

// CompoundData is a document in the pubchem index. The CID is the
// document id and is not part of the source; the three source fields
// match the index mapping exactly.
type CompoundData struct {
	CID            int64    `json:"-"`
	Fingerprint    []string `json:"fingerprint"`
	FingerprintLen int16    `json:"fingerprint_len"`
	Smiles         string   `json:"smiles"`
}

func DocID(cid int64) string {
	return strconv.FormatInt(cid, 10)
}

func GetCompoundFromCID(ctx context.Context, cid int64) (CompoundData, error) {
	get, err := client.Get().Index(Index("pubchem")).Id(DocID(cid)).Do(ctx)
	if err != nil {
		return CompoundData{}, err
	}
	if !get.Found {
		return CompoundData{}, errors.New("CID not found")
	}

	var cd CompoundData
	err = json.Unmarshal(get.Source, &cd)
	if err != nil {
		return CompoundData{}, err
	}
	cd.CID = cid
	return cd, nil
}

func CountCompounds(ctx context.Context) (int64, error) {
	return client.Count(Index("pubchem")).Do(ctx)
}
