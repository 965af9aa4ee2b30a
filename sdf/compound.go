package sdf

import (
	"strconv"

	"github.com/pkg/errors"
)

// Data item tags PubChem attaches to compound records.
const (
	TagCID       = "PUBCHEM_COMPOUND_CID"
	TagSubskeys  = "PUBCHEM_CACTVS_SUBSKEYS"
	TagCanSmiles = "PUBCHEM_OPENEYE_CAN_SMILES"
	TagSmiles    = "PUBCHEM_SMILES"
)

type Compound struct {
	CID            int64
	Fingerprint    []string
	FingerprintLen int16
	Smiles         string
}

// ParseCompound extracts the indexable fields from a record. Records
// without a CID or fingerprint are rejected.
func ParseCompound(rec *Record) (*Compound, error) {
	cidStr := rec.Get(TagCID)
	if cidStr == "" {
		return nil, errors.New("record has no compound cid")
	}
	cid, err := strconv.ParseInt(cidStr, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "record has malformed cid %q", cidStr)
	}

	keys := rec.Get(TagSubskeys)
	if keys == "" {
		return nil, errors.Errorf("compound %d has no cactvs subskeys", cid)
	}
	bits, err := DecodeSubskeys(keys)
	if err != nil {
		return nil, errors.Wrapf(err, "compound %d fingerprint", cid)
	}

	return &Compound{
		CID:            cid,
		Fingerprint:    bits,
		FingerprintLen: int16(len(bits)),
		Smiles:         rec.Get(TagCanSmiles, TagSmiles),
	}, nil
}
