package sdf

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
)

// DecodeSubskeys decodes a PUBCHEM_CACTVS_SUBSKEYS value: base64 over a
// 4 byte big endian bit length followed by the fingerprint bits, most
// significant bit first. The returned terms are the decimal positions of
// the set bits, in ascending order.
func DecodeSubskeys(encoded string) ([]string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "subskeys are not valid base64")
	}
	if len(raw) < 4 {
		return nil, errors.Errorf("subskeys payload too short: %d bytes", len(raw))
	}

	bitLen := binary.BigEndian.Uint32(raw[:4])
	bits := raw[4:]
	if uint32(len(bits))*8 < bitLen {
		return nil, errors.Errorf("subskeys declare %d bits but carry %d", bitLen, len(bits)*8)
	}

	var set []string
	for i := uint32(0); i < bitLen; i++ {
		if bits[i/8]&(1<<(7-i%8)) != 0 {
			set = append(set, strconv.FormatUint(uint64(i), 10))
		}
	}
	return set, nil
}
