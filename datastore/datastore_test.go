package datastore

import (
	"encoding/json"
	"testing"

	"github.com/MysterionRise/chemical-similarity/config"
)

func TestIndexPrefixing(t *testing.T) {
	prefix := config.IndexPrefix()
	defer config.SetIndexPrefix(prefix)

	config.SetIndexPrefix("")
	if Index("pubchem") != "pubchem" {
		t.Errorf("expected pubchem, received %q", Index("pubchem"))
	}

	config.SetIndexPrefix("staging")
	if Index("pubchem") != "staging-pubchem" {
		t.Errorf("expected staging-pubchem, received %q", Index("pubchem"))
	}
}

func mustDecode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad test json: %v", err)
	}
	return m
}

func TestPropertyCompatible(t *testing.T) {
	want := mustDecode(t, `{"type":"keyword","similarity":"boolean"}`)

	identical := mustDecode(t, `{"type":"keyword","similarity":"boolean"}`)
	if !propertyCompatible(want, identical) {
		t.Error("identical property reported incompatible")
	}

	// live mappings carry parameters the registered one omits
	extras := mustDecode(t, `{"type":"keyword","similarity":"boolean","ignore_above":64}`)
	if !propertyCompatible(want, extras) {
		t.Error("live extras should be tolerated")
	}

	wrongType := mustDecode(t, `{"type":"text","similarity":"boolean"}`)
	if propertyCompatible(want, wrongType) {
		t.Error("type mismatch reported compatible")
	}

	missing := mustDecode(t, `{"type":"keyword"}`)
	if propertyCompatible(want, missing) {
		t.Error("missing parameter reported compatible")
	}

	nested := mustDecode(t, `{"type":"text","fields":{"keyword":{"type":"keyword","ignore_above":256}}}`)
	nestedLive := mustDecode(t, `{"type":"text","fields":{"keyword":{"type":"keyword","ignore_above":256}}}`)
	if !propertyCompatible(nested, nestedLive) {
		t.Error("identical nested property reported incompatible")
	}

	nestedDiffers := mustDecode(t, `{"type":"text","fields":{"keyword":{"type":"keyword","ignore_above":128}}}`)
	if propertyCompatible(nested, nestedDiffers) {
		t.Error("nested parameter mismatch reported compatible")
	}
}

func TestDocID(t *testing.T) {
	if DocID(2244) != "2244" {
		t.Errorf("unexpected doc id %q", DocID(2244))
	}
}
