package datastore

import (
	"encoding/json"
	"testing"
)

func TestCompoundsMappingShape(t *testing.T) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(compoundsMapping), &doc); err != nil {
		t.Fatalf("mapping is not valid json: %v", err)
	}

	if len(doc) != 2 {
		t.Errorf("expected exactly 2 top level keys, received %d", len(doc))
	}
	for _, key := range []string{"settings", "mappings"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing top level key %q", key)
		}
	}
}

func TestCompoundsMappingSettings(t *testing.T) {
	var doc struct {
		Settings struct {
			Index struct {
				NumberOfShards   int    `json:"number_of_shards"`
				NumberOfReplicas int    `json:"number_of_replicas"`
				RefreshInterval  string `json:"refresh_interval"`
			} `json:"index"`
		} `json:"settings"`
	}
	if err := json.Unmarshal([]byte(compoundsMapping), &doc); err != nil {
		t.Fatalf("mapping is not valid json: %v", err)
	}

	if doc.Settings.Index.NumberOfShards != 1 {
		t.Errorf("expected 1 shard, received %d", doc.Settings.Index.NumberOfShards)
	}
	if doc.Settings.Index.NumberOfReplicas != 0 {
		t.Errorf("expected 0 replicas, received %d", doc.Settings.Index.NumberOfReplicas)
	}
	if doc.Settings.Index.RefreshInterval != "5m" {
		t.Errorf("expected 5m refresh interval, received %q", doc.Settings.Index.RefreshInterval)
	}
}

func TestCompoundsMappingProperties(t *testing.T) {
	var doc struct {
		Mappings struct {
			Properties map[string]map[string]interface{} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal([]byte(compoundsMapping), &doc); err != nil {
		t.Fatalf("mapping is not valid json: %v", err)
	}

	props := doc.Mappings.Properties
	if len(props) != 3 {
		t.Errorf("expected exactly 3 fields, received %d", len(props))
	}

	fp, ok := props["fingerprint"]
	if !ok {
		t.Fatal("missing fingerprint field")
	}
	if fp["type"] != "keyword" {
		t.Errorf("expected fingerprint type keyword, received %v", fp["type"])
	}
	if fp["similarity"] != "boolean" {
		t.Errorf("expected boolean similarity, received %v", fp["similarity"])
	}

	fpl, ok := props["fingerprint_len"]
	if !ok {
		t.Fatal("missing fingerprint_len field")
	}
	if fpl["type"] != "short" {
		t.Errorf("expected fingerprint_len type short, received %v", fpl["type"])
	}

	smiles, ok := props["smiles"]
	if !ok {
		t.Fatal("missing smiles field")
	}
	if smiles["type"] != "text" {
		t.Errorf("expected smiles type text, received %v", smiles["type"])
	}
	fields, ok := smiles["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("smiles has no sub-fields")
	}
	keyword, ok := fields["keyword"].(map[string]interface{})
	if !ok {
		t.Fatal("smiles has no keyword sub-field")
	}
	if keyword["type"] != "keyword" {
		t.Errorf("expected keyword sub-field type keyword, received %v", keyword["type"])
	}
	if keyword["ignore_above"] != float64(256) {
		t.Errorf("expected ignore_above 256, received %v", keyword["ignore_above"])
	}
}
