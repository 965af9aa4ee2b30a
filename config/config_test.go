package config

import (
	"testing"
)

func TestSetIndexPrefix(t *testing.T) {
	// save pre test value
	prefix := IndexPrefix()

	SetIndexPrefix("staging")
	if IndexPrefix() != "staging" {
		t.Errorf("expected staging, received %q", IndexPrefix())
	}

	SetIndexPrefix("")
	if IndexPrefix() != "" {
		t.Errorf("expected empty prefix, received %q", IndexPrefix())
	}

	// restore
	SetIndexPrefix(prefix)
}

func TestDefaults(t *testing.T) {
	if GetFilePath("elastic.certFile") == "" {
		t.Error("expected a default cert file path")
	}
}
