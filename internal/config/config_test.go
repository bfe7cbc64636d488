package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.Neo4jURI != "bolt://localhost:7687" {
		t.Errorf("Neo4jURI = %q", cfg.Neo4jURI)
	}
	if cfg.NATSSubject != "interactions.recorded" {
		t.Errorf("NATSSubject = %q", cfg.NATSSubject)
	}
	if cfg.RetrieveTopK != 10 {
		t.Errorf("RetrieveTopK = %d, want 10", cfg.RetrieveTopK)
	}
	if !cfg.RetrieveParallel {
		t.Error("RetrieveParallel should default to true")
	}
	if cfg.RetrieveLegTimeout != 0 {
		t.Errorf("RetrieveLegTimeout = %v, want 0", cfg.RetrieveLegTimeout)
	}
	if cfg.GraphDepth != 2 {
		t.Errorf("GraphDepth = %d, want 2", cfg.GraphDepth)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RETRIEVE_TOP_K", "25")
	t.Setenv("RETRIEVE_PARALLEL", "false")
	t.Setenv("RETRIEVE_LEG_TIMEOUT", "750ms")
	t.Setenv("GRAPH_DEPTH", "3")

	cfg := Load()
	if cfg.RetrieveTopK != 25 {
		t.Errorf("RetrieveTopK = %d, want 25", cfg.RetrieveTopK)
	}
	if cfg.RetrieveParallel {
		t.Error("RetrieveParallel should be overridden to false")
	}
	if cfg.RetrieveLegTimeout != 750*time.Millisecond {
		t.Errorf("RetrieveLegTimeout = %v, want 750ms", cfg.RetrieveLegTimeout)
	}
	if cfg.GraphDepth != 3 {
		t.Errorf("GraphDepth = %d, want 3", cfg.GraphDepth)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RETRIEVE_TOP_K", "lots")
	t.Setenv("RETRIEVE_LEG_TIMEOUT", "soon")
	t.Setenv("RETRIEVE_PARALLEL", "kinda")

	cfg := Load()
	if cfg.RetrieveTopK != 10 {
		t.Errorf("RetrieveTopK = %d, want fallback 10", cfg.RetrieveTopK)
	}
	if cfg.RetrieveLegTimeout != 0 {
		t.Errorf("RetrieveLegTimeout = %v, want fallback 0", cfg.RetrieveLegTimeout)
	}
	if !cfg.RetrieveParallel {
		t.Error("RetrieveParallel should fall back to true")
	}
}
