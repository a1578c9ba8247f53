package sources

import (
	"context"
	"fmt"
	"testing"

	"github.com/openregulatory/regsearch/pkg/document"
)

type stubConfig struct {
	Valid bool
}

func (c *stubConfig) Validate() error {
	if !c.Valid {
		return fmt.Errorf("invalid")
	}
	return nil
}

type stubSource struct {
	name   string
	config *stubConfig
}

func (s *stubSource) Type() string { return "stub" }
func (s *stubSource) Name() string { return s.name }
func (s *stubSource) FetchDocuments(ctx context.Context, docCh chan<- document.Document) error {
	return nil
}
func (s *stubSource) ConfigType() interface{} { return &stubConfig{} }
func (s *stubSource) SetConfig(config interface{}) error {
	cfg, ok := config.(*stubConfig)
	if !ok {
		return fmt.Errorf("wrong config type")
	}
	s.config = cfg
	return nil
}
func (s *stubSource) Factory(instanceName string, config interface{}) (Source, error) {
	src := &stubSource{name: instanceName}
	if err := src.SetConfig(config); err != nil {
		return nil, err
	}
	return src, nil
}

func TestCreateAndGetSource(t *testing.T) {
	registry := NewRegistry()
	registry.prototypes["stub"] = &stubSource{}

	if err := registry.CreateSource("mine", "stub", &stubConfig{Valid: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	src, err := registry.GetSource("mine")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if src.Name() != "mine" {
		t.Errorf("name = %q", src.Name())
	}

	if _, err := registry.GetSource("other"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestCreateSourceValidatesConfig(t *testing.T) {
	registry := NewRegistry()
	registry.prototypes["stub"] = &stubSource{}

	if err := registry.CreateSource("bad", "stub", &stubConfig{Valid: false}); err == nil {
		t.Error("expected validation error")
	}
	if err := registry.CreateSource("x", "unknown", &stubConfig{Valid: true}); err == nil {
		t.Error("expected error for unregistered type")
	}
}

func TestAllSourcesStableOrder(t *testing.T) {
	registry := NewRegistry()
	registry.prototypes["stub"] = &stubSource{}

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.CreateSource(name, "stub", &stubConfig{Valid: true}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all := registry.AllSources()
	want := []string{"alpha", "mid", "zeta"}
	if len(all) != len(want) {
		t.Fatalf("got %d sources", len(all))
	}
	for i, src := range all {
		if src.Name() != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, src.Name(), want[i])
		}
	}
}

func TestGlobalRegistryHasBuiltins(t *testing.T) {
	// The adapters self-register in init(); the copy handed out by
	// GetGlobalRegistry must know their config types.
	registry := GetGlobalRegistry()
	if _, err := registry.PrototypeConfigType("nope"); err == nil {
		t.Error("expected error for unknown prototype")
	}
}
