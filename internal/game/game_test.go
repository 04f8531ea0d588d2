package game

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistry_GetKnownGame(t *testing.T) {
	r := NewRegistry(DefaultDefinitions("/data"))

	def, err := r.Get(Suspended)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if def.ID != Suspended {
		t.Errorf("wrong definition: %+v", def)
	}
	if def.Image == "" {
		t.Error("definition missing image path")
	}
}

func TestRegistry_GetUnknownGame(t *testing.T) {
	r := NewRegistry(DefaultDefinitions("/data"))

	_, err := r.Get("planetfall")
	if !errors.Is(err, ErrUnknownGame) {
		t.Errorf("expected ErrUnknownGame, got: %v", err)
	}
}

func TestRegistry_ListOrder(t *testing.T) {
	r := NewRegistry(DefaultDefinitions("/data"))

	defs := r.List()
	if len(defs) != 4 {
		t.Fatalf("expected 4 games, got %d", len(defs))
	}
	if defs[0].ID != Suspended || defs[3].ID != Zork3 {
		t.Errorf("unexpected order: %v", defs)
	}
}

func TestRegistry_OverrideKeepsOrder(t *testing.T) {
	defs := append(DefaultDefinitions("/data"),
		Definition{ID: Suspended, Name: "Suspended", Image: "/custom/suspended.z3"})
	r := NewRegistry(defs)

	if len(r.List()) != 4 {
		t.Fatalf("override should not add a game, got %d", len(r.List()))
	}
	def, err := r.Get(Suspended)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if def.Image != "/custom/suspended.z3" {
		t.Errorf("override not applied: %s", def.Image)
	}
	if r.IDs()[0] != Suspended {
		t.Errorf("override changed order: %v", r.IDs())
	}
}

func TestCheckImages(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "suspended.dat")
	if err := os.WriteFile(image, []byte("story"), 0o644); err != nil {
		t.Fatalf("write story file: %v", err)
	}

	ok := NewRegistry([]Definition{{ID: Suspended, Name: "Suspended", Image: image}})
	if err := ok.CheckImages(); err != nil {
		t.Errorf("CheckImages with readable image failed: %v", err)
	}

	missing := NewRegistry([]Definition{
		{ID: Suspended, Name: "Suspended", Image: image},
		{ID: Zork1, Name: "Zork I", Image: filepath.Join(dir, "absent.dat")},
	})
	err := missing.CheckImages()
	if err == nil {
		t.Fatal("CheckImages should fail for a missing story file")
	}
	if !strings.Contains(err.Error(), "zork1") {
		t.Errorf("error does not name the game: %v", err)
	}

	isDir := NewRegistry([]Definition{{ID: Suspended, Name: "Suspended", Image: dir}})
	if err := isDir.CheckImages(); err == nil {
		t.Error("CheckImages should fail when the image is a directory")
	}
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry(DefaultDefinitions("."))

	if !r.Has(Zork1) {
		t.Error("Has(zork1) = false")
	}
	if r.Has("../zork1") {
		t.Error("Has should reject non-configured identifiers")
	}
}
