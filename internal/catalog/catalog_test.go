package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("expected bundled items")
	}
	items := c.Items()
	if items[0].ID != "bunny_apple" {
		t.Fatalf("first item = %q, want bunny_apple", items[0].ID)
	}
	flow, ok := c.Get("bunny_flow")
	if !ok {
		t.Fatal("expected bunny_flow")
	}
	if flow.UnlockStreak != 1 {
		t.Fatalf("bunny_flow unlock = %d, want 1", flow.UnlockStreak)
	}
	if c.Has("bunny_missing") {
		t.Fatal("unexpected item")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	c, err := New([]Item{{ID: "a"}, {ID: "b", UnlockStreak: 2}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	items := c.Items()
	items[0].ID = "changed"
	if got := c.Items()[0].ID; got != "a" {
		t.Fatalf("catalog mutated through Items: %q", got)
	}
}

func TestNewRejectsInvalidItems(t *testing.T) {
	cases := map[string][]Item{
		"empty":     nil,
		"no id":     {{ID: "  "}},
		"negative":  {{ID: "a", UnlockStreak: -1}},
		"duplicate": {{ID: "a"}, {ID: "a"}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := New(items); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := New(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	doc := `
[[item]]
id = "bunny_test"
name = "Test Bunny"
unlock_streak = 4
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	item, ok := c.Get("bunny_test")
	if !ok || item.Name != "Test Bunny" || item.UnlockStreak != 4 {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
