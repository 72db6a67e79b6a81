package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	if len(c.Apps()) == 0 {
		t.Fatalf("default catalog should not be empty")
	}
	for _, app := range c.Apps() {
		if app.ID == "" || app.Name == "" || app.Route == "" {
			t.Fatalf("incomplete entry: %+v", app)
		}
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]App{
		{ID: "a", Name: "A"},
		{ID: "a", Name: "A again"},
	})
	if err == nil {
		t.Fatalf("New() with duplicate ids should fail")
	}
}

func TestByRoute(t *testing.T) {
	c := Default()
	app, ok := c.ByRoute("/kingdom-voice")
	if !ok {
		t.Fatalf("ByRoute(/kingdom-voice) not found")
	}
	if app.ID != "kingdom-voice" {
		t.Fatalf("ByRoute app id = %q, want %q", app.ID, "kingdom-voice")
	}
	if _, ok := c.ByRoute("/nowhere"); ok {
		t.Fatalf("ByRoute(/nowhere) should not resolve")
	}
}

func TestMatchMentionsFindsAllHits(t *testing.T) {
	c := Default()
	ids := c.MatchMentions("I keep flipping between Kingdom Voice and kingdom-journal, help")
	if len(ids) != 2 {
		t.Fatalf("MatchMentions ids = %v, want two hits", ids)
	}
	if ids[0] != "kingdom-voice" || ids[1] != "kingdom-journal" {
		t.Fatalf("MatchMentions order = %v, want catalog order", ids)
	}
}

func TestRecommendByInterests(t *testing.T) {
	c := Default()

	if got := c.RecommendByInterests(nil, 3); got != nil {
		t.Fatalf("RecommendByInterests(nil) = %v, want nil", got)
	}

	apps := c.RecommendByInterests([]string{"journaling", "prayer"}, 2)
	if len(apps) != 2 {
		t.Fatalf("len(apps) = %d, want 2", len(apps))
	}
	// Both top entries carry journaling+prayer tags; catalog order breaks the tie.
	if apps[0].ID != "kingdom-voice" || apps[1].ID != "kingdom-journal" {
		t.Fatalf("ranked ids = %q, %q", apps[0].ID, apps[1].ID)
	}

	apps = c.RecommendByInterests([]string{"analytics"}, 0)
	if len(apps) != 1 || apps[0].ID != "kingdom-insights" {
		t.Fatalf("analytics recommendation = %v", apps)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	data := `[{"id":"demo","name":"Demo App","route":"/demo","pricing":[{"name":"Basic","price":"Free"}]}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	app, ok := c.ByID("demo")
	if !ok || app.Name != "Demo App" {
		t.Fatalf("loaded app = %+v, ok = %v", app, ok)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("Load() with missing file should fail")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if _, ok := c.ByID("kingdom-voice"); !ok {
		t.Fatalf("default catalog missing kingdom-voice")
	}
}
