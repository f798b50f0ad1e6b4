package storage

import (
	"reflect"
	"testing"

	"pulsedesk/internal/feed"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// migrations are not re-applied.
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestArticlesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := []feed.Article{
		{ID: "a1", Title: "T1", Summary: "S1", Source: "X", Date: "2024-01-01", Region: "UAE", Sector: feed.SectorIT},
		{ID: "a2", Title: "T2", Summary: "S2", Source: "Y", URL: "https://example.com", Date: "2024-01-02", Region: "KSA"},
	}
	if err := s.SaveArticles(want); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}

	got := s.LoadArticles()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadArticles = %+v, want %+v", got, want)
	}
}

func TestPostsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := []feed.GeneratedPost{
		{ID: "p1", ArticleID: "a1", OriginalArticleTitle: "T1", Content: "body", Status: feed.StatusDraft, CreatedAt: 1700000000000, LastEditedAt: 1700000000000},
	}
	if err := s.SavePosts(want); err != nil {
		t.Fatalf("SavePosts: %v", err)
	}

	got := s.LoadPosts()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadPosts = %+v, want %+v", got, want)
	}
}

func TestEmptyCollectionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveArticles([]feed.Article{}); err != nil {
		t.Fatalf("SaveArticles(empty): %v", err)
	}
	if got := s.LoadArticles(); len(got) != 0 {
		t.Errorf("LoadArticles after saving empty = %+v, want empty", got)
	}
}

func TestLoadMissingCollection(t *testing.T) {
	s := openTestStore(t)

	if got := s.LoadArticles(); got != nil {
		t.Errorf("LoadArticles on fresh store = %+v, want nil", got)
	}
	if got := s.LoadPosts(); got != nil {
		t.Errorf("LoadPosts on fresh store = %+v, want nil", got)
	}
}

// TestCorruptPayloadDiscarded writes garbage into the articles row and
// verifies the read contract: corrupt data loads as an empty collection,
// no error surfaces.
func TestCorruptPayloadDiscarded(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO collections (name, payload) VALUES (?, ?)`,
		collectionArticles, "{not json"); err != nil {
		t.Fatalf("inserting corrupt payload: %v", err)
	}

	if got := s.LoadArticles(); got != nil {
		t.Errorf("LoadArticles with corrupt payload = %+v, want nil", got)
	}
}

func TestSaveReplacesWholeCollection(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveArticles([]feed.Article{{ID: "a1", Title: "old"}}); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}
	want := []feed.Article{{ID: "a2", Title: "new"}}
	if err := s.SaveArticles(want); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}

	got := s.LoadArticles()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadArticles = %+v, want full replacement %+v", got, want)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveArticles([]feed.Article{{ID: "a1"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePosts([]feed.GeneratedPost{{ID: "p1"}}); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if got := s.LoadArticles(); got != nil {
		t.Errorf("articles after Clear = %+v, want nil", got)
	}
	if got := s.LoadPosts(); got != nil {
		t.Errorf("posts after Clear = %+v, want nil", got)
	}
}
