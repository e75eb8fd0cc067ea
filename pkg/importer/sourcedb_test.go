package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// fakeAdapter implements Adapter for seeding.
type fakeAdapter struct {
	id, dir, desc, url, license string
}

func (f *fakeAdapter) ID() string          { return f.id }
func (f *fakeAdapter) TargetDir() string   { return f.dir }
func (f *fakeAdapter) Description() string { return f.desc }
func (f *fakeAdapter) DefaultURL() string  { return f.url }
func (f *fakeAdapter) License() string     { return f.license }
func (f *fakeAdapter) Import(context.Context, string, string) (Result, error) {
	return Result{Rows: 7}, nil
}

func tempSourceDB(t *testing.T) *SourceDB {
	t.Helper()
	sdb, err := OpenSourceDB(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return sdb
}

func TestOpenSourceDB_CreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	sdb, err := OpenSourceDB(path)
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	defer sdb.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	sources, err := sdb.ListSources(context.Background())
	if err != nil {
		t.Fatalf("ListSources on empty db: %v", err)
	}
	if len(sources) != 0 {
		t.Fatalf("expected 0 sources, got %d", len(sources))
	}
}

func TestSeed_KeepsOverrides(t *testing.T) {
	ctx := context.Background()
	sdb := tempSourceDB(t)

	if err := sdb.Seed(ctx, []Adapter{&fakeAdapter{"a1", "ccd", "desc1", "https://example.com/a1", "PD"}}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := sdb.SetURL(ctx, "a1", "file:///data/ccd.csv"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}
	if err := sdb.Seed(ctx, []Adapter{&fakeAdapter{"a1", "ccd", "desc1", "https://changed.com/a1", "PD"}}); err != nil {
		t.Fatalf("Seed again: %v", err)
	}

	url, err := sdb.GetURL(ctx, "a1")
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if url != "file:///data/ccd.csv" {
		t.Fatalf("re-seed overwrote override, got %s", url)
	}
}

func TestSetURL_NotFound(t *testing.T) {
	sdb := tempSourceDB(t)
	if err := sdb.SetURL(context.Background(), "nonexistent", "https://example.com"); err == nil {
		t.Fatal("expected error for nonexistent adapter")
	}
}

func TestUpdateCheck(t *testing.T) {
	ctx := context.Background()
	sdb := tempSourceDB(t)
	if err := sdb.Seed(ctx, []Adapter{&fakeAdapter{"a1", "ccd", "desc1", "https://example.com/a1", "PD"}}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if err := sdb.UpdateCheck(ctx, "a1", 200, ""); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	sources, err := sdb.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	src := sources[0]
	if src.LastStatus == nil || *src.LastStatus != 200 {
		t.Fatalf("expected last_status=200, got %v", src.LastStatus)
	}
	if src.LastCheck == nil || *src.LastCheck == 0 {
		t.Fatal("expected last_check to be set")
	}
	if src.LastError != nil {
		t.Fatalf("expected nil last_error, got %v", *src.LastError)
	}

	if err := sdb.UpdateCheck(ctx, "a1", 404, "not found"); err != nil {
		t.Fatalf("UpdateCheck with error: %v", err)
	}
	sources, _ = sdb.ListSources(ctx)
	if src := sources[0]; src.LastError == nil || *src.LastError != "not found" {
		t.Fatalf("expected last_error='not found', got %v", src.LastError)
	}
}

func TestRun_RecordsImport(t *testing.T) {
	ctx := context.Background()
	sdb := tempSourceDB(t)
	a := &fakeAdapter{"a1", "ccd", "desc1", "https://example.com/a1", "PD"}
	if err := sdb.Seed(ctx, []Adapter{a}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	res, err := Run(ctx, sdb, a, t.TempDir(), quietLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rows != 7 {
		t.Errorf("rows = %d, want 7", res.Rows)
	}
	sources, _ := sdb.ListSources(ctx)
	if sources[0].LastRows == nil || *sources[0].LastRows != 7 {
		t.Errorf("last_rows = %v, want 7", sources[0].LastRows)
	}
	if sources[0].LastImport == nil {
		t.Error("last_import not set")
	}
}

func TestRun_UnseededAdapter(t *testing.T) {
	sdb := tempSourceDB(t)
	_, err := Run(context.Background(), sdb, &fakeAdapter{id: "ghost"}, t.TempDir(), quietLogger())
	if err == nil {
		t.Fatal("expected error for adapter missing from import_sources")
	}
}

func TestListSources_Order(t *testing.T) {
	ctx := context.Background()
	sdb := tempSourceDB(t)
	adapters := []Adapter{
		&fakeAdapter{"z-last", "d1", "desc1", "https://example.com/z", "PD"},
		&fakeAdapter{"a-first", "d2", "desc2", "https://example.com/a", "PD"},
	}
	if err := sdb.Seed(ctx, adapters); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	sources, err := sdb.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 || sources[0].AdapterID != "a-first" {
		t.Fatalf("unexpected order: %+v", sources)
	}
	if sources[1].TargetDir != "d1" {
		t.Errorf("target_dir = %q, want d1", sources[1].TargetDir)
	}
}

func TestRegistry(t *testing.T) {
	for _, id := range []string{"nces-ccd", "nces-pss"} {
		a, err := Get(id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if a.DefaultURL() == "" {
			t.Errorf("%s has no default url", id)
		}
	}
	if _, err := Get("insee-prenoms-fr"); err == nil {
		t.Error("expected error for unknown adapter")
	}
	if all := All(); len(all) != 2 || all[0].ID() != "nces-ccd" {
		t.Errorf("All() = %d adapters", len(all))
	}
}
