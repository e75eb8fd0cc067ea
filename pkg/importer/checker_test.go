package importer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(t *testing.T, adapters ...Adapter) *SourceDB {
	t.Helper()
	sdb := tempSourceDB(t)
	if err := sdb.Seed(context.Background(), adapters); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return sdb
}

func statuses(t *testing.T, sdb *SourceDB) map[string]int {
	t.Helper()
	sources, err := sdb.ListSources(context.Background())
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	out := make(map[string]int)
	for _, src := range sources {
		if src.LastStatus != nil {
			out[src.AdapterID] = *src.LastStatus
		}
	}
	return out
}

func TestCheckAll_Mixed(t *testing.T) {
	handler := func(code int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("method = %s, want HEAD", r.Method)
			}
			if code == http.StatusMovedPermanently {
				w.Header().Set("Location", "https://example.com/new")
			}
			w.WriteHeader(code)
		}))
	}
	srv200, srv404, srv301 := handler(200), handler(404), handler(301)
	defer srv200.Close()
	defer srv404.Close()
	defer srv301.Close()

	sdb := seeded(t,
		&fakeAdapter{"ok", "ccd", "ok", srv200.URL, "PD"},
		&fakeAdapter{"missing", "pss", "404", srv404.URL, "PD"},
		&fakeAdapter{"moved", "ccd2", "301", srv301.URL, "PD"},
	)
	NewChecker(sdb, quietLogger(), time.Hour).CheckAll(context.Background())

	got := statuses(t, sdb)
	want := map[string]int{"ok": 200, "missing": 404, "moved": 301}
	for id, code := range want {
		if got[id] != code {
			t.Errorf("%s: status = %d, want %d", id, got[id], code)
		}
	}
}

func TestCheckAll_NetworkError(t *testing.T) {
	sdb := seeded(t, &fakeAdapter{"dead", "ccd", "dead", "http://127.0.0.1:1", "PD"})
	NewChecker(sdb, quietLogger(), time.Hour).CheckAll(context.Background())

	sources, _ := sdb.ListSources(context.Background())
	src := sources[0]
	if src.LastStatus == nil || *src.LastStatus != 0 {
		t.Errorf("expected status 0 for network error, got %v", src.LastStatus)
	}
	if src.LastError == nil || *src.LastError == "" {
		t.Error("expected non-empty last_error for network error")
	}
}

func TestCheckAll_FileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccd.csv")
	os.WriteFile(path, []byte("NCESSCH,SCH_NAME\n"), 0o644)

	sdb := seeded(t,
		&fakeAdapter{"local", "ccd", "local", "file://" + path, "PD"},
		&fakeAdapter{"gone", "pss", "gone", "file:///nonexistent/pss.csv", "PD"},
	)
	NewChecker(sdb, quietLogger(), time.Hour).CheckAll(context.Background())

	got := statuses(t, sdb)
	if got["local"] != 200 || got["gone"] != 404 {
		t.Errorf("statuses = %v", got)
	}
}

func TestCheckAll_EmptyDB(t *testing.T) {
	NewChecker(tempSourceDB(t), quietLogger(), time.Hour).CheckAll(context.Background())
}

func TestChecker_StartStops(t *testing.T) {
	sdb := seeded(t, &fakeAdapter{"dead", "ccd", "dead", "http://127.0.0.1:1", "PD"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewChecker(sdb, quietLogger(), time.Hour).Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
