package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/hsregistry/pkg/api"
	"github.com/hazyhaar/hsregistry/pkg/dataset"
	"github.com/hazyhaar/hsregistry/pkg/nces"
	"github.com/hazyhaar/hsregistry/pkg/school"
)

const roster = "high_school,state,city,player_count\n" +
	"Central High School,CA,Fresno,5\n" +
	"Central HS,CA,Fresno,2\n" +
	"Oak Hill Academy,VA,Mouth of Wilson,\n"

// isolate runs the command in an empty directory with every data path
// pointing inside it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HSREG_CONFIG", "")
	t.Setenv("HSREG_LOG_LEVEL", "error")
	t.Setenv("HSREG_MAPPING_DB", filepath.Join(dir, "mappings.db"))
	t.Setenv("HSREG_SOURCES_DB", filepath.Join(dir, "sources.db"))
	t.Setenv("HSREG_REFERENCE_DIR", filepath.Join(dir, "reference"))
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func column(t *testing.T, ds *dataset.Dataset, name string) []string {
	t.Helper()
	idx := ds.Index(name)
	require.GreaterOrEqual(t, idx, 0, "missing column %s", name)
	out := make([]string, ds.Len())
	for i := range out {
		out[i] = ds.Value(i, idx)
	}
	return out
}

func TestBuildThenApply(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, filepath.Join(dir, "roster.csv"), roster)
	table := filepath.Join(dir, "mapping.json")

	require.NoError(t, cmdBuild([]string{"-in", in, "-out", table, "-save", "-label", "spring"}))

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, cmdApply([]string{"-in", in, "-mapping", table, "-out", out}))

	ds, err := dataset.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Central High School", "Central High School", "Oak Hill Academy"},
		column(t, ds, "high_school_standardized"))
	assert.Equal(t, []string{"high_auto", "high_auto", "high_manual"}, column(t, ds, "hs_confidence"))
	assert.Equal(t, []string{"false", "true", "false"}, column(t, ds, "hs_was_standardized"))
	assert.Equal(t, []string{"Central High School", "Central HS", "Oak Hill Academy"},
		column(t, ds, "high_school"), "input column untouched")

	fromSnapshot := filepath.Join(dir, "snap.csv")
	require.NoError(t, cmdApply([]string{"-in", in, "-snapshot", "latest", "-out", fromSnapshot}))
	snap, err := dataset.ReadFile(fromSnapshot)
	require.NoError(t, err)
	assert.Equal(t, column(t, ds, "high_school_standardized"), column(t, snap, "high_school_standardized"))
}

func TestApply_RequiresOneTableSource(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, filepath.Join(dir, "roster.csv"), roster)
	assert.Error(t, cmdApply([]string{"-in", in}))
	assert.Error(t, cmdApply([]string{"-in", in, "-mapping", "a.csv", "-snapshot", "latest"}))
}

func TestBuild_CustomOverrides(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, filepath.Join(dir, "roster.csv"), roster)
	custom := writeFile(t, filepath.Join(dir, "custom.yaml"), "custom:\n  - original: Central HS\n    standardized: Central Union High School\n    state: CA\n")
	table := filepath.Join(dir, "mapping.csv")

	require.NoError(t, cmdBuild([]string{"-in", in, "-out", table, "-custom", custom, "-no-prep"}))

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, cmdApply([]string{"-in", in, "-mapping", table, "-out", out}))
	ds, err := dataset.ReadFile(out)
	require.NoError(t, err)
	std := column(t, ds, "high_school_standardized")
	assert.Equal(t, "Central Union High School", std[1])
	assert.Equal(t, "Oak Hill Academy", std[2])
	assert.Equal(t, "unstandardized", column(t, ds, "hs_confidence")[2])
}

func TestMatch(t *testing.T) {
	dir := isolate(t)
	refs := []nces.Reference{
		{NCESID: "060000100001", Name: "CENTRAL HIGH SCHOOL", City: "Fresno", State: "CA", Source: nces.SourceCCD},
		{NCESID: "060000100002", Name: "Central H.S.", City: "El Centro", State: "CA", Source: nces.SourceCCD},
	}
	refDir := filepath.Join(dir, "reference")
	require.NoError(t, nces.WriteDir(filepath.Join(refDir, "ccd"), nces.Manifest{Source: nces.SourceCCD}, refs))
	in := writeFile(t, filepath.Join(dir, "roster.csv"), roster)
	out := filepath.Join(dir, "matched.csv")

	require.NoError(t, cmdMatch([]string{"-in", in, "-out", out, "-standardize", "-workers", "2"}))

	ds, err := dataset.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"060000100001", "060000100001", ""}, column(t, ds, "nces_id"))
	assert.Equal(t, []string{"exact", "exact", "none"}, column(t, ds, "nces_confidence"))
	assert.Equal(t, "Central High School", column(t, ds, "nces_standardized_name")[0])
}

func TestMatch_NoReference(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, filepath.Join(dir, "roster.csv"), roster)
	assert.Error(t, cmdMatch([]string{"-in", in, "-reference", filepath.Join(dir, "missing")}))
}

func TestImport_LocalFile(t *testing.T) {
	dir := isolate(t)
	src := writeFile(t, filepath.Join(dir, "ccd.csv"),
		"NCESSCH,SCH_NAME,LSTREET1,LCITY,LSTATE,LZIP,LEVEL\n"+
			"060000100001,Central High,1 Main St,Fresno,CA,93701,3\n"+
			"060000100009,Central Elementary,2 Main St,Fresno,CA,93701,1\n")

	require.NoError(t, cmdImport([]string{"-source", "nces-ccd", "-url", src}))

	l, err := nces.LoadDir(filepath.Join(dir, "reference"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
	m, err := l.Match("Central High", "CA", "")
	require.NoError(t, err)
	assert.Equal(t, "060000100001", m.NCESID)
}

func TestImport_UnknownSource(t *testing.T) {
	isolate(t)
	assert.Error(t, cmdImport([]string{"-source", "nope"}))
}

func TestPrintNormalized(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printNormalized(&buf, school.NewClassifier(nil), []string{"Central High School", "IMG Academy"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "CENTRAL")
	assert.Contains(t, lines[1], "yes")
	assert.Contains(t, lines[2], "prep")
}

func TestReloadOnSignal(t *testing.T) {
	dir := t.TempDir()
	refs := []nces.Reference{{NCESID: "060000100001", Name: "Central High School", State: "CA", Source: nces.SourceCCD}}
	require.NoError(t, nces.WriteDir(filepath.Join(dir, "ccd"), nces.Manifest{Source: nces.SourceCCD}, refs))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := api.NewService(api.Options{ReferenceDir: dir, Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		reloadOnSignal(ctx, sig, svc, logger)
		close(done)
	}()

	sig <- syscall.SIGHUP
	require.Eventually(t, func() bool { return svc.Lookup() != nil }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reload loop did not stop after cancel")
	}
}
