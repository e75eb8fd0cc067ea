package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/nces"
)

func init() {
	Register(&ncesAdapter{
		id:          "nces-ccd",
		source:      nces.SourceCCD,
		description: "NCES Common Core of Data, public school directory",
		defaultURL:  "https://nces.ed.gov/ccd/Data/zip/ccd_sch_029_2223_w_1a_083023.zip",
		highOnly:    true,
	})
	Register(&ncesAdapter{
		id:          "nces-pss",
		source:      nces.SourcePSS,
		description: "NCES Private School Survey, private school directory",
		defaultURL:  "https://nces.ed.gov/surveys/pss/zip/pss2122_pu_csv.zip",
		highOnly:    true,
	})
}

// ncesAdapter imports one NCES directory export, zipped or plain CSV.
type ncesAdapter struct {
	id          string
	source      nces.Source
	description string
	defaultURL  string
	highOnly    bool
}

func (a *ncesAdapter) ID() string          { return a.id }
func (a *ncesAdapter) TargetDir() string   { return string(a.source) }
func (a *ncesAdapter) Description() string { return a.description }
func (a *ncesAdapter) DefaultURL() string  { return a.defaultURL }
func (a *ncesAdapter) License() string     { return "Public Domain (U.S. Government Work)" }

func (a *ncesAdapter) Import(ctx context.Context, sourceURL, outputDir string) (Result, error) {
	dlDir := filepath.Join(outputDir, "_download", a.id)
	if err := ensureDir(dlDir); err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dlDir)

	name := filepath.Base(sourceURL)
	if name == "" || name == "." || name == "/" {
		name = a.id + ".csv"
	}
	raw := filepath.Join(dlDir, name)
	if err := fetch(ctx, sourceURL, raw); err != nil {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}

	csvPath := raw
	if strings.EqualFold(filepath.Ext(raw), ".zip") {
		files, err := unzipFile(raw, dlDir)
		if err != nil {
			return Result{}, fmt.Errorf("unzip: %w", err)
		}
		if csvPath, err = largestCSV(files); err != nil {
			return Result{}, err
		}
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", filepath.Base(csvPath), err)
	}
	defer f.Close()

	refs, err := nces.ReadSource(f, a.source, a.highOnly)
	if err != nil {
		return Result{}, err
	}
	if len(refs) == 0 {
		return Result{}, fmt.Errorf("%s: no rows kept from %s", a.id, filepath.Base(csvPath))
	}

	dir := filepath.Join(outputDir, a.TargetDir())
	m := nces.Manifest{
		Source:    a.source,
		SourceURL: sourceURL,
		License:   a.License(),
		HighOnly:  a.highOnly,
	}
	if err := nces.WriteDir(dir, m, refs); err != nil {
		return Result{}, fmt.Errorf("write reference dir: %w", err)
	}
	return Result{Dir: dir, Rows: len(refs)}, nil
}
