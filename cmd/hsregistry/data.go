package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
	"github.com/hazyhaar/hsregistry/pkg/mapping"
	"github.com/hazyhaar/hsregistry/pkg/nces"
	"github.com/hazyhaar/hsregistry/pkg/school"
)

// mappingColumnFlags registers the roster column flags shared by build and apply.
func mappingColumnFlags(fs *flag.FlagSet) *mapping.Columns {
	d := mapping.DefaultColumns()
	c := &mapping.Columns{}
	fs.StringVar(&c.Name, "name-col", d.Name, "school name column")
	fs.StringVar(&c.State, "state-col", d.State, "state column")
	fs.StringVar(&c.City, "city-col", d.City, "city column")
	fs.StringVar(&c.PlayerCount, "count-col", d.PlayerCount, "player count column (optional)")
	return c
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	in := fs.String("in", "", "roster CSV/TSV to read")
	out := fs.String("out", "", "mapping output (.json or .csv; stdout CSV when empty)")
	custom := fs.String("custom", "", "custom overrides (.yaml or .csv; default mapping.custom_overrides)")
	noPrep := fs.Bool("no-prep", false, "leave prep-school entries out")
	ignoreState := fs.Bool("ignore-state", false, "group duplicates across states")
	save := fs.Bool("save", false, "store the table as a snapshot in the mapping DB")
	label := fs.String("label", "", "snapshot label")
	cols := mappingColumnFlags(fs)
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	if *custom == "" {
		*custom = cfg.Mapping.CustomOverrides
	}

	ds, err := dataset.ReadFile(*in)
	if err != nil {
		return err
	}
	records, err := mapping.RecordsFromDataset(ds, *cols)
	if err != nil {
		return err
	}
	prep, err := prepRegistry(cfg.Mapping.PrepOverrides)
	if err != nil {
		return err
	}
	entries, err := customEntries(*custom)
	if err != nil {
		return err
	}

	opts := []mapping.BuildOption{mapping.WithPrepRegistry(prep), mapping.WithLogger(logger)}
	if *noPrep || cfg.Mapping.SkipPrep {
		opts = append(opts, mapping.WithoutPrepSchools())
	}
	if *ignoreState || cfg.Mapping.IgnoreState {
		opts = append(opts, mapping.WithoutStateGrouping())
	}
	if len(entries) > 0 {
		opts = append(opts, mapping.WithCustom(entries))
	}
	t := mapping.Build(records, opts...)

	if err := writeTable(*out, t); err != nil {
		return err
	}

	if *save {
		store, err := openStore(cfg.Data.MappingDB)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(context.Background(), t, *label)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "snapshot %s\n", id)
	}

	s := t.Summary()
	fmt.Fprintf(os.Stderr, "%d entries, %d changed (duplicates %d, prep %d, custom %d)\n",
		s.Total, s.Changed,
		s.BySource[mapping.SourceDuplicateResolution],
		s.BySource[mapping.SourcePrepSchool],
		s.BySource[mapping.SourceCustom])
	return nil
}

func cmdApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	in := fs.String("in", "", "roster CSV/TSV to read")
	out := fs.String("out", "", "augmented output (stdout when empty)")
	table := fs.String("mapping", "", "mapping table file (.json or .csv)")
	snapshot := fs.String("snapshot", "", "snapshot id in the mapping DB, or \"latest\"")
	cols := mappingColumnFlags(fs)
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	if (*table == "") == (*snapshot == "") {
		return fmt.Errorf("exactly one of -mapping or -snapshot is required")
	}
	cfg, _, err := setup(*cfgPath)
	if err != nil {
		return err
	}

	var t *mapping.Table
	if *table != "" {
		t, err = readTable(*table)
	} else {
		t, err = loadSnapshot(cfg.Data.MappingDB, *snapshot)
	}
	if err != nil {
		return err
	}

	ds, err := dataset.ReadFile(*in)
	if err != nil {
		return err
	}
	augmented, err := mapping.ApplyDataset(ds, t, *cols)
	if err != nil {
		return err
	}
	return writeDataset(*out, augmented)
}

func cmdMatch(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	in := fs.String("in", "", "roster CSV/TSV to read")
	out := fs.String("out", "", "augmented output (stdout when empty)")
	refDir := fs.String("reference", "", "NCES reference directory (default data.reference_dir)")
	workers := fs.Int("workers", -1, "matching goroutines (default match.workers)")
	standardize := fs.Bool("standardize", false, "also add <prefix>standardized_name with the official or suffix-standardized name")
	d := nces.DefaultColumns()
	cols := nces.Columns{}
	fs.StringVar(&cols.Name, "name-col", d.Name, "school name column")
	fs.StringVar(&cols.State, "state-col", d.State, "state column")
	fs.StringVar(&cols.City, "city-col", d.City, "city column")
	fs.StringVar(&cols.Prefix, "prefix", d.Prefix, "prefix of the appended columns")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	if *refDir == "" {
		*refDir = cfg.Data.ReferenceDir
	}
	if *workers < 0 {
		*workers = cfg.Match.Workers
	}

	lookup, err := nces.LoadDir(*refDir, logger)
	if err != nil {
		return err
	}
	ds, err := dataset.ReadFile(*in)
	if err != nil {
		return err
	}
	augmented, err := nces.BatchMatchDataset(context.Background(), ds, lookup, cols, *workers)
	if err != nil {
		return err
	}
	if *standardize {
		augmented, err = addStandardizedName(augmented, lookup, cols)
		if err != nil {
			return err
		}
	}
	return writeDataset(*out, augmented)
}

func addStandardizedName(ds *dataset.Dataset, l *nces.Lookup, cols nces.Columns) (*dataset.Dataset, error) {
	name, state, city := ds.Index(cols.Name), ds.Index(cols.State), ds.Index(cols.City)
	return ds.Augment([]string{cols.Prefix + "standardized_name"}, func(i int) []string {
		return []string{l.StandardizedName(ds.Value(i, name), ds.Value(i, state), ds.Value(i, city), true)}
	})
}

func cmdNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: hsregistry normalize <name> [name...]")
	}
	cfg, _, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	prep, err := prepRegistry(cfg.Mapping.PrepOverrides)
	if err != nil {
		return err
	}
	return printNormalized(os.Stdout, school.NewClassifier(prep), fs.Args())
}

func printNormalized(w io.Writer, c *school.Classifier, names []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKEY\tTYPE\tRULE\tCOMMON")
	for _, name := range names {
		key := school.Normalize(name)
		typ, rule := c.Explain(name)
		common := ""
		if school.IsLikelyCommonName(key) {
			common = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, key, typ, rule, common)
	}
	return tw.Flush()
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func writeTable(path string, t *mapping.Table) error {
	if path == "" {
		return mapping.WriteCSV(os.Stdout, t)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if isJSON(path) {
		err = mapping.WriteJSON(f, t)
	} else {
		err = mapping.WriteCSV(f, t)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func readTable(path string) (*mapping.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if isJSON(path) {
		return mapping.ReadJSON(f)
	}
	return mapping.ReadCSV(f)
}

func loadSnapshot(dbPath, id string) (*mapping.Table, error) {
	store, err := mapping.OpenStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ctx := context.Background()
	if id == "latest" {
		if id, err = store.Latest(ctx); err != nil {
			return nil, err
		}
	}
	return store.Load(ctx, id)
}

func writeDataset(path string, ds *dataset.Dataset) error {
	if path == "" {
		return dataset.WriteCSV(os.Stdout, ds, ',')
	}
	return dataset.WriteFile(path, ds)
}
