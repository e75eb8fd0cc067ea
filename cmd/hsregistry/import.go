package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hazyhaar/hsregistry/pkg/importer"
)

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	source := fs.String("source", "", "adapter ID to import (e.g. nces-ccd)")
	all := fs.Bool("all", false, "import all available sources")
	setURL := fs.String("url", "", "store this URL for -source before importing (http(s), file:// or a path)")
	outputDir := fs.String("output-dir", "", "reference directory (default data.reference_dir)")
	fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	if *outputDir == "" {
		*outputDir = cfg.Data.ReferenceDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	sources, err := openSources(ctx, cfg.Data.SourcesDB)
	if err != nil {
		return fmt.Errorf("open sources db: %w", err)
	}
	defer sources.Close()

	if !*all && *source == "" {
		return listSources(ctx, os.Stdout, sources)
	}

	if *all {
		results, err := importer.RunAll(ctx, sources, *outputDir, logger)
		for _, r := range results {
			fmt.Printf("OK %d rows -> %s\n", r.Rows, r.Dir)
		}
		return err
	}

	a, err := importer.Get(*source)
	if err != nil {
		return err
	}
	if *setURL != "" {
		if err := sources.SetURL(ctx, a.ID(), *setURL); err != nil {
			return err
		}
	}
	res, err := importer.Run(ctx, sources, a, *outputDir, logger)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] OK %d rows -> %s\n", a.ID(), res.Rows, res.Dir)
	return nil
}

func listSources(ctx context.Context, w io.Writer, sources *importer.SourceDB) error {
	list, err := sources.ListSources(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Available sources:")
	fmt.Fprintln(w)
	for _, src := range list {
		status := ""
		if src.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *src.LastStatus)
		}
		if src.LastRows != nil {
			status += fmt.Sprintf("  %d rows", *src.LastRows)
		}
		fmt.Fprintf(w, "  %-10s  %s  (-> %s)%s\n", src.AdapterID, src.Description, src.TargetDir, status)
		fmt.Fprintf(w, "              %s\n", src.SourceURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  hsregistry import -source <id> [-url <url>] [-output-dir <dir>]")
	fmt.Fprintln(w, "  hsregistry import -all [-output-dir <dir>]")
	return nil
}
