package nces

import (
	"fmt"
	"io"
	"strings"

	"github.com/hazyhaar/hsregistry/pkg/dataset"
)

// layout describes where a directory export keeps the reference fields.
type layout struct {
	source    Source
	id        string
	name      string
	street    []string
	city      string
	state     string
	zip       string
	levelCols []string
	isHigh    func(level string) bool
}

var ccdLayout = layout{
	source:    SourceCCD,
	id:        "NCESSCH",
	name:      "SCH_NAME",
	street:    []string{"LSTREET1", "LSTREET2", "LSTREET3"},
	city:      "LCITY",
	state:     "LSTATE",
	zip:       "LZIP",
	levelCols: []string{"LEVEL", "SCH_LEVEL", "SCHOOL_LEVEL"},
	isHigh: func(level string) bool {
		return strings.Contains(level, "3") || strings.Contains(strings.ToUpper(level), "HIGH")
	},
}

var pssLayout = layout{
	source:    SourcePSS,
	id:        "PPIN",
	name:      "PINST",
	street:    []string{"PADDRS"},
	city:      "PCITY",
	state:     "PSTATE",
	zip:       "PZIP",
	levelCols: []string{"LEVEL", "LEVEL12", "LEVEL_CODE"},
	isHigh: func(level string) bool {
		u := strings.ToUpper(level)
		return strings.Contains(u, "3") || strings.Contains(u, "4") ||
			strings.Contains(u, "HS") || strings.Contains(u, "HIGH")
	},
}

// ReadCCD reads a CCD directory export (public schools). With
// highSchoolsOnly, rows whose level column does not mention high school
// grades are dropped; files without a level column are kept whole.
func ReadCCD(r io.Reader, highSchoolsOnly bool) ([]Reference, error) {
	return read(r, ccdLayout, highSchoolsOnly)
}

// ReadPSS reads a PSS private school export.
func ReadPSS(r io.Reader, highSchoolsOnly bool) ([]Reference, error) {
	return read(r, pssLayout, highSchoolsOnly)
}

// ReadSource dispatches on src.
func ReadSource(r io.Reader, src Source, highSchoolsOnly bool) ([]Reference, error) {
	switch src {
	case SourceCCD:
		return ReadCCD(r, highSchoolsOnly)
	case SourcePSS:
		return ReadPSS(r, highSchoolsOnly)
	}
	return nil, fmt.Errorf("nces: unknown source %q", src)
}

func read(r io.Reader, lay layout, highSchoolsOnly bool) ([]Reference, error) {
	ds, err := dataset.ReadCSV(r, ',')
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", lay.source, err)
	}
	idx, err := ds.Require(lay.id, lay.name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", lay.source, err)
	}

	level := -1
	if highSchoolsOnly {
		for _, c := range lay.levelCols {
			if level = ds.Index(c); level >= 0 {
				break
			}
		}
	}
	streets := make([]int, len(lay.street))
	for i, c := range lay.street {
		streets[i] = ds.Index(c)
	}
	city, state, zip := ds.Index(lay.city), ds.Index(lay.state), ds.Index(lay.zip)

	out := make([]Reference, 0, ds.Len())
	for i := range ds.Rows {
		if level >= 0 && !lay.isHigh(ds.Value(i, level)) {
			continue
		}
		parts := make([]string, 0, len(streets))
		for _, c := range streets {
			if v := ds.Value(i, c); v != "" {
				parts = append(parts, v)
			}
		}
		out = append(out, Reference{
			NCESID: ds.Value(i, idx[0]),
			Name:   ds.Value(i, idx[1]),
			Street: strings.Join(parts, " "),
			City:   ds.Value(i, city),
			State:  strings.ToUpper(ds.Value(i, state)),
			Zip:    ds.Value(i, zip),
			Source: lay.source,
		})
	}
	return out, nil
}
