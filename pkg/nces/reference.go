// Package nces cross-references school names against the NCES directories:
// CCD for public schools and PSS for private schools.
package nces

import (
	"errors"
	"strings"
)

// ErrNoReference is returned when matching runs without a loaded reference
// table.
var ErrNoReference = errors.New("nces: no reference table loaded")

// Source identifies the directory a reference row came from.
type Source string

const (
	SourceCCD Source = "ccd"
	SourcePSS Source = "pss"
)

func (s Source) IsValid() bool { return s == SourceCCD || s == SourcePSS }

// Reference is one official directory row.
type Reference struct {
	NCESID string `json:"nces_id"`
	Name   string `json:"name"`
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
	Source Source `json:"source"`
}

func (r Reference) trimmed() Reference {
	r.NCESID = strings.TrimSpace(r.NCESID)
	r.Name = strings.TrimSpace(r.Name)
	r.Street = strings.TrimSpace(r.Street)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Zip = strings.TrimSpace(r.Zip)
	return r
}

// Confidence grades a match.
type Confidence string

const (
	ConfidenceExact     Confidence = "exact"
	ConfidenceAmbiguous Confidence = "ambiguous"
	ConfidenceNone      Confidence = "none"
)

// MatchResult is the outcome of one query. For ambiguous results the
// reference fields hold the first candidate by (name, nces_id) and
// Candidates counts the surviving set. A none result carries no reference.
type MatchResult struct {
	NCESID      string     `json:"nces_id,omitempty"`
	MatchedName string     `json:"matched_name,omitempty"`
	Street      string     `json:"street,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	Zip         string     `json:"zip,omitempty"`
	Source      Source     `json:"source,omitempty"`
	Confidence  Confidence `json:"confidence"`
	Candidates  int        `json:"candidates"`
}

// Matched reports whether a reference row was returned.
func (m MatchResult) Matched() bool { return m.Confidence != ConfidenceNone && m.NCESID != "" }

func resultFrom(r Reference, conf Confidence, n int) MatchResult {
	return MatchResult{
		NCESID:      r.NCESID,
		MatchedName: r.Name,
		Street:      r.Street,
		City:        r.City,
		State:       r.State,
		Zip:         r.Zip,
		Source:      r.Source,
		Confidence:  conf,
		Candidates:  n,
	}
}
