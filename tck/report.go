package tck

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Status is a clause verdict.
type Status int

const (
	// StatusPass means the provider honored the clause.
	StatusPass Status = iota

	// StatusFail means the provider observably violated the clause.
	StatusFail

	// StatusError means the harness or fixture could not complete the
	// clause; the provider's behavior was not determined.
	StatusError
)

// String returns the verdict name.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the verdict name for JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ClauseResult is one clause's verdict with enough detail to localize a
// violation: the mismatch reason for FAIL, the wiring cause for ERROR.
type ClauseResult struct {
	Contract string        `json:"contract"`
	Clause   string        `json:"clause"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Cause    string        `json:"cause,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Report aggregates per-clause verdicts for one suite run, keyed by
// (contract, clause).
type Report struct {
	Results []ClauseResult `json:"results"`
}

// Ok reports whether every clause passed.
func (r *Report) Ok() bool {
	for _, res := range r.Results {
		if res.Status != StatusPass {
			return false
		}
	}
	return true
}

// Counts returns the number of passed, failed and errored clauses.
func (r *Report) Counts() (passed, failed, errored int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusError:
			errored++
		}
	}
	return
}

// Result looks up a verdict by contract and clause name.
func (r *Report) Result(contract, clause string) (ClauseResult, bool) {
	for _, res := range r.Results {
		if res.Contract == contract && res.Clause == clause {
			return res, true
		}
	}
	return ClauseResult{}, false
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable renders the report as a human-readable table.
func (r *Report) WriteTable(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Contract", "Clause", "Verdict", "Detail"})
	for _, res := range r.Results {
		detail := res.Reason
		if res.Status == StatusError {
			detail = res.Cause
		}
		tw.AppendRow(table.Row{res.Contract, res.Clause, res.Status.String(), detail})
	}
	passed, failed, errored := r.Counts()
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d passed, %d failed, %d errored", passed, failed, errored)})
	tw.Render()
}
