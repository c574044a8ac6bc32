package export

import (
	"time"

	"github.com/angelmondragon/archive-export/pkg/enums"
	pkgerrors "github.com/angelmondragon/archive-export/pkg/errors"
	"github.com/angelmondragon/archive-export/pkg/pagination"
)

// Truncation names a store whose pagination stopped early.
type Truncation struct {
	StoreID string
	Reason  pagination.StopReason
}

// CategoryReport summarizes one category across all stores.
type CategoryReport struct {
	Category  enums.Category
	Stores    int
	Pages     int
	Records   int
	Truncated []Truncation
}

// Report is the outcome of one run.
type Report struct {
	RunID      string
	Region     enums.Region
	StartDate  time.Time
	Categories []*CategoryReport
	Files      []string
	Uploaded   []string
}

func (r *Report) category(c enums.Category) *CategoryReport {
	for _, cr := range r.Categories {
		if cr.Category == c {
			return cr
		}
	}
	cr := &CategoryReport{Category: c}
	r.Categories = append(r.Categories, cr)
	return cr
}

// Category returns the summary for c, or nil if c was not exported.
func (r *Report) Category(c enums.Category) *CategoryReport {
	if r == nil {
		return nil
	}
	for _, cr := range r.Categories {
		if cr.Category == c {
			return cr
		}
	}
	return nil
}

// Records is the total number of rows written.
func (r *Report) Records() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, cr := range r.Categories {
		total += cr.Records
	}
	return total
}

// Truncations flattens every truncated fetch across categories.
func (r *Report) Truncations() []Truncation {
	if r == nil {
		return nil
	}
	var out []Truncation
	for _, cr := range r.Categories {
		out = append(out, cr.Truncated...)
	}
	return out
}

// ExitCode is ExitPartial when any fetch was truncated, otherwise ExitOK.
func (r *Report) ExitCode() int {
	if len(r.Truncations()) > 0 {
		return pkgerrors.ExitPartial
	}
	return pkgerrors.ExitOK
}
