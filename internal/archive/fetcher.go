package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/archive-export/pkg/enums"
	"github.com/angelmondragon/archive-export/pkg/logger"
	"github.com/angelmondragon/archive-export/pkg/metrics"
	"github.com/angelmondragon/archive-export/pkg/pagination"
	"github.com/angelmondragon/archive-export/pkg/types"
)

// PageSource returns single archive pages.
type PageSource interface {
	FetchPage(ctx context.Context, baseURL string, category enums.Category, q PageQuery) (*Page, error)
}

// Enricher post-processes a record as soon as it arrives.
type Enricher interface {
	Enrich(ctx context.Context, category enums.Category, rec types.Record) types.Record
}

// FetcherParams configure a Fetcher.
type FetcherParams struct {
	Source   PageSource
	Enricher Enricher
	Logger   *logger.Logger
	Metrics  *metrics.ExportMetrics
	MaxPages int
}

// Fetcher walks the archive cursor for one (store, category) pair.
type Fetcher struct {
	source   PageSource
	enricher Enricher
	logg     *logger.Logger
	metrics  *metrics.ExportMetrics
	maxPages int
}

// Result is what one store yielded. Truncated results are still usable.
type Result struct {
	Records []types.Record
	Pages   int
	Stop    pagination.StopReason
	// Status carries the non-success metadata that ended the walk, if any.
	Status *Metadata
}

// Truncated reports whether the walk ended before the archive was exhausted.
func (r *Result) Truncated() bool {
	return r != nil && r.Stop.Truncated()
}

// NewFetcher builds a Fetcher.
func NewFetcher(params FetcherParams) (*Fetcher, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("page source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Fetcher{
		source:   params.Source,
		enricher: params.Enricher,
		logg:     params.Logger,
		metrics:  params.Metrics,
		maxPages: pagination.NormalizeMaxPages(params.MaxPages),
	}, nil
}

// FetchAll accumulates every record for the store from startDate onward.
// A non-success status ends the walk and keeps the records gathered so far;
// transport and decode failures are returned as errors.
func (f *Fetcher) FetchAll(ctx context.Context, baseURL string, category enums.Category, storeID string, startDate time.Time) (*Result, error) {
	walker := pagination.NewWalker(f.maxPages)
	result := &Result{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := f.source.FetchPage(ctx, baseURL, category, PageQuery{
			StoreID:   storeID,
			StartDate: startDate,
			Cursor:    walker.Cursor(),
		})
		if err != nil {
			return nil, err
		}

		if !page.Metadata.OK() {
			status := page.Metadata
			result.Status = &status
			result.Stop = pagination.StopStatus
			f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
				"code":    status.Code,
				"message": status.Message,
				"pages":   walker.Pages(),
			}), fmt.Sprintf("error fetching %s archive; keeping %d records", category, len(result.Records)))
			break
		}

		for _, rec := range page.Values {
			if f.enricher != nil {
				rec = f.enricher.Enrich(ctx, category, rec)
			}
			result.Records = append(result.Records, rec)
		}

		if stop := walker.Advance(page.Next, page.HasMore); stop != pagination.StopNone {
			result.Stop = stop
			if stop.Truncated() {
				f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
					"reason": string(stop),
					"pages":  walker.Pages(),
				}), "archive pagination stopped early")
			}
			break
		}
	}

	result.Pages = walker.Pages()
	f.metrics.IncPages(category.String(), result.Pages)
	if result.Truncated() {
		f.metrics.IncTruncated(category.String(), string(result.Stop))
	}
	return result, nil
}
