package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/archive-export/internal/archive"
	"github.com/angelmondragon/archive-export/internal/normalize"
	"github.com/angelmondragon/archive-export/internal/runlock"
	"github.com/angelmondragon/archive-export/internal/sink"
	"github.com/angelmondragon/archive-export/internal/stores"
	"github.com/angelmondragon/archive-export/pkg/enums"
	pkgerrors "github.com/angelmondragon/archive-export/pkg/errors"
	"github.com/angelmondragon/archive-export/pkg/logger"
	"github.com/angelmondragon/archive-export/pkg/metrics"
)

// RegionURLs maps a region to its API root.
type RegionURLs interface {
	BaseURL(region enums.Region) (string, error)
}

type fetcher interface {
	FetchAll(ctx context.Context, baseURL string, category enums.Category, storeID string, startDate time.Time) (*archive.Result, error)
}

// Uploader ships finished files somewhere durable.
type Uploader interface {
	UploadFile(ctx context.Context, startDate, localPath string) (string, error)
}

// ServiceParams configure the export service.
type ServiceParams struct {
	Logger   *logger.Logger
	Regions  RegionURLs
	Resolver stores.Resolver
	Fetcher  fetcher
	Sink     sink.Sink
	Lock     runlock.Lock
	Metrics  *metrics.ExportMetrics
	// Uploader is optional.
	Uploader Uploader
	// Gatherer and MetricsPath are optional; both are needed to write the textfile.
	Gatherer    prometheus.Gatherer
	MetricsPath string
	// Out receives the human progress lines.
	Out io.Writer
	Now func() time.Time
}

// Service runs one export invocation.
type Service struct {
	logg        *logger.Logger
	regions     RegionURLs
	resolver    stores.Resolver
	fetcher     fetcher
	sink        sink.Sink
	lock        runlock.Lock
	metrics     *metrics.ExportMetrics
	uploader    Uploader
	gatherer    prometheus.Gatherer
	metricsPath string
	out         io.Writer
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Regions == nil {
		return nil, fmt.Errorf("region urls required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("store resolver required")
	}
	if params.Fetcher == nil {
		return nil, fmt.Errorf("fetcher required")
	}
	if params.Sink == nil {
		return nil, fmt.Errorf("sink required")
	}
	lock := params.Lock
	if lock == nil {
		lock = runlock.Noop{}
	}
	out := params.Out
	if out == nil {
		out = io.Discard
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:        params.Logger,
		regions:     params.Regions,
		resolver:    params.Resolver,
		fetcher:     params.Fetcher,
		sink:        params.Sink,
		lock:        lock,
		metrics:     params.Metrics,
		uploader:    params.Uploader,
		gatherer:    params.Gatherer,
		metricsPath: params.MetricsPath,
		out:         out,
		now:         now,
	}, nil
}

// run holds the state of a single invocation.
type run struct {
	baseURL string
	stores  []archive.Store
	report  *Report
}

// Run exports every planned category. Fatal errors stop the run; records
// already written stay on disk. The report is returned even on error.
func (s *Service) Run(ctx context.Context, plan *Plan) (report *Report, err error) {
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUsage, "plan required")
	}
	report = &Report{
		RunID:     uuid.NewString(),
		Region:    plan.Region,
		StartDate: plan.StartDate,
	}
	ctx = s.logg.WithRunID(ctx, report.RunID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"region":     plan.Region.String(),
		"start_date": plan.StartDate.Format(dateLayout),
	})

	baseURL, err := s.regions.BaseURL(plan.Region)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve region")
	}

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire run lock")
	}
	if !locked {
		return report, pkgerrors.New(pkgerrors.CodeConflict, "another export holds the run lock")
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release run lock", relErr)
		}
	}()

	s.logg.Info(ctx, "export starting")
	for _, line := range plan.Preamble {
		s.println(line)
	}

	state := &run{baseURL: baseURL, report: report}
	for _, step := range plan.Steps {
		if step.Category == "" {
			for _, line := range step.Notice {
				s.println(line)
			}
			continue
		}
		if err = s.exportCategory(ctx, state, step.Category, plan.StartDate); err != nil {
			break
		}
		s.println(fmt.Sprintf("%s done", step.Category))
	}

	err = multierr.Append(err, s.closeSink())
	report.Files = s.sink.Files()

	if err == nil && s.uploader != nil {
		err = s.upload(ctx, report)
	}
	if err == nil {
		s.metrics.MarkSuccess(s.now())
	}
	if s.gatherer != nil && s.metricsPath != "" {
		if mErr := metrics.WriteTextfile(s.metricsPath, s.gatherer); mErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", mErr.Error()), "failed to write metrics textfile")
		}
	}

	fields := map[string]any{
		"files":     len(report.Files),
		"records":   report.Records(),
		"truncated": len(report.Truncations()),
	}
	if err != nil {
		for k, v := range pkgerrors.Dump(err).LogFields() {
			fields[k] = v
		}
		s.logg.Error(s.logg.WithFields(ctx, fields), "export failed", err)
		return report, err
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "export complete")
	return report, nil
}

func (s *Service) exportCategory(ctx context.Context, state *run, category enums.Category, startDate time.Time) error {
	ctx = s.logg.WithCategory(ctx, category.String())
	start := s.now()
	defer func() { s.metrics.ObserveDuration(category.String(), s.now().Sub(start)) }()

	if state.stores == nil {
		resolved, err := s.resolver.Resolve(ctx, state.baseURL)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
		}
		if resolved == nil {
			resolved = []archive.Store{}
		}
		state.stores = resolved
	}

	cat := state.report.category(category)
	for _, store := range state.stores {
		storeCtx := s.logg.WithStoreID(ctx, store.ID)
		s.println("Fetching store " + store.ID)

		result, err := s.fetcher.FetchAll(storeCtx, state.baseURL, category, store.ID, startDate)
		if err != nil {
			if ctx.Err() != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export canceled")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("fetch %s for store %s", category, store.ID))
		}

		rows := normalize.Normalize(result.Records, category)
		written, err := s.sink.Write(category, rows)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("write %s", category.FileName()))
		}
		s.metrics.AddRecords(category.String(), written)

		cat.Stores++
		cat.Pages += result.Pages
		cat.Records += written
		if result.Truncated() {
			cat.Truncated = append(cat.Truncated, Truncation{StoreID: store.ID, Reason: result.Stop})
		}
		s.logg.Debug(s.logg.WithFields(storeCtx, map[string]any{
			"records": written,
			"pages":   result.Pages,
		}), "store exported")
	}
	return nil
}

func (s *Service) closeSink() error {
	if err := s.sink.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close output files")
	}
	return nil
}

func (s *Service) upload(ctx context.Context, report *Report) error {
	var errs error
	for _, path := range report.Files {
		uri, err := s.uploader.UploadFile(ctx, report.StartDate.Format(dateLayout), path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		report.Uploaded = append(report.Uploaded, uri)
		s.logg.Info(s.logg.WithField(ctx, "object", uri), "uploaded export file")
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "upload export files")
	}
	return nil
}

func (s *Service) println(line string) {
	fmt.Fprintln(s.out, line)
}
