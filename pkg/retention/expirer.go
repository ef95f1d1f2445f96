package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"opengate-hq/keeper/pkg/catalog"
	"opengate-hq/keeper/pkg/recordfs"
	"opengate-hq/keeper/pkg/telemetry/logging"
	"opengate-hq/keeper/pkg/telemetry/metrics"
	"opengate-hq/keeper/pkg/telemetry/tracing"
)

// orphanLabel is the camera label of metrics recorded by the orphan sweep.
const orphanLabel = "orphaned"

// ExpirerConfig contains configuration for the expirer.
type ExpirerConfig struct {
	// BatchSize caps ids per delete statement.
	// Default: catalog.MaxDeleteBatch
	BatchSize int

	// DryRun computes decisions without touching files or rows.
	DryRun bool
}

// CameraResult summarizes the expiration of one camera, or of the orphan
// sweep when Orphan is set.
type CameraResult struct {
	Camera       string         `json:"camera,omitempty"`
	Orphan       bool           `json:"orphan,omitempty"`
	Cutoff       time.Time      `json:"cutoff"`
	Scanned      int            `json:"scanned"`
	Deleted      int            `json:"deleted"`
	RowsDeleted  int64          `json:"rows_deleted"`
	FilesRemoved int            `json:"files_removed"`
	FileErrors   int            `json:"file_errors"`
	Reasons      map[Reason]int `json:"reasons,omitempty"`
	Duration     time.Duration  `json:"duration"`
}

func (r *CameraResult) label() string {
	if r.Orphan {
		return orphanLabel
	}
	return r.Camera
}

// ExpireResult summarizes one expiration pass.
type ExpireResult struct {
	PassID   string          `json:"pass_id"`
	DryRun   bool            `json:"dry_run"`
	Orphans  *CameraResult   `json:"orphans,omitempty"`
	Cameras  []*CameraResult `json:"cameras"`
	Failures []*PassError    `json:"failures,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Deleted returns the number of recordings selected for deletion.
func (r *ExpireResult) Deleted() int {
	total := 0
	for _, c := range r.all() {
		total += c.Deleted
	}
	return total
}

// FilesRemoved returns the number of segment files unlinked.
func (r *ExpireResult) FilesRemoved() int {
	total := 0
	for _, c := range r.all() {
		total += c.FilesRemoved
	}
	return total
}

// FileErrors returns the number of segment files that could not be unlinked.
func (r *ExpireResult) FileErrors() int {
	total := 0
	for _, c := range r.all() {
		total += c.FileErrors
	}
	return total
}

func (r *ExpireResult) all() []*CameraResult {
	results := r.Cameras
	if r.Orphans != nil {
		results = append([]*CameraResult{r.Orphans}, results...)
	}
	return results
}

// Option configures an Expirer.
type Option func(*Expirer)

// WithMetrics records pass metrics in collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Expirer) { e.metrics = collector }
}

// WithTracer creates pass and camera spans with tracer.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(e *Expirer) { e.tracer = tracer }
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(e *Expirer) { e.now = now }
}

// WithLogger replaces the default component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expirer) { e.logger = logger }
}

// Expirer deletes recordings that fell out of their camera's retention.
//
// Per camera it reads, in start time order, the recordings that ended
// before the cutoff and the clip events that started before it, sweeps them
// once to decide what to delete, unlinks the segment files and removes the
// rows in bounded batches. Recordings of cameras no longer configured are
// deleted on the default cutoff alone.
type Expirer struct {
	store   catalog.Store
	config  *ExpirerConfig
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// NewExpirer creates an expirer over store.
func NewExpirer(store catalog.Store, config *ExpirerConfig, opts ...Option) *Expirer {
	c := ExpirerConfig{}
	if config != nil {
		c = *config
	}
	if c.BatchSize <= 0 || c.BatchSize > catalog.MaxDeleteBatch {
		c.BatchSize = catalog.MaxDeleteBatch
	}

	e := &Expirer{
		store:  store,
		config: &c,
		logger: slog.Default().With("component", "retention.expirer"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expire runs one pass: the orphan sweep, then every camera of plan in order.
// A camera whose catalog reads or deletes fail is skipped and recorded in
// the result's Failures; the pass always continues to the next camera. The
// returned error joins all failures and is nil when every camera succeeded.
func (e *Expirer) Expire(ctx context.Context, plan Plan) (*ExpireResult, error) {
	started := e.now()
	result := &ExpireResult{
		PassID: uuid.NewString(),
		DryRun: e.config.DryRun,
	}

	ctx = logging.WithPassID(ctx, result.PassID)
	ctx, span := e.tracer.Start(ctx, "retention.expire")
	defer span.End()
	tracing.SetPassAttributes(span, result.PassID, len(plan.Cameras), e.config.DryRun)

	e.logger.DebugContext(ctx, "expiration pass started", "cameras", len(plan.Cameras))

	orphans, err := e.ExpireOrphans(ctx, plan.CameraNames(), plan.DefaultDays)
	result.Orphans = orphans
	e.collectFailure(result, err)

	for _, policy := range plan.Cameras {
		cam, err := e.ExpireCamera(ctx, policy)
		result.Cameras = append(result.Cameras, cam)
		e.collectFailure(result, err)
	}

	result.Duration = e.now().Sub(started)
	e.metrics.RecordPass(result.Duration, len(result.Failures) > 0)

	passErr := result.Err()
	tracing.SetStatus(span, passErr)

	e.logger.InfoContext(ctx, "expiration pass completed",
		"cameras", len(plan.Cameras),
		"recordings_deleted", result.Deleted(),
		"files_removed", result.FilesRemoved(),
		"file_errors", result.FileErrors(),
		"failures", len(result.Failures),
		"dry_run", result.DryRun,
		"duration", result.Duration,
	)
	return result, passErr
}

// Err joins the pass failures, or returns nil.
func (r *ExpireResult) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (e *Expirer) collectFailure(result *ExpireResult, err error) {
	var passErr *PassError
	if errors.As(err, &passErr) {
		result.Failures = append(result.Failures, passErr)
	}
}

// ExpireCamera expires the recordings of one configured camera. On failure
// it returns the partial result and a *PassError.
func (e *Expirer) ExpireCamera(ctx context.Context, policy Policy) (*CameraResult, error) {
	started := e.now()
	result := &CameraResult{
		Camera:  policy.Camera,
		Cutoff:  policy.Cutoff(started),
		Reasons: make(map[Reason]int),
	}

	ctx = logging.WithCamera(ctx, policy.Camera)
	ctx, span := e.tracer.Start(ctx, "retention.camera")
	defer span.End()
	tracing.SetCameraAttributes(span, policy.Camera, policy.Days, string(policy.Mode), result.Cutoff)

	err := e.expireCamera(ctx, policy, result)
	e.finish(ctx, span, result, started, err)
	return result, err
}

func (e *Expirer) expireCamera(ctx context.Context, policy Policy, result *CameraResult) error {
	cutoff := result.Cutoff

	events, err := e.store.QueryEvents(ctx, &catalog.EventQuery{
		Camera:      policy.Camera,
		StartBefore: &cutoff,
		ClipsOnly:   true,
	})
	if err != nil {
		return NewPassError(policy.Camera, StageQueryEvents, err)
	}

	sw := newSweeper(events, policy.Mode)
	ids, err := e.sweep(ctx, &catalog.RecordingQuery{
		Camera:    policy.Camera,
		EndBefore: &cutoff,
	}, result, sw.decide)
	if err != nil {
		return NewPassError(policy.Camera, StageQueryRecordings, err)
	}

	return e.deleteRows(ctx, policy.Camera, ids, result)
}

// ExpireOrphans deletes recordings of cameras not in configured that ended
// before the default cutoff. No event or mode check applies.
func (e *Expirer) ExpireOrphans(ctx context.Context, configured []string, defaultDays float64) (*CameraResult, error) {
	started := e.now()
	result := &CameraResult{
		Orphan:  true,
		Cutoff:  cutoff(started, defaultDays),
		Reasons: make(map[Reason]int),
	}

	ctx, span := e.tracer.Start(ctx, "retention.orphans")
	defer span.End()
	tracing.SetCameraAttributes(span, orphanLabel, defaultDays, "", result.Cutoff)

	err := e.expireOrphans(ctx, configured, result)
	e.finish(ctx, span, result, started, err)
	return result, err
}

func (e *Expirer) expireOrphans(ctx context.Context, configured []string, result *CameraResult) error {
	cutoff := result.Cutoff

	ids, err := e.sweep(ctx, &catalog.RecordingQuery{
		ExcludeCameras: configured,
		EndBefore:      &cutoff,
	}, result, func(*catalog.Recording) (bool, Reason) {
		return true, ReasonOrphan
	})
	if err != nil {
		return NewPassError(orphanLabel, StageQueryRecordings, err)
	}

	return e.deleteRows(ctx, orphanLabel, ids, result)
}

// sweep streams the recordings matched by query through decide. Selected
// files are unlinked as they are found; their ids are returned for the row
// delete, which must wait until the stream is drained.
func (e *Expirer) sweep(ctx context.Context, query *catalog.RecordingQuery, result *CameraResult, decide func(*catalog.Recording) (bool, Reason)) ([]string, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	recCh, errCh, err := e.store.StreamRecordings(streamCtx, query)
	if err != nil {
		return nil, err
	}

	var ids []string
	for rec := range recCh {
		result.Scanned++

		del, reason := decide(rec)
		if !del {
			continue
		}
		ids = append(ids, rec.ID)
		result.Reasons[reason]++

		if !e.config.DryRun {
			e.removeFile(ctx, rec, result)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	result.Deleted = len(ids)
	return ids, nil
}

// removeFile unlinks a segment. A missing file counts as neither removed nor
// failed; other errors are logged and the row is still deleted.
func (e *Expirer) removeFile(ctx context.Context, rec *catalog.Recording, result *CameraResult) {
	removed, err := recordfs.RemoveFile(rec.Path)
	switch {
	case err != nil:
		result.FileErrors++
		e.logger.WarnContext(ctx, "failed to remove segment file",
			"recording_id", rec.ID,
			"path", rec.Path,
			"error", err,
		)
	case removed:
		result.FilesRemoved++
	}
}

func (e *Expirer) deleteRows(ctx context.Context, camera string, ids []string, result *CameraResult) error {
	if e.config.DryRun || len(ids) == 0 {
		return nil
	}

	n, err := catalog.DeleteInBatches(ctx, e.store, ids, e.config.BatchSize)
	result.RowsDeleted = n
	if err != nil {
		return NewPassError(camera, StageDeleteRows, err)
	}
	return nil
}

// finish stamps the duration and reports result to metrics, the span and
// the log.
func (e *Expirer) finish(ctx context.Context, span trace.Span, result *CameraResult, started time.Time, err error) {
	result.Duration = e.now().Sub(started)
	tracing.SetResultAttributes(span, result.Scanned, result.Deleted, result.FilesRemoved, result.FileErrors)

	label := result.label()
	e.metrics.RecordFiles(label, result.FilesRemoved, result.FileErrors)

	if err != nil {
		stage := "unknown"
		var passErr *PassError
		if errors.As(err, &passErr) {
			stage = string(passErr.Stage)
		}
		e.metrics.RecordCameraFailure(label, stage)
		tracing.SetError(span, err)
		e.logger.ErrorContext(ctx, "camera expiration failed",
			"orphan", result.Orphan,
			"stage", stage,
			"error", err,
		)
		return
	}

	if !e.config.DryRun {
		for reason, n := range result.Reasons {
			e.metrics.RecordExpired(label, string(reason), n)
		}
	}

	e.logger.DebugContext(ctx, "camera expired",
		"orphan", result.Orphan,
		"cutoff", result.Cutoff,
		"scanned", result.Scanned,
		"deleted", result.Deleted,
		"rows_deleted", result.RowsDeleted,
		"files_removed", result.FilesRemoved,
		"file_errors", result.FileErrors,
		"duration", result.Duration,
	)
}
