package pipeline

import (
	"context"

	domainimage "mealvision-server/internal/domain/image"
	"mealvision-server/internal/domain/nutrition"
	"mealvision-server/internal/platform/artifact"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
	"mealvision-server/internal/platform/observability"
)

// Analyzer produces a validated analysis from a compressed meal photo.
type Analyzer interface {
	Analyze(ctx context.Context, img domainimage.CompressedImage, onProgress func(int)) (*nutrition.AnalysisResult, error)
}

// ArtifactStore persists the compressed photo and hands back its reference.
type ArtifactStore interface {
	Store(ctx context.Context, img domainimage.CompressedImage, ownerID string) (*artifact.Reference, error)
}

// Compressor normalizes a raw upload before analysis and storage.
type Compressor interface {
	Compress(raw domainimage.RawImage, maxWidth int, quality float64) domainimage.CompressedImage
}

// Config carries the compression parameters applied to every run.
type Config struct {
	MaxWidth int
	Quality  float64
}

// Outcome is the result of a fully successful run. Both fields are always
// set; there is no partial outcome.
type Outcome struct {
	Analysis *nutrition.AnalysisResult
	Artifact *artifact.Reference
}

// Orchestrator drives one photo through compress, analyze and upload in that
// order. The same compressed bytes feed both the analyzer and the store, so
// the archived photo is exactly what the model saw.
//
// Failure policy: an analysis failure aborts the run before the store is ever
// invoked, and an upload failure fails the run even though the analysis
// succeeded. Either the caller gets an Outcome with both an analysis and an
// artifact reference, or it gets an error and neither.
type Orchestrator struct {
	config     Config
	compressor Compressor
	analyzer   Analyzer
	store      ArtifactStore
	logger     *logging.Logger
}

func NewOrchestrator(cfg Config, compressor Compressor, analyzer Analyzer, store ArtifactStore, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		config:     cfg,
		compressor: compressor,
		analyzer:   analyzer,
		store:      store,
		logger:     logger,
	}
}

// Run executes the pipeline for one owner-attributed upload. onProgress
// observes a non-decreasing sequence ending at exactly 100 on success; it is
// never invoked again after Run returns.
func (o *Orchestrator) Run(ctx context.Context, raw domainimage.RawImage, ownerID string, onProgress func(int)) (*Outcome, error) {
	if ownerID == "" {
		return nil, platformerrors.NewCoded(platformerrors.KindAuth,
			platformerrors.CodeUnauthenticated, "pipeline.run", "analysis requires an authenticated owner")
	}

	ctx, spanEnd := observability.StartSpan(ctx, "pipeline", "run")
	var spanErr error
	defer func() { spanEnd(spanErr) }()

	progress := newTracker(onProgress)

	progress.enter(StageCompressing)
	compressed := o.compressor.Compress(raw, o.config.MaxWidth, o.config.Quality)
	o.logger.DebugTag("PIPELINE", "compressed %s: %d -> %d bytes (%dx%d)",
		raw.FileName, len(raw.Data), len(compressed.Data), compressed.Width, compressed.Height)

	if err := ctx.Err(); err != nil {
		spanErr = o.cancelled(err)
		return nil, spanErr
	}

	progress.enter(StageAnalyzing)
	result, err := o.analyzer.Analyze(ctx, compressed, progress.update)
	if err != nil {
		progress.stage = StageFailed
		o.logger.WarnTag("PIPELINE", "analysis failed for %s: %v", raw.FileName, err)
		spanErr = err
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		spanErr = o.cancelled(err)
		return nil, spanErr
	}

	progress.enter(StageUploading)
	ref, err := o.store.Store(ctx, compressed, ownerID)
	if err != nil {
		progress.stage = StageFailed
		o.logger.WarnTag("PIPELINE", "upload failed for %s after successful analysis: %v", raw.FileName, err)
		spanErr = err
		return nil, err
	}

	progress.finish()
	o.logger.InfoTag("PIPELINE", "run complete for owner %s: %d food items, artifact %s",
		ownerID, len(result.FoodItems), ref.Key)

	return &Outcome{Analysis: result, Artifact: ref}, nil
}

func (o *Orchestrator) cancelled(cause error) error {
	return platformerrors.Wrap(platformerrors.KindDomain, "pipeline.run", "run cancelled", cause)
}
