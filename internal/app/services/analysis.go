package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mealvision-server/internal/domain/eventbus"
	domainimage "mealvision-server/internal/domain/image"
	"mealvision-server/internal/domain/meals"
	"mealvision-server/internal/domain/pipeline"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
)

// AnalysisJob is what the transport layer gets back from a run: the job
// identity plus the pipeline outcome, optionally enriched with the archived
// record.
type AnalysisJob struct {
	ID      string
	OwnerID string
	Outcome *pipeline.Outcome
	Record  *meals.Record
	// ArchiveWarning is set when the analysis succeeded but saving the
	// record did not. The outcome is still valid.
	ArchiveWarning string
}

// AnalysisService runs the pipeline for authenticated uploads, archives the
// outcome and publishes job lifecycle events for websocket subscribers.
type AnalysisService struct {
	orchestrator *pipeline.Orchestrator
	records      meals.Repository
	bus          *eventbus.Bus
	logger       *logging.Logger
}

func NewAnalysisService(orchestrator *pipeline.Orchestrator, records meals.Repository, bus *eventbus.Bus, logger *logging.Logger) *AnalysisService {
	return &AnalysisService{
		orchestrator: orchestrator,
		records:      records,
		bus:          bus,
		logger:       logger,
	}
}

// Analyze drives one upload through the pipeline. A failed archive after a
// successful run is downgraded to a warning: the caller already paid for the
// model call and gets its result regardless.
func (s *AnalysisService) Analyze(ctx context.Context, raw domainimage.RawImage, ownerID string) (*AnalysisJob, error) {
	jobID := uuid.NewString()

	// lastStage labels the failed event with where the run got to.
	lastStage := pipeline.StageCompressing
	outcome, err := s.orchestrator.Run(ctx, raw, ownerID, func(progress int) {
		lastStage = pipeline.StageFor(progress)
		s.bus.Publish(eventbus.EventJobProgress, eventbus.ProgressEventData{
			JobID:    jobID,
			OwnerID:  ownerID,
			Stage:    string(lastStage),
			Progress: progress,
		})
	})
	if err != nil {
		s.bus.Publish(eventbus.EventJobFailed, eventbus.FailedEventData{
			JobID:   jobID,
			OwnerID: ownerID,
			Stage:   string(lastStage),
			Code:    string(platformerrors.CodeOf(err)),
			Message: err.Error(),
		})
		return nil, err
	}

	job := &AnalysisJob{ID: jobID, OwnerID: ownerID, Outcome: outcome}

	record := &meals.Record{
		ID:          jobID,
		OwnerID:     ownerID,
		FileName:    raw.FileName,
		ArtifactURL: outcome.Artifact.URL,
		ArtifactKey: outcome.Artifact.Key,
		Analysis:    outcome.Analysis,
		CreatedAt:   time.Now(),
	}
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.WarnTag("PIPELINE", "job %s succeeded but archiving failed: %v", jobID, err)
		job.ArchiveWarning = "analysis succeeded but could not be archived"
	} else {
		job.Record = record
	}

	s.bus.Publish(eventbus.EventJobCompleted, eventbus.CompletedEventData{
		JobID:       jobID,
		OwnerID:     ownerID,
		ArtifactURL: outcome.Artifact.URL,
		FoodItems:   len(outcome.Analysis.FoodItems),
	})

	return job, nil
}

// History lists the owner's archived records, newest first.
func (s *AnalysisService) History(ctx context.Context, ownerID string, limit int) ([]*meals.Record, error) {
	return s.records.ListByOwner(ctx, ownerID, limit)
}

// Get loads one archived record scoped to its owner.
func (s *AnalysisService) Get(ctx context.Context, ownerID, id string) (*meals.Record, error) {
	return s.records.FindByID(ctx, ownerID, id)
}

// Delete removes one archived record scoped to its owner.
func (s *AnalysisService) Delete(ctx context.Context, ownerID, id string) error {
	return s.records.Delete(ctx, ownerID, id)
}
