package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

// AnalysisStore persists analysis requests and results.
type AnalysisStore interface {
	CreateAnalysis(ctx context.Context, a core.Analysis) error
	GetAnalysis(ctx context.Context, ownerID, id string) (core.Analysis, error)
	ListAnalyses(ctx context.Context, ownerID string, limit int) ([]core.Analysis, error)
}

// AnalysisPublisher hands analysis jobs to the worker queue.
type AnalysisPublisher interface {
	PublishAnalysisRequest(ctx context.Context, id, ownerID string) error
}

// AnalysisService accepts analysis requests and queues them for the
// worker. Requests survive a broker outage as pending rows.
type AnalysisService struct {
	store     AnalysisStore
	publisher AnalysisPublisher
	logger    *slog.Logger
}

func NewAnalysisService(store AnalysisStore, publisher AnalysisPublisher, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Request stores a pending analysis and publishes a job for the worker.
// A publish failure does not fail the request; the row stays pending.
func (s *AnalysisService) Request(ctx context.Context, ownerID string, analysisType core.AnalysisType, customPrompt string) (core.Analysis, error) {
	if err := core.ValidateAnalysisRequest(analysisType, customPrompt); err != nil {
		return core.Analysis{}, err
	}

	now := time.Now().UTC()
	a := core.Analysis{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Type:         analysisType,
		CustomPrompt: customPrompt,
		Status:       core.AnalysisPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAnalysis(ctx, a); err != nil {
		return core.Analysis{}, fmt.Errorf("save analysis: %w", err)
	}

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, analysis stays pending",
			"analysis_id", a.ID)
		return a, nil
	}

	if err := s.publisher.PublishAnalysisRequest(ctx, a.ID, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish analysis request",
			"analysis_id", a.ID, "error", err)
	}

	return a, nil
}

// Get returns one of the owner's analyses.
func (s *AnalysisService) Get(ctx context.Context, ownerID, id string) (core.Analysis, error) {
	return s.store.GetAnalysis(ctx, ownerID, id)
}

// List returns the owner's analyses, newest first.
func (s *AnalysisService) List(ctx context.Context, ownerID string, limit int) ([]core.Analysis, error) {
	return s.store.ListAnalyses(ctx, ownerID, limit)
}
