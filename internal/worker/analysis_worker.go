// Package worker runs queued AI analysis jobs against the owner's
// stored transactions.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
)

// AnalysisRepo is the storage surface the worker needs.
type AnalysisRepo interface {
	GetAnalysis(ctx context.Context, ownerID, id string) (core.Analysis, error)
	ListPendingAnalyses(ctx context.Context, limit int) ([]core.Analysis, error)
	MarkAnalysisRunning(ctx context.Context, ownerID, id string) error
	CompleteAnalysis(ctx context.Context, ownerID, id, result string) error
	FailAnalysis(ctx context.Context, ownerID, id, reason string) error
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	ListRecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error)
	GetExchangeRate(ctx context.Context, ownerID string) (float64, bool, error)
}

// TextAnalyzer produces the analysis text for one request.
type TextAnalyzer interface {
	Analyze(ctx context.Context, req core.Analysis, txs []core.Transaction, summary core.FinancialSummary, rate float64) (string, error)
}

// AnalysisWorker consumes analysis requests, runs the model, and stores
// the outcome.
type AnalysisWorker struct {
	storage  AnalysisRepo
	analyzer TextAnalyzer
	catalog  *core.Catalog

	txLimit           int
	defaultRate       float64
	adjustmentsInFlow bool
}

type AnalysisWorkerConfig struct {
	TxLimit                 int
	DefaultExchangeRate     float64
	AdjustmentsInPeriodFlow bool
}

func NewAnalysisWorker(storage AnalysisRepo, analyzer TextAnalyzer, catalog *core.Catalog, cfg AnalysisWorkerConfig) *AnalysisWorker {
	return &AnalysisWorker{
		storage:           storage,
		analyzer:          analyzer,
		catalog:           catalog,
		txLimit:           cfg.TxLimit,
		defaultRate:       cfg.DefaultExchangeRate,
		adjustmentsInFlow: cfg.AdjustmentsInPeriodFlow,
	}
}

// HandleAnalysisRequest processes a single queued analysis. A model
// failure is recorded on the row rather than returned, so the delivery
// is not requeued forever against a broken upstream.
func (w *AnalysisWorker) HandleAnalysisRequest(ctx context.Context, msg *amqp.AnalysisRequestMessage) error {
	analysis, err := w.storage.GetAnalysis(ctx, msg.OwnerID, msg.ID)
	if err != nil {
		return fmt.Errorf("get analysis from storage: %w", err)
	}

	// Redeliveries of already-finished work are acked without rerunning.
	if analysis.Status == core.AnalysisCompleted || analysis.Status == core.AnalysisFailed {
		slog.InfoContext(ctx, "Skipping already finished analysis",
			"analysis_id", analysis.ID,
			"status", analysis.Status)
		return nil
	}

	return w.run(ctx, analysis)
}

func (w *AnalysisWorker) run(ctx context.Context, analysis core.Analysis) error {
	if err := w.storage.MarkAnalysisRunning(ctx, analysis.OwnerID, analysis.ID); err != nil {
		return fmt.Errorf("mark analysis running: %w", err)
	}

	all, err := w.storage.ListTransactions(ctx, analysis.OwnerID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	recent, err := w.storage.ListRecentTransactions(ctx, analysis.OwnerID, w.txLimit)
	if err != nil {
		return fmt.Errorf("list recent transactions: %w", err)
	}

	rate, found, err := w.storage.GetExchangeRate(ctx, analysis.OwnerID)
	if err != nil {
		return fmt.Errorf("get exchange rate: %w", err)
	}
	if !found {
		rate = w.defaultRate
	}

	summary := core.Aggregate(all, all, w.catalog, core.AggregateOptions{
		AdjustmentsInPeriodFlow: w.adjustmentsInFlow,
	})

	result, err := w.analyzer.Analyze(ctx, analysis, recent, summary, rate)
	if err != nil {
		slog.ErrorContext(ctx, "Analysis failed",
			"analysis_id", analysis.ID,
			"error", err)
		if failErr := w.storage.FailAnalysis(ctx, analysis.OwnerID, analysis.ID, err.Error()); failErr != nil {
			return fmt.Errorf("mark analysis failed: %w", failErr)
		}
		return nil
	}

	if err := w.storage.CompleteAnalysis(ctx, analysis.OwnerID, analysis.ID, result); err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}

	slog.InfoContext(ctx, "Analysis completed",
		"analysis_id", analysis.ID,
		"owner_id", analysis.OwnerID,
		"analysis_type", analysis.Type)

	return nil
}

// ProcessPendingAnalyses runs analyses whose queue message was lost.
// Called at worker startup as a backup mechanism.
func (w *AnalysisWorker) ProcessPendingAnalyses(ctx context.Context, limit int) error {
	pending, err := w.storage.ListPendingAnalyses(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending analyses: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending analyses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending analyses on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, analysis := range pending {
		if err := w.run(ctx, analysis); err != nil {
			slog.ErrorContext(ctx, "Failed to process pending analysis",
				"analysis_id", analysis.ID,
				"error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup analysis check completed",
		"total", len(pending),
		"processed", successCount,
		"errors", errorCount)

	return nil
}
