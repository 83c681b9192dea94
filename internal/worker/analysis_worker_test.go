package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
)

type fakeRepo struct {
	analyses map[string]core.Analysis
	txs      []core.Transaction
	rate     float64
	hasRate  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{analyses: make(map[string]core.Analysis)}
}

func (f *fakeRepo) GetAnalysis(ctx context.Context, ownerID, id string) (core.Analysis, error) {
	a, ok := f.analyses[id]
	if !ok || a.OwnerID != ownerID {
		return core.Analysis{}, errors.New("not found")
	}
	return a, nil
}

func (f *fakeRepo) ListPendingAnalyses(ctx context.Context, limit int) ([]core.Analysis, error) {
	var out []core.Analysis
	for _, a := range f.analyses {
		if a.Status == core.AnalysisPending && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) setStatus(id string, status core.AnalysisStatus, result, reason string) error {
	a, ok := f.analyses[id]
	if !ok {
		return errors.New("not found")
	}
	a.Status = status
	a.Result = result
	a.Error = reason
	f.analyses[id] = a
	return nil
}

func (f *fakeRepo) MarkAnalysisRunning(ctx context.Context, ownerID, id string) error {
	return f.setStatus(id, core.AnalysisRunning, "", "")
}

func (f *fakeRepo) CompleteAnalysis(ctx context.Context, ownerID, id, result string) error {
	return f.setStatus(id, core.AnalysisCompleted, result, "")
}

func (f *fakeRepo) FailAnalysis(ctx context.Context, ownerID, id, reason string) error {
	return f.setStatus(id, core.AnalysisFailed, "", reason)
}

func (f *fakeRepo) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeRepo) ListRecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	if len(f.txs) > limit {
		return f.txs[:limit], nil
	}
	return f.txs, nil
}

func (f *fakeRepo) GetExchangeRate(ctx context.Context, ownerID string) (float64, bool, error) {
	return f.rate, f.hasRate, nil
}

type fakeTextAnalyzer struct {
	result   string
	err      error
	calls    int
	lastRate float64
	lastTxs  int
}

func (f *fakeTextAnalyzer) Analyze(ctx context.Context, req core.Analysis, txs []core.Transaction, summary core.FinancialSummary, rate float64) (string, error) {
	f.calls++
	f.lastRate = rate
	f.lastTxs = len(txs)
	return f.result, f.err
}

func newTestWorker(repo *fakeRepo, analyzer *fakeTextAnalyzer) *AnalysisWorker {
	return NewAnalysisWorker(repo, analyzer, core.DefaultCatalog(), AnalysisWorkerConfig{
		TxLimit:             20,
		DefaultExchangeRate: 36.5,
	})
}

func pendingAnalysis(id string) core.Analysis {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return core.Analysis{
		ID:        id,
		OwnerID:   "user-1",
		Type:      core.AnalysisSummary,
		Status:    core.AnalysisPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandleAnalysisRequestCompletes(t *testing.T) {
	repo := newFakeRepo()
	repo.analyses["an-1"] = pendingAnalysis("an-1")
	analyzer := &fakeTextAnalyzer{result: "todo en orden"}
	w := newTestWorker(repo, analyzer)

	msg := &amqp.AnalysisRequestMessage{ID: "an-1", OwnerID: "user-1"}
	if err := w.HandleAnalysisRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleAnalysisRequest: %v", err)
	}

	a := repo.analyses["an-1"]
	if a.Status != core.AnalysisCompleted {
		t.Errorf("Status = %v, want completed", a.Status)
	}
	if a.Result != "todo en orden" {
		t.Errorf("Result = %q", a.Result)
	}
	if analyzer.lastRate != 36.5 {
		t.Errorf("rate = %v, want default 36.5", analyzer.lastRate)
	}
}

func TestHandleAnalysisRequestUsesSavedRate(t *testing.T) {
	repo := newFakeRepo()
	repo.analyses["an-1"] = pendingAnalysis("an-1")
	repo.rate = 40
	repo.hasRate = true
	analyzer := &fakeTextAnalyzer{result: "ok"}
	w := newTestWorker(repo, analyzer)

	msg := &amqp.AnalysisRequestMessage{ID: "an-1", OwnerID: "user-1"}
	if err := w.HandleAnalysisRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleAnalysisRequest: %v", err)
	}
	if analyzer.lastRate != 40 {
		t.Errorf("rate = %v, want 40", analyzer.lastRate)
	}
}

func TestHandleAnalysisRequestModelFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.analyses["an-1"] = pendingAnalysis("an-1")
	analyzer := &fakeTextAnalyzer{err: errors.New("model unavailable")}
	w := newTestWorker(repo, analyzer)

	msg := &amqp.AnalysisRequestMessage{ID: "an-1", OwnerID: "user-1"}
	// Model failure is terminal for the row, not a requeue.
	if err := w.HandleAnalysisRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleAnalysisRequest should not propagate model error, got %v", err)
	}

	a := repo.analyses["an-1"]
	if a.Status != core.AnalysisFailed {
		t.Errorf("Status = %v, want failed", a.Status)
	}
	if a.Error != "model unavailable" {
		t.Errorf("Error = %q", a.Error)
	}
}

func TestHandleAnalysisRequestSkipsFinished(t *testing.T) {
	repo := newFakeRepo()
	done := pendingAnalysis("an-1")
	done.Status = core.AnalysisCompleted
	done.Result = "ya listo"
	repo.analyses["an-1"] = done
	analyzer := &fakeTextAnalyzer{result: "nuevo"}
	w := newTestWorker(repo, analyzer)

	msg := &amqp.AnalysisRequestMessage{ID: "an-1", OwnerID: "user-1"}
	if err := w.HandleAnalysisRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleAnalysisRequest: %v", err)
	}
	if analyzer.calls != 0 {
		t.Errorf("analyzer called %d times for finished analysis, want 0", analyzer.calls)
	}
	if repo.analyses["an-1"].Result != "ya listo" {
		t.Errorf("result overwritten on redelivery")
	}
}

func TestHandleAnalysisRequestUnknownAnalysis(t *testing.T) {
	w := newTestWorker(newFakeRepo(), &fakeTextAnalyzer{})

	msg := &amqp.AnalysisRequestMessage{ID: "missing", OwnerID: "user-1"}
	if err := w.HandleAnalysisRequest(context.Background(), msg); err == nil {
		t.Fatal("expected error for unknown analysis")
	}
}

func TestTransactionLimitRespected(t *testing.T) {
	repo := newFakeRepo()
	repo.analyses["an-1"] = pendingAnalysis("an-1")
	for i := 0; i < 30; i++ {
		repo.txs = append(repo.txs, core.Transaction{
			Description: "tx",
			Type:        core.TypeExpense,
			Currency:    core.CurrencyBs,
			Amount:      core.Money{Cents: 100},
			Date:        core.NewDate(2026, 8, 1),
		})
	}
	analyzer := &fakeTextAnalyzer{result: "ok"}
	w := newTestWorker(repo, analyzer)

	msg := &amqp.AnalysisRequestMessage{ID: "an-1", OwnerID: "user-1"}
	if err := w.HandleAnalysisRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleAnalysisRequest: %v", err)
	}
	if analyzer.lastTxs != 20 {
		t.Errorf("analyzer saw %d transactions, want 20", analyzer.lastTxs)
	}
}

func TestProcessPendingAnalyses(t *testing.T) {
	repo := newFakeRepo()
	repo.analyses["an-1"] = pendingAnalysis("an-1")
	repo.analyses["an-2"] = pendingAnalysis("an-2")
	finished := pendingAnalysis("an-3")
	finished.Status = core.AnalysisCompleted
	repo.analyses["an-3"] = finished

	analyzer := &fakeTextAnalyzer{result: "ok"}
	w := newTestWorker(repo, analyzer)

	if err := w.ProcessPendingAnalyses(context.Background(), 10); err != nil {
		t.Fatalf("ProcessPendingAnalyses: %v", err)
	}
	if analyzer.calls != 2 {
		t.Errorf("analyzer called %d times, want 2", analyzer.calls)
	}
	for _, id := range []string{"an-1", "an-2"} {
		if repo.analyses[id].Status != core.AnalysisCompleted {
			t.Errorf("%s status = %v, want completed", id, repo.analyses[id].Status)
		}
	}
}
