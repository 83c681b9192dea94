package services

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
)

type fakeAnalysisStore struct {
	analyses map[string]core.Analysis
}

func newFakeAnalysisStore() *fakeAnalysisStore {
	return &fakeAnalysisStore{analyses: make(map[string]core.Analysis)}
}

func (f *fakeAnalysisStore) CreateAnalysis(ctx context.Context, a core.Analysis) error {
	f.analyses[a.ID] = a
	return nil
}

func (f *fakeAnalysisStore) GetAnalysis(ctx context.Context, ownerID, id string) (core.Analysis, error) {
	a, ok := f.analyses[id]
	if !ok || a.OwnerID != ownerID {
		return core.Analysis{}, errors.New("not found")
	}
	return a, nil
}

func (f *fakeAnalysisStore) ListAnalyses(ctx context.Context, ownerID string, limit int) ([]core.Analysis, error) {
	var out []core.Analysis
	for _, a := range f.analyses {
		if a.OwnerID == ownerID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []string
	fail      bool
}

func (f *fakePublisher) PublishAnalysisRequest(ctx context.Context, id, ownerID string) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published = append(f.published, id)
	return nil
}

func TestRequestQueuesAnalysis(t *testing.T) {
	store := newFakeAnalysisStore()
	pub := &fakePublisher{}
	svc := NewAnalysisService(store, pub, nil)

	a, err := svc.Request(context.Background(), "user-1", core.AnalysisSummary, "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if a.Status != core.AnalysisPending {
		t.Errorf("Status = %v, want pending", a.Status)
	}
	if len(pub.published) != 1 || pub.published[0] != a.ID {
		t.Errorf("published = %v, want [%s]", pub.published, a.ID)
	}
	if _, ok := store.analyses[a.ID]; !ok {
		t.Error("analysis not stored")
	}
}

func TestRequestValidation(t *testing.T) {
	svc := NewAnalysisService(newFakeAnalysisStore(), &fakePublisher{}, nil)

	if _, err := svc.Request(context.Background(), "user-1", "guesswork", ""); !errors.Is(err, core.ErrInvalidAnalysisType) {
		t.Fatalf("expected ErrInvalidAnalysisType, got %v", err)
	}
	if _, err := svc.Request(context.Background(), "user-1", core.AnalysisCustom, ""); !errors.Is(err, core.ErrEmptyCustomPrompt) {
		t.Fatalf("expected ErrEmptyCustomPrompt, got %v", err)
	}
	if _, err := svc.Request(context.Background(), "user-1", core.AnalysisCustom, "compara agosto y julio"); err != nil {
		t.Fatalf("custom with prompt should pass, got %v", err)
	}
}

func TestRequestSurvivesPublishFailure(t *testing.T) {
	store := newFakeAnalysisStore()
	svc := NewAnalysisService(store, &fakePublisher{fail: true}, nil)

	a, err := svc.Request(context.Background(), "user-1", core.AnalysisInsights, "")
	if err != nil {
		t.Fatalf("Request should not fail on publish error, got %v", err)
	}
	if a.Status != core.AnalysisPending {
		t.Errorf("Status = %v, want pending", a.Status)
	}
	if _, ok := store.analyses[a.ID]; !ok {
		t.Error("analysis row should still be stored")
	}
}

func TestRequestWithoutPublisher(t *testing.T) {
	svc := NewAnalysisService(newFakeAnalysisStore(), nil, nil)

	if _, err := svc.Request(context.Background(), "user-1", core.AnalysisSpending, ""); err != nil {
		t.Fatalf("Request without publisher should succeed, got %v", err)
	}
}
