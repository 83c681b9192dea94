package core

import (
	"errors"
	"time"
)

// AnalysisType selects what the model is asked to produce.
type AnalysisType string

const (
	AnalysisSummary         AnalysisType = "summary"
	AnalysisInsights        AnalysisType = "insights"
	AnalysisRecommendations AnalysisType = "recommendations"
	AnalysisSpending        AnalysisType = "spending"
	AnalysisCustom          AnalysisType = "custom"
)

// AnalysisStatus tracks an analysis request through the worker.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

var (
	ErrInvalidAnalysisType = errors.New("invalid analysis type")
	ErrEmptyCustomPrompt   = errors.New("custom analysis requires a prompt")
)

// Analysis is a stored AI analysis request and, once the worker has
// processed it, its result.
type Analysis struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"-"`
	Type         AnalysisType   `json:"type"`
	CustomPrompt string         `json:"custom_prompt,omitempty"`
	Status       AnalysisStatus `json:"status"`
	Result       string         `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ValidateAnalysisRequest checks the type and, for custom analyses,
// that a prompt was supplied.
func ValidateAnalysisRequest(analysisType AnalysisType, customPrompt string) error {
	switch analysisType {
	case AnalysisSummary, AnalysisInsights, AnalysisRecommendations, AnalysisSpending:
		return nil
	case AnalysisCustom:
		if customPrompt == "" {
			return ErrEmptyCustomPrompt
		}
		return nil
	default:
		return ErrInvalidAnalysisType
	}
}
