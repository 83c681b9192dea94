package amqp

import (
	"encoding/json"
	"time"
)

// AnalysisRequestMessage asks the worker to run one stored analysis.
// It carries only identifiers; the worker fetches the analysis row and
// the owner's transactions from the database.
type AnalysisRequestMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAnalysisRequestMessage creates a request message for an analysis row
func NewAnalysisRequestMessage(id, ownerID string) *AnalysisRequestMessage {
	return &AnalysisRequestMessage{
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AnalysisRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnalysisRequestMessageFromJSON creates a message from JSON bytes
func AnalysisRequestMessageFromJSON(data []byte) (*AnalysisRequestMessage, error) {
	var msg AnalysisRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
