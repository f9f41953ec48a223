package will

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Snapshot is the persisted capture of a wizard session used for resumption.
// UserID is the signed-in owner, empty for anonymous sessions.
type Snapshot struct {
	Document    Document `json:"document"`
	CurrentStep int      `json:"currentStep"`
	Timestamp   int64    `json:"timestamp"`
	UserID      string   `json:"userId,omitempty"`
}

func NewSnapshot(doc Document, step int, at time.Time) Snapshot {
	return Snapshot{
		Document:    doc.Clone(),
		CurrentStep: step,
		Timestamp:   at.UnixMilli(),
	}
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Document.Status == "" {
		s.Document.Status = StatusDraft
	}
	return s, nil
}
