// Package guidance answers questions about the will questionnaire. A hosted
// language model is used for free-form chat when configured; everything else,
// and every hosted failure, is served from built-in tables.
package guidance

import (
	"time"

	"willvault/api/internal/will"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is what the advisor knows about the caller's session.
type Context struct {
	Step     int           `json:"currentStep"`
	Document will.Document `json:"willData"`
	State    string        `json:"userState,omitempty"`
	History  []Message     `json:"conversationHistory,omitempty"`
}

// jurisdiction is the explicit state, else the one on the document.
func (c Context) jurisdiction() string {
	if c.State != "" {
		return c.State
	}
	if c.Document.PersonalInfo != nil {
		return c.Document.PersonalInfo.State
	}
	return ""
}

type Response struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	NextSteps   []string `json:"nextSteps,omitempty"`
	Confidence  float64  `json:"confidence"`
}
