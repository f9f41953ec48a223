package guidance

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"willvault/api/internal/validate"
	"willvault/api/internal/will"
)

// Completer is a hosted language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// historyTurns is how many recent conversation turns go into a prompt.
const historyTurns = 3

// Advisor never fails: hosted errors are logged and answered from the
// built-in tables.
type Advisor struct {
	completer Completer
	logger    *zap.Logger
}

// NewAdvisor builds an advisor. A nil completer means rules only.
func NewAdvisor(completer Completer, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{completer: completer, logger: logger}
}

// Hosted reports whether chat goes to a language model first.
func (a *Advisor) Hosted() bool {
	return a.completer != nil
}

func (a *Advisor) StepGuidance(_ context.Context, c Context) Response {
	msg, ok := stepMessages[c.Step]
	if !ok {
		msg = "Let's continue with your digital will."
	}
	return Response{
		Message:     msg,
		Suggestions: append([]string(nil), stepSuggestions[c.Step]...),
		Warnings:    append([]string(nil), stepWarnings[c.Step]...),
		NextSteps:   append([]string(nil), stepNext[c.Step]...),
		Confidence:  0.95,
	}
}

func (a *Advisor) Chat(ctx context.Context, message string, c Context) Response {
	if a.completer != nil {
		text, err := a.completer.Complete(ctx, systemPrompt(c), userPrompt(message, c))
		if err == nil && strings.TrimSpace(text) != "" {
			return parseResponse(text)
		}
		a.logger.Warn("hosted guidance failed, using rules",
			zap.String("completer", a.completer.Name()),
			zap.Int("step", c.Step),
			zap.Error(err),
		)
	}
	resp, matched := ruleResponse(message, c)
	a.logger.Debug("rule guidance", zap.Int("step", c.Step), zap.String("rule", matched))
	return resp
}

// ValidateStep explains what the current step still needs. Validity follows
// the same rules that gate navigation.
func (a *Advisor) ValidateStep(_ context.Context, c Context) Response {
	section, errs := validate.Step(c.Step, c.Document)
	if section == "" || section == validate.SectionCryptoSetup {
		return Response{
			Message:     "Great! Your information looks complete and accurate. Ready to continue?",
			Suggestions: []string{"Nothing else is needed on this step"},
			NextSteps:   []string{"Continue to next step"},
			Confidence:  0.8,
		}
	}
	if len(errs) == 0 {
		resp := Response{
			Message:    "Great! Your information looks complete and accurate. Ready to continue?",
			NextSteps:  []string{"Continue to next step"},
			Confidence: 0.95,
		}
		if s, ok := stepValidSuggestion[c.Step]; ok {
			resp.Suggestions = []string{s}
		}
		if c.Step == 2 {
			resp.Confidence = 0.9
		}
		return resp
	}

	resp := Response{
		Message:    "I noticed a few things that need attention before we proceed.",
		Confidence: 0.95,
	}
	for _, field := range fixOrder {
		if _, bad := errs[field]; bad {
			resp.NextSteps = append(resp.NextSteps, fixes[field])
		}
	}
	if c.Step == 2 {
		resp.Warnings = []string{"Select at least one digital asset category"}
		resp.Confidence = 0.9
	}
	return resp
}

// ReviewDocument checks the whole document. state is used when the document
// has no jurisdiction of its own.
func (a *Advisor) ReviewDocument(_ context.Context, doc will.Document, state string) Response {
	code := state
	if doc.PersonalInfo != nil && doc.PersonalInfo.State != "" {
		code = doc.PersonalInfo.State
	}
	reqs := StateRequirements(code)

	var issues, improvements []string
	if doc.PersonalInfo == nil || strings.TrimSpace(doc.PersonalInfo.FullName) == "" {
		issues = append(issues, "Missing testator name")
	}
	if doc.Beneficiaries == nil || strings.TrimSpace(doc.Beneficiaries.Primary.Name) == "" {
		issues = append(issues, "Missing primary beneficiary")
	}
	if doc.DigitalAssets == nil || len(doc.DigitalAssets.SelectedCategories) == 0 {
		improvements = append(improvements, "Consider adding digital asset categories")
	}
	if doc.DigitalAssets.SelectsCrypto() && doc.CryptoSetup == nil {
		improvements = append(improvements, "Add detailed cryptocurrency access instructions")
	}

	resp := Response{
		Suggestions: improvements,
		Warnings:    issues,
		NextSteps:   append([]string(nil), reqs.Recommendations...),
	}
	switch {
	case len(issues) > 0:
		resp.Message = "Your will has some areas that need attention before it can be considered legally complete."
		resp.Confidence = 0.6
	case len(improvements) > 0:
		resp.Message = "Your will meets all basic legal requirements and follows best practices for digital asset inheritance."
		resp.Confidence = 0.8
	default:
		resp.Message = "Your will meets all basic legal requirements and follows best practices for digital asset inheritance."
		resp.Confidence = 1.0
	}
	return resp
}

func systemPrompt(c Context) string {
	var b strings.Builder
	b.WriteString("You are an expert AI estate planning assistant specializing in digital asset inheritance. You help users create legally compliant digital wills.\n\n")

	categories := 0
	if c.Document.DigitalAssets != nil {
		categories = len(c.Document.DigitalAssets.SelectedCategories)
	}
	code := c.jurisdiction()
	stateLabel := "Not specified"
	if code != "" {
		stateLabel = StateRequirements(code).State
	}
	fmt.Fprintf(&b, "Current Context:\n- Step: %d/6\n- User State: %s\n- Digital Assets: %d categories selected\n\n", c.Step, stateLabel, categories)

	b.WriteString("Your Role:\n")
	for _, line := range []string{
		"Provide clear, helpful guidance in plain English",
		"Ensure legal compliance with state laws",
		"Explain complex concepts simply",
		"Identify potential issues early",
		"Be encouraging and supportive",
		"Answer specific questions directly and contextually",
	} {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	if code != "" {
		reqs := StateRequirements(code)
		fmt.Fprintf(&b, "\nState-Specific Requirements for %s:\n", reqs.State)
		for _, r := range reqs.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\nWarnings:\n")
		for _, w := range reqs.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	b.WriteString("\nKeep responses concise, helpful, and encouraging. Focus on the user's immediate needs and answer their specific questions.")
	return b.String()
}

func userPrompt(message string, c Context) string {
	history := c.History
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	turns := make([]string, 0, len(history))
	for _, m := range history {
		turns = append(turns, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	data, err := json.MarshalIndent(c.Document, "", "  ")
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("User message: %q\n\nRecent conversation:\n%s\n\nCurrent will data: %s\n\nPlease provide a helpful, contextual response to their specific question or message. Do not repeat generic guidance unless specifically asked.",
		message, strings.Join(turns, "\n"), data)
}

var bulletPrefix = regexp.MustCompile(`^[•\-*]\s*`)

// parseResponse turns free text into a Response. The first non-blank line is
// the message; lines are then bucketed by keyword.
func parseResponse(text string) Response {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	resp := Response{Message: strings.TrimSpace(text), Confidence: 0.9}
	if len(lines) > 0 {
		resp.Message = lines[0]
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		item := bulletPrefix.ReplaceAllString(line, "")
		switch {
		case containsAny(lower, "suggest", "recommend"):
			resp.Suggestions = append(resp.Suggestions, item)
		case containsAny(lower, "warning", "caution"):
			resp.Warnings = append(resp.Warnings, item)
		case containsAny(lower, "next", "step"):
			resp.NextSteps = append(resp.NextSteps, item)
		}
	}
	return resp
}
