package guidance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"willvault/api/internal/will"
)

type recordingCompleter struct {
	system, prompt string
	reply          string
	err            error
}

func (r *recordingCompleter) Name() string { return "recording" }

func (r *recordingCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	r.system, r.prompt = system, prompt
	return r.reply, r.err
}

func TestRulePriority(t *testing.T) {
	tests := []struct {
		msg  string
		step int
		rule string
	}{
		{"I don't have any crypto", 2, "no-crypto-owned"},
		{"I DON’T HAVE bitcoin, is that fine?", 2, "no-crypto-owned"},
		{"no crypto here, can I leave blank?", 2, "leave-crypto-blank"},
		{"can I leave blank the ethereum part", 2, "leave-crypto-blank"},
		{"is it ok to skip crypto?", 2, "ok-to-skip-crypto"},
		{"what information do you need?", 1, "information-needed"},
		{"what information is required", 2, "information-needed"},
		{"is this mandatory?", 2, "requirements-on-assets"},
		{"is this mandatory?", 1, ""},
		{"what is the state law here", 4, "state-law"},
		{"I made a mistake", 3, "mistakes"},
		{"what counts as a digital asset", 2, "digital-assets"},
		{"how do I pass on my ethereum", 3, "crypto"},
		{"hello", 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			_, rule := ruleResponse(tt.msg, Context{Step: tt.step})
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestWhatDoYouNeedAboutBitcoinMatchesInformationRuleFirst(t *testing.T) {
	// "what do you need" is checked before the generic crypto rule.
	_, rule := ruleResponse("what do you need about my bitcoin", Context{Step: 1})
	assert.Equal(t, "information-needed", rule)
}

func TestStateLawUsesJurisdictionName(t *testing.T) {
	doc := will.NewDocument()
	doc.PersonalInfo = &will.PersonalInfo{State: "NY"}
	resp, _ := ruleResponse("any legal requirement?", Context{Step: 1, Document: doc})
	assert.True(t, strings.HasPrefix(resp.Message, "New York has specific requirements"))

	resp, _ = ruleResponse("state law?", Context{Step: 1})
	assert.True(t, strings.HasPrefix(resp.Message, "your state has"))
}

func TestStepDefaults(t *testing.T) {
	resp, _ := ruleResponse("hello", Context{Step: 3})
	assert.Equal(t, []string{"Never share private keys online"}, resp.Warnings)
	assert.Equal(t, 0.9, resp.Confidence)

	resp, _ = ruleResponse("hello", Context{Step: 9})
	assert.Equal(t, genericDefault.Message, resp.Message)
	assert.Equal(t, 0.7, resp.Confidence)
}

func TestChatUsesHostedReply(t *testing.T) {
	c := &recordingCompleter{reply: "Here is help.\n- I suggest a hardware wallet\n- Warning: never share keys\n* Next, document your exchanges"}
	a := NewAdvisor(c, zap.NewNop())

	doc := will.NewDocument()
	doc.PersonalInfo = &will.PersonalInfo{State: "CA"}
	doc.DigitalAssets = &will.DigitalAssets{SelectedCategories: []string{"bitcoin", "dropbox"}}
	history := []Message{
		{Role: RoleUser, Content: "turn-1"},
		{Role: RoleAssistant, Content: "turn-2"},
		{Role: RoleUser, Content: "turn-3"},
		{Role: RoleAssistant, Content: "turn-4"},
	}
	resp := a.Chat(context.Background(), "help with crypto", Context{Step: 3, Document: doc, History: history})

	assert.Equal(t, "Here is help.", resp.Message)
	assert.Equal(t, []string{"I suggest a hardware wallet"}, resp.Suggestions)
	assert.Equal(t, []string{"Warning: never share keys"}, resp.Warnings)
	assert.Equal(t, []string{"Next, document your exchanges"}, resp.NextSteps)
	assert.Equal(t, 0.9, resp.Confidence)

	assert.Contains(t, c.system, "Step: 3/6")
	assert.Contains(t, c.system, "User State: California")
	assert.Contains(t, c.system, "Digital Assets: 2 categories selected")
	assert.Contains(t, c.system, "Witnesses must sign in presence of testator and each other")
	assert.NotContains(t, c.prompt, "turn-1")
	assert.Contains(t, c.prompt, "assistant: turn-2")
	assert.Contains(t, c.prompt, "assistant: turn-4")
	assert.Contains(t, c.prompt, `"fullName"`)
}

func TestChatFallsBackOnHostedFailure(t *testing.T) {
	a := NewAdvisor(&recordingCompleter{err: errors.New("boom")}, zap.NewNop())
	resp := a.Chat(context.Background(), "I don't have crypto", Context{Step: 2})
	assert.Contains(t, resp.Message, "perfectly fine if you don't have any cryptocurrency")

	a = NewAdvisor(&recordingCompleter{reply: "   "}, zap.NewNop())
	resp = a.Chat(context.Background(), "hello", Context{Step: 1})
	assert.Equal(t, stepDefaults[1].Message, resp.Message)
}

func TestChatWithoutCompleterUsesRules(t *testing.T) {
	a := NewAdvisor(nil, nil)
	assert.False(t, a.Hosted())
	resp := a.Chat(context.Background(), "I made a mistake", Context{Step: 4})
	assert.Contains(t, resp.Message, "You can edit any information")
}

func TestStepGuidance(t *testing.T) {
	a := NewAdvisor(nil, zap.NewNop())
	resp := a.StepGuidance(context.Background(), Context{Step: 3})
	assert.Equal(t, stepMessages[3], resp.Message)
	assert.Len(t, resp.Suggestions, 3)
	assert.Len(t, resp.Warnings, 2)
	assert.Len(t, resp.NextSteps, 2)
	assert.Equal(t, 0.95, resp.Confidence)

	resp = a.StepGuidance(context.Background(), Context{Step: 1})
	assert.Empty(t, resp.Warnings)

	resp = a.StepGuidance(context.Background(), Context{Step: 42})
	assert.Equal(t, "Let's continue with your digital will.", resp.Message)
}

func TestValidateStep(t *testing.T) {
	a := NewAdvisor(nil, zap.NewNop())
	ctx := context.Background()

	resp := a.ValidateStep(ctx, Context{Step: 1})
	assert.Equal(t, "I noticed a few things that need attention before we proceed.", resp.Message)
	assert.Equal(t, []string{"Enter your full legal name", "Select your state of residence"}, resp.NextSteps)

	doc := will.NewDocument()
	doc.PersonalInfo = &will.PersonalInfo{FullName: "Jane Doe", State: "CA"}
	resp = a.ValidateStep(ctx, Context{Step: 1, Document: doc})
	assert.Equal(t, []string{"Continue to next step"}, resp.NextSteps)
	assert.Equal(t, []string{"Information looks complete!"}, resp.Suggestions)

	resp = a.ValidateStep(ctx, Context{Step: 2, Document: doc})
	assert.Equal(t, []string{"Select at least one digital asset category"}, resp.Warnings)
	assert.Equal(t, []string{"Choose the digital assets you own"}, resp.NextSteps)

	doc.Beneficiaries = &will.Beneficiaries{Primary: will.Beneficiary{Name: "Tom", Email: "tom@x.com", Percentage: 90}}
	resp = a.ValidateStep(ctx, Context{Step: 4, Document: doc})
	assert.Equal(t, []string{"Ensure percentages add up to 100%"}, resp.NextSteps)

	resp = a.ValidateStep(ctx, Context{Step: 5, Document: doc})
	assert.Equal(t, 0.8, resp.Confidence)
	assert.Equal(t, []string{"Continue to next step"}, resp.NextSteps)
}

func TestReviewDocument(t *testing.T) {
	a := NewAdvisor(nil, zap.NewNop())
	ctx := context.Background()

	resp := a.ReviewDocument(ctx, will.NewDocument(), "")
	assert.Equal(t, []string{"Missing testator name", "Missing primary beneficiary"}, resp.Warnings)
	assert.Equal(t, 0.6, resp.Confidence)
	assert.Equal(t, knowledgeBase[defaultJurisdiction].Recommendations, resp.NextSteps)

	doc := will.NewDocument()
	doc.PersonalInfo = &will.PersonalInfo{FullName: "Jane Doe", State: "NY"}
	doc.Beneficiaries = &will.Beneficiaries{Primary: will.Beneficiary{Name: "Tom"}}
	doc.DigitalAssets = &will.DigitalAssets{SelectedCategories: []string{"bitcoin"}}
	resp = a.ReviewDocument(ctx, doc, "CA")
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, []string{"Add detailed cryptocurrency access instructions"}, resp.Suggestions)
	assert.Equal(t, 0.8, resp.Confidence)
	assert.Equal(t, knowledgeBase["NY"].Recommendations, resp.NextSteps)

	doc.CryptoSetup = &will.CryptoSetup{}
	resp = a.ReviewDocument(ctx, doc, "")
	assert.Equal(t, 1.0, resp.Confidence)
}

func TestStateRequirements(t *testing.T) {
	assert.Equal(t, "California", StateRequirements("CA").State)
	assert.Equal(t, "Texas", StateRequirements("TX").State)
	assert.Equal(t, knowledgeBase[defaultJurisdiction].Requirements, StateRequirements("TX").Requirements)
	assert.Equal(t, "Unknown", StateRequirements("ZZ").State)
	assert.Equal(t, "General", StateRequirements("").State)
}

func TestParseResponseSingleLine(t *testing.T) {
	resp := parseResponse("  Just one line.  ")
	require.Equal(t, "Just one line.", resp.Message)
	assert.Nil(t, resp.Suggestions)
	assert.Nil(t, resp.Warnings)
	assert.Nil(t, resp.NextSteps)
}
