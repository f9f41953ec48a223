package guidance

import (
	"strings"

	"willvault/api/internal/will"
)

// A rule answers a chat message without a hosted model. Rules are tried in
// order and the first match wins, so the "no crypto" phrasings must stay
// ahead of the generic crypto rule.
type rule struct {
	name    string
	match   func(msg string, c Context) bool
	respond func(c Context) Response
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var cryptoWords = []string{"crypto", "bitcoin", "ethereum"}

var rules = []rule{
	{
		name: "no-crypto-owned",
		match: func(m string, _ Context) bool {
			return strings.Contains(m, "don't have") && containsAny(m, cryptoWords...)
		},
		respond: func(Context) Response {
			return Response{
				Message: "Absolutely! It's perfectly fine if you don't have any cryptocurrency. You can skip the crypto categories entirely. This step is about identifying ALL your digital assets - crypto is just one type. Focus on what you do have: cloud storage, social media accounts, digital subscriptions, or online businesses.",
				Suggestions: []string{
					"Skip crypto categories if you don't have any",
					"Focus on cloud storage and social media accounts",
					"Consider digital subscriptions and online services",
					"Only select what you actually own",
				},
				Confidence: 0.95,
			}
		},
	},
	{
		name: "leave-crypto-blank",
		match: func(m string, _ Context) bool {
			return containsAny(m, "no crypto", "leave blank") && containsAny(m, cryptoWords...)
		},
		respond: func(Context) Response {
			return Response{
				Message: "Yes, absolutely! If you don't have cryptocurrency, just skip those options. This step is about cataloging what you DO have, not what you don't have. Focus on selecting the digital assets you actually own - like cloud storage, social media, or digital subscriptions.",
				Suggestions: []string{
					"Skip any categories you don't have",
					"Only select what applies to you",
					"Focus on cloud storage and social accounts",
				},
				Confidence: 0.95,
			}
		},
	},
	{
		name: "ok-to-skip-crypto",
		match: func(m string, _ Context) bool {
			return strings.Contains(m, "ok to") && containsAny(m, "crypto", "bitcoin")
		},
		respond: func(Context) Response {
			return Response{
				Message: "Yes, it's completely okay! You only need to select the digital assets you actually have. If you don't have cryptocurrency, don't select those options. This step is about identifying your real digital property, not forcing you to have things you don't own.",
				Suggestions: []string{
					"Only select what you actually own",
					"Skip categories that don't apply",
					"Focus on your real digital assets",
				},
				Confidence: 0.95,
			}
		},
	},
	{
		name: "information-needed",
		match: func(m string, _ Context) bool {
			return containsAny(m, "what information", "what do you need")
		},
		respond: func(c Context) Response {
			if c.Step == 2 {
				return Response{
					Message: "For digital assets, I need to know what types of online accounts and digital property you have. This includes cloud storage (Google Drive, Dropbox), social media accounts, cryptocurrency (if any), and digital businesses. Don't worry if you don't have everything - just select what applies to you.",
					Suggestions: []string{
						"Select only the categories that apply to you",
						"Think about all your online accounts",
						"It's okay to skip categories you don't have",
					},
					Confidence: 0.9,
				}
			}
			return Response{
				Message: "I need your full legal name and the state where you live. This helps me ensure your will follows the correct laws for your location. Your name should match what's on your official documents like your driver's license.",
				Suggestions: []string{
					"Enter your name exactly as it appears on official documents",
					"Select your current state of residence",
				},
				Confidence: 0.9,
			}
		},
	},
	{
		name: "requirements-on-assets",
		match: func(m string, c Context) bool {
			return c.Step == 2 && containsAny(m, "required", "mandatory", "must have")
		},
		respond: func(Context) Response {
			return Response{
				Message: "Nothing is strictly required on this step - it depends on what you actually own. If you don't have cryptocurrency, don't select it. If you don't use social media, skip those options. Only select the digital assets you actually have.",
				Suggestions: []string{
					"Only select what you actually own",
					"Skip categories that don't apply to you",
					"You can always add more later",
				},
				Confidence: 0.9,
			}
		},
	},
	{
		name: "state-law",
		match: func(m string, _ Context) bool {
			return containsAny(m, "state law", "legal requirement")
		},
		respond: func(c Context) Response {
			name := "your state"
			if code := c.jurisdiction(); code != "" {
				name = code
				if label, ok := will.JurisdictionName(code); ok {
					name = label
				}
			}
			return Response{
				Message: name + " has specific requirements for wills, including how they must be signed and witnessed. For digital assets, " + name + " follows modern laws that allow executors to access your online accounts and cryptocurrency with proper authorization.",
				Suggestions: []string{
					"Learn more about " + name + " estate planning laws",
					"Ensure your executor has proper digital asset authority",
				},
				Confidence: 0.85,
			}
		},
	},
	{
		name: "mistakes",
		match: func(m string, _ Context) bool {
			return containsAny(m, "mistake", "wrong", "error")
		},
		respond: func(Context) Response {
			return Response{
				Message:     "Don't worry! You can edit any information at any time before finalizing your will. I'll help you review everything to make sure it's accurate. Most mistakes can be easily corrected, and I'll flag any issues I notice.",
				Suggestions: []string{"Review each section carefully", "Ask me if you're unsure about anything"},
				Confidence:  0.9,
			}
		},
	},
	{
		name: "digital-assets",
		match: func(m string, _ Context) bool {
			return containsAny(m, "digital asset", "online account")
		},
		respond: func(Context) Response {
			return Response{
				Message:     "Digital assets include everything from social media accounts to cloud storage, cryptocurrency, and online businesses. Many people forget about subscription services, domain names, or digital photos. I'll help you identify all your digital property.",
				Suggestions: []string{"Think beyond just social media", "Include subscription services and cloud storage", "Don't forget about digital business assets"},
				Confidence:  0.85,
			}
		},
	},
	{
		name: "crypto",
		match: func(m string, _ Context) bool {
			return containsAny(m, cryptoWords...) &&
				!containsAny(m, "don't have", "no crypto", "leave blank", "ok to")
		},
		respond: func(Context) Response {
			return Response{
				Message:     "Cryptocurrency inheritance is critical to get right. About 20% of Bitcoin is lost forever due to poor planning. I'll help you document how your family can access your crypto wallets, exchange accounts, and recovery phrases safely.",
				Warnings:    []string{"Never share private keys online", "Store recovery phrases in multiple secure locations"},
				Suggestions: []string{"Document all wallet locations", "Consider hardware wallets for large amounts"},
				Confidence:  0.9,
			}
		},
	},
}

var stepDefaults = map[int]Response{
	1: {
		Message:     "I'm here to help you create a legally compliant digital will. Right now, I need your basic information to get started. What specific questions do you have about the personal information section?",
		Suggestions: []string{"Enter your full legal name", "Select your state of residence"},
		Confidence:  0.8,
	},
	2: {
		Message:     "Great question! Digital assets are often overlooked in traditional estate planning. I can help you identify all your digital property, from cryptocurrency to cloud storage. What types of digital accounts are you thinking about?",
		Suggestions: []string{"Consider cryptocurrency wallets", "Think about cloud storage accounts", "Include social media profiles"},
		Confidence:  0.85,
	},
	3: {
		Message:     "Cryptocurrency requires special handling in wills. I can help you create secure access instructions for your family without compromising your current security. What type of crypto assets do you have?",
		Warnings:    []string{"Never share private keys online"},
		Suggestions: []string{"Document wallet locations securely", "Include exchange account details"},
		Confidence:  0.9,
	},
	4: {
		Message:     "Choosing the right beneficiaries and digital executor is crucial. Your digital executor should be tech-savvy and trustworthy. What questions do you have about setting up your beneficiaries?",
		Suggestions: []string{"Choose a tech-savvy digital executor", "Consider percentage splits carefully"},
		Confidence:  0.9,
	},
	5: {
		Message:     "I'm reviewing your will to ensure it's legally compliant and complete. Everything looks good so far! What would you like me to double-check for you?",
		Suggestions: []string{"Review all contact information", "Verify beneficiary percentages"},
		Confidence:  0.95,
	},
	6: {
		Message:     "You're almost done! Your digital will is ready to be secured. The payment process is secure and you're protected by our money-back guarantee. Any questions about the final steps?",
		Suggestions: []string{"Review the plan options", "Consider annual updates"},
		Confidence:  0.9,
	},
}

var genericDefault = Response{
	Message:    "I'm here to help you with your digital will. Could you be more specific about what you'd like to know?",
	Confidence: 0.7,
}

// normalizeMessage lowercases and folds typographic apostrophes so "don’t"
// matches "don't".
func normalizeMessage(msg string) string {
	msg = strings.ToLower(msg)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(msg)
}

// ruleResponse answers msg from the rule table, falling back to the step's
// default reply. The second result names the rule that matched, empty for a
// default.
func ruleResponse(msg string, c Context) (Response, string) {
	m := normalizeMessage(msg)
	for _, r := range rules {
		if r.match(m, c) {
			return r.respond(c), r.name
		}
	}
	if def, ok := stepDefaults[c.Step]; ok {
		return cloneResponse(def), ""
	}
	return genericDefault, ""
}

func cloneResponse(r Response) Response {
	r.Suggestions = append([]string(nil), r.Suggestions...)
	r.Warnings = append([]string(nil), r.Warnings...)
	r.NextSteps = append([]string(nil), r.NextSteps...)
	return r
}
