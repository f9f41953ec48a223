package guidance

import "willvault/api/internal/will"

// LegalRequirement summarises what a jurisdiction expects of a will that
// covers digital property.
type LegalRequirement struct {
	State           string   `json:"state"`
	Requirements    []string `json:"requirements"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

const defaultJurisdiction = "DEFAULT"

var knowledgeBase = map[string]LegalRequirement{
	"CA": {
		State: "California",
		Requirements: []string{
			"Will must be signed by testator in presence of two witnesses",
			"Witnesses must sign in presence of testator and each other",
			"Digital assets require specific authorization language",
			"Executor must be explicitly granted digital asset access rights",
		},
		Warnings: []string{
			"California has specific rules for cryptocurrency inheritance",
			"Social media accounts may require additional documentation",
			"Cloud storage access may be limited by terms of service",
		},
		Recommendations: []string{
			"Consider creating a separate digital asset inventory",
			"Appoint a tech-savvy digital executor",
			"Include specific language for cryptocurrency wallets",
		},
	},
	"NY": {
		State: "New York",
		Requirements: []string{
			"Will must be signed by testator and two witnesses",
			"Digital assets covered under RUFADAA (Revised Uniform Fiduciary Access to Digital Assets Act)",
			"Executor needs explicit authorization for digital accounts",
			"Cryptocurrency requires specific handling instructions",
		},
		Warnings: []string{
			"New York has strict requirements for digital asset access",
			"Some platforms may not honor executor requests without court orders",
			"Cryptocurrency exchanges may have additional verification requirements",
		},
		Recommendations: []string{
			"Include detailed access instructions for each digital platform",
			"Consider using a digital estate planning service",
			"Document all cryptocurrency wallet locations and access methods",
		},
	},
	defaultJurisdiction: {
		State: "General",
		Requirements: []string{
			"Will must be properly signed and witnessed according to state law",
			"Digital assets should be explicitly mentioned",
			"Executor should have clear authority over digital property",
			"Access instructions should be stored securely",
		},
		Warnings: []string{
			"State laws vary significantly for digital asset inheritance",
			"Platform terms of service may restrict access",
			"Cryptocurrency requires special handling",
		},
		Recommendations: []string{
			"Consult with a local estate planning attorney",
			"Keep digital asset inventory updated",
			"Ensure executor has technical knowledge",
		},
	},
}

// StateRequirements returns the entry for code, or the general entry
// relabelled with the jurisdiction's name.
func StateRequirements(code string) LegalRequirement {
	if req, ok := knowledgeBase[code]; ok {
		return req
	}
	req := knowledgeBase[defaultJurisdiction]
	if code == "" {
		return req
	}
	req.State = "Unknown"
	if name, ok := will.JurisdictionName(code); ok {
		req.State = name
	}
	return req
}
