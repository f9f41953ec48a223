package guidance

var stepMessages = map[int]string{
	1: "Let's start with your basic information. I need your full legal name and state of residence to ensure your will complies with local laws.",
	2: "Now let's discover your digital assets. Most people have more than they realize - from crypto wallets to cloud storage and social media accounts.",
	3: "Cryptocurrency requires special handling in estate planning. Let's set up proper access instructions for your digital wallets.",
	4: "Time to designate your beneficiaries and digital executor. This person will handle your digital assets according to your wishes.",
	5: "Let's review your complete will to ensure everything is accurate and legally compliant.",
	6: "Almost done! Let's secure your digital will with payment and final setup.",
}

var stepSuggestions = map[int][]string{
	1: {
		"Use your full legal name exactly as it appears on official documents",
		"Double-check your state selection for accurate legal compliance",
		"Consider any recent moves that might affect your legal residence",
	},
	2: {
		"Think about all your online accounts, not just the obvious ones",
		"Include subscription services and digital subscriptions",
		"Don't forget about NFTs, domain names, or online businesses",
	},
	3: {
		"Store recovery phrases in multiple secure locations",
		"Consider using a hardware wallet for large amounts",
		"Document exchange account details and 2FA backup codes",
	},
	4: {
		"Choose a tech-savvy person as your digital executor",
		"Consider splitting percentages based on beneficiaries' needs",
		"Set up emergency access with appropriate waiting periods",
	},
	5: {
		"Review all sections carefully for accuracy",
		"Ensure beneficiary percentages add up to 100%",
		"Verify all contact information is current",
	},
	6: {
		"Choose the plan that best fits your digital asset complexity",
		"Consider annual updates for growing digital portfolios",
		"Review the money-back guarantee terms",
	},
}

var stepWarnings = map[int][]string{
	2: {
		"Forgetting digital assets is the #1 cause of lost inheritance",
		"Some platforms may delete inactive accounts",
	},
	3: {
		"~20% of Bitcoin is lost forever due to poor inheritance planning",
		"Never share private keys or recovery phrases online",
	},
	4: {
		"Choose someone you trust completely as your digital executor",
		"Ensure your executor understands cryptocurrency if you have any",
	},
	5: {
		"This will becomes legally binding once completed",
		"Review state-specific requirements carefully",
	},
}

var stepNext = map[int][]string{
	1: {"Complete your personal information", "Proceed to digital asset discovery"},
	2: {"Select all relevant digital asset categories", "Move to cryptocurrency setup"},
	3: {"Document crypto access instructions", "Continue to beneficiary selection"},
	4: {"Designate primary and secondary beneficiaries", "Review your complete will"},
	5: {"Verify all information is accurate", "Proceed to secure payment"},
	6: {"Complete payment to finalize your will", "Download and store your documents"},
}

// fixes maps validation field keys to the instruction shown to the user.
var fixes = map[string]string{
	"fullName":             "Enter your full legal name",
	"state":                "Select your state of residence",
	"selectedCategories":   "Choose the digital assets you own",
	"primaryBeneficiary":   "Complete primary beneficiary information",
	"secondaryBeneficiary": "Complete secondary beneficiary information",
	"percentage":           "Ensure percentages add up to 100%",
}

var fixOrder = []string{"fullName", "state", "selectedCategories", "primaryBeneficiary", "secondaryBeneficiary", "percentage"}

var stepValidSuggestion = map[int]string{
	1: "Information looks complete!",
	2: "Good selection of digital assets!",
	4: "Beneficiary setup looks complete!",
}
