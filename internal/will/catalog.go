package will

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type CategoryGroup struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Assets      []Option `json:"assets"`
}

// CryptoGroup is the category group whose selection makes the crypto setup
// step relevant.
const CryptoGroup = "crypto"

var CategoryGroups = []CategoryGroup{
	{
		ID:          CryptoGroup,
		Title:       "Cryptocurrency",
		Description: "Hardware wallets, exchange accounts, DeFi positions",
		Assets: []Option{
			{ID: "bitcoin", Label: "Bitcoin (BTC)"},
			{ID: "ethereum", Label: "Ethereum (ETH)"},
			{ID: "other-crypto", Label: "Other cryptocurrencies"},
		},
	},
	{
		ID:          "cloud",
		Title:       "Cloud Storage",
		Description: "Photos, documents, backup files",
		Assets: []Option{
			{ID: "google-drive", Label: "Google Drive"},
			{ID: "dropbox", Label: "Dropbox"},
			{ID: "icloud", Label: "iCloud"},
			{ID: "onedrive", Label: "OneDrive"},
		},
	},
	{
		ID:          "social",
		Title:       "Social Media",
		Description: "Digital memories and professional profiles",
		Assets: []Option{
			{ID: "facebook", Label: "Facebook / Meta"},
			{ID: "instagram", Label: "Instagram"},
			{ID: "twitter", Label: "Twitter / X"},
			{ID: "linkedin", Label: "LinkedIn"},
		},
	},
	{
		ID:          "business",
		Title:       "Digital Business",
		Description: "Revenue-generating digital assets",
		Assets: []Option{
			{ID: "domains", Label: "Domain names"},
			{ID: "ecommerce", Label: "Online store / ecommerce"},
			{ID: "saas", Label: "SaaS products"},
			{ID: "subscriptions", Label: "Digital subscriptions"},
		},
	},
}

// CategoryGroupOf returns the group id a category belongs to, or "" when the
// category is unknown.
func CategoryGroupOf(categoryID string) string {
	for _, g := range CategoryGroups {
		for _, a := range g.Assets {
			if a.ID == categoryID {
				return g.ID
			}
		}
	}
	return ""
}

func CategoryLabel(categoryID string) string {
	for _, g := range CategoryGroups {
		for _, a := range g.Assets {
			if a.ID == categoryID {
				return a.Label
			}
		}
	}
	return categoryID
}

// SelectsCrypto reports whether any selected category is in the crypto group.
func (d *DigitalAssets) SelectsCrypto() bool {
	if d == nil {
		return false
	}
	for _, c := range d.SelectedCategories {
		if c == CryptoGroup || CategoryGroupOf(c) == CryptoGroup {
			return true
		}
	}
	return false
}

var Jurisdictions = []Option{
	{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
	{"DC", "District of Columbia"}, {"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"},
	{"ID", "Idaho"}, {"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"},
	{"KS", "Kansas"}, {"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"},
	{"MD", "Maryland"}, {"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"},
	{"MS", "Mississippi"}, {"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"},
	{"NV", "Nevada"}, {"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"},
	{"NY", "New York"}, {"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"},
	{"OK", "Oklahoma"}, {"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"},
	{"SC", "South Carolina"}, {"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"},
	{"UT", "Utah"}, {"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"},
	{"WV", "West Virginia"}, {"WI", "Wisconsin"}, {"WY", "Wyoming"},
	{"AS", "American Samoa"}, {"GU", "Guam"}, {"MP", "Northern Mariana Islands"},
	{"PR", "Puerto Rico"}, {"VI", "U.S. Virgin Islands"},
}

func JurisdictionName(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, j := range Jurisdictions {
		if j.ID == code {
			return j.Label, true
		}
	}
	return "", false
}

var Relationships = []Option{
	{"spouse", "Spouse"}, {"partner", "Partner"}, {"child", "Child"}, {"parent", "Parent"},
	{"sibling", "Sibling"}, {"friend", "Friend"}, {"charity", "Charity"}, {"other", "Other"},
}

var TechExperienceLevels = []Option{
	{"very-tech-savvy", "Very tech-savvy (developer, IT pro)"},
	{"moderately-tech-savvy", "Moderately tech-savvy"},
	{"basic-tech-skills", "Basic tech skills"},
}

var WaitingPeriods = []Option{
	{"7", "7 days (fast access)"},
	{"30", "30 days (recommended)"},
	{"60", "60 days (more secure)"},
	{"90", "90 days (maximum security)"},
}

var VerificationMethods = []Option{
	{"death-certificate", "Require death certificate"},
	{"two-people", "Require 2 people to confirm"},
	{"multiple-contacts", "Send notification to multiple contacts"},
}

type Plan struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Recommended bool            `json:"recommended,omitempty"`
}

var Plans = []Plan{
	{ID: "onetime", Title: "One-Time", Description: "Complete digital will creation", Price: decimal.NewFromInt(49)},
	{ID: "annual", Title: "Annual Plan", Description: "Everything + ongoing updates", Price: decimal.NewFromInt(99), Recommended: true},
}

func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
