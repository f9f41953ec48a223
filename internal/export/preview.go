package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"willvault/api/internal/guidance"
	"willvault/api/internal/will"
)

const previewTitle = "Last Will and Testament for Digital Assets"

// BuildPreview flattens a document into template data. Missing sections
// render as blanks rather than failing, so a preview is available at any
// step.
func BuildPreview(doc will.Document, now time.Time) PreviewData {
	data := PreviewData{
		Title:        previewTitle,
		GeneratedAt:  now,
		Status:       doc.Status,
		Jurisdiction: "[state not provided]",
		Legal:        guidance.StateRequirements(""),
	}
	if data.Status == "" {
		data.Status = will.StatusDraft
	}

	if p := doc.PersonalInfo; p != nil {
		data.Testator = *p
		if p.State != "" {
			data.Legal = guidance.StateRequirements(p.State)
			data.Jurisdiction = p.State
			if name, ok := will.JurisdictionName(p.State); ok {
				data.Jurisdiction = name
			}
		}
	}

	if d := doc.DigitalAssets; d != nil {
		for _, id := range d.SelectedCategories {
			data.Categories = append(data.Categories, PreviewCategory{
				Group: groupTitle(will.CategoryGroupOf(id)),
				Label: will.CategoryLabel(id),
			})
		}
		data.Accounts = append(data.Accounts, accounts("Cryptocurrency", d.CryptoAssets)...)
		data.Accounts = append(data.Accounts, accounts("Cloud storage", d.CloudStorage)...)
		data.Accounts = append(data.Accounts, accounts("Social media", d.SocialMedia)...)
		data.Accounts = append(data.Accounts, accounts("Digital business", d.DigitalBusiness)...)
	}

	if c := doc.CryptoSetup; c != nil {
		for _, w := range c.Wallets {
			data.Wallets = append(data.Wallets, PreviewWallet{
				Type:         string(w.Type),
				Currency:     w.Currency,
				Value:        w.EstimatedValue,
				Instructions: w.Instructions,
			})
		}
		total, valued, unvalued := EstimatedTotal(c.Wallets)
		if valued > 0 {
			data.TotalValue = total.StringFixed(2)
			data.UnvaluedCount = unvalued
		}
	}

	if b := doc.Beneficiaries; b != nil {
		data.Primary = b.Primary
		if b.Secondary != nil {
			s := *b.Secondary
			data.Secondary = &s
		}
		data.Executor = executor(*b)
		if b.EmergencyAccess.WaitingPeriod != "" {
			data.WaitingPeriod = optionLabel(will.WaitingPeriods, b.EmergencyAccess.WaitingPeriod)
		}
		for _, m := range b.EmergencyAccess.VerificationMethods {
			data.Verification = append(data.Verification, optionLabel(will.VerificationMethods, m))
		}
	} else {
		data.Primary.Percentage = 100
	}
	return data
}

// EstimatedTotal sums the wallets' estimated values. Values are free text;
// "$1,250.50" parses, "about 2 BTC" does not and is counted as unvalued.
func EstimatedTotal(wallets []will.Wallet) (total decimal.Decimal, valued, unvalued int) {
	for _, w := range wallets {
		raw := strings.TrimSpace(w.EstimatedValue)
		if raw == "" {
			continue
		}
		raw = strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			unvalued++
			continue
		}
		total = total.Add(v)
		valued++
	}
	return total, valued, unvalued
}

func executor(b will.Beneficiaries) PreviewExecutor {
	e := b.Executor
	out := PreviewExecutor{Name: e.Name, Email: e.Email, Phone: e.Phone}
	if e.Type == will.ExecutorSameAsPrimary || (e.Type == "" && e.Name == "") {
		out = PreviewExecutor{Name: b.Primary.Name, Email: b.Primary.Email, Phone: b.Primary.Phone}
	}
	if e.TechExperience != "" {
		out.TechExperience = optionLabel(will.TechExperienceLevels, e.TechExperience)
	}
	return out
}

func accounts(kind string, items []will.AssetItem) []PreviewAccount {
	out := make([]PreviewAccount, 0, len(items))
	for _, it := range items {
		platform := it.Platform
		if platform == "" {
			platform = it.Type
		}
		out = append(out, PreviewAccount{Kind: kind, Platform: platform, Account: it.Account, Value: it.Value})
	}
	return out
}

func groupTitle(id string) string {
	for _, g := range will.CategoryGroups {
		if g.ID == id {
			return g.Title
		}
	}
	return "Other"
}

func optionLabel(opts []will.Option, id string) string {
	for _, o := range opts {
		if o.ID == id {
			return o.Label
		}
	}
	return id
}
