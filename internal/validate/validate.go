// Package validate holds the per-section completeness rules that gate wizard
// navigation. Every rule is a pure read that reports field -> message.
package validate

import (
	"math"
	"regexp"
	"strings"

	"willvault/api/internal/will"
)

// Errors maps a field name to a human readable message. A nil or empty map
// means the section is valid.
type Errors map[string]string

// Section keys used in the wizard error map.
const (
	SectionPersonalInfo  = "personalInfo"
	SectionDigitalAssets = "digitalAssets"
	SectionCryptoSetup   = "cryptoSetup"
	SectionBeneficiaries = "beneficiaries"
)

// ShareEpsilon is the only tolerance allowed when checking that shares total 100.
const ShareEpsilon = 1e-3

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func Email(s string) bool {
	return s != "" && emailPattern.MatchString(s)
}

// KnownState reports whether code names a jurisdiction in the catalogue.
func KnownState(code string) bool {
	_, ok := will.JurisdictionName(code)
	return ok
}

func SharesTotal100(primary, secondary float64) bool {
	return math.Abs(primary+secondary-100) <= ShareEpsilon
}

func PersonalInfo(p *will.PersonalInfo) Errors {
	errs := Errors{}
	if p == nil || len([]rune(strings.TrimSpace(p.FullName))) < 2 {
		errs["fullName"] = "Full name is required"
	}
	switch {
	case p == nil || strings.TrimSpace(p.State) == "":
		errs["state"] = "State is required"
	case !KnownState(p.State):
		errs["state"] = "Please select a valid state"
	}
	return nilIfEmpty(errs)
}

func DigitalAssets(d *will.DigitalAssets) Errors {
	if d == nil || len(d.SelectedCategories) == 0 {
		return Errors{"selectedCategories": "Please select at least one digital asset category"}
	}
	return nil
}

// CryptoSetup has no required fields.
func CryptoSetup(*will.CryptoSetup) Errors {
	return nil
}

func Beneficiaries(b *will.Beneficiaries) Errors {
	errs := Errors{}
	var primary will.Beneficiary
	if b != nil {
		primary = b.Primary
	}
	switch {
	case strings.TrimSpace(primary.Name) == "":
		errs["primaryBeneficiary"] = "Primary beneficiary name is required"
	case strings.TrimSpace(primary.Email) == "":
		errs["primaryBeneficiary"] = "Primary beneficiary email is required"
	}

	var secondaryShare float64
	if b != nil && b.Secondary != nil {
		secondaryShare = b.Secondary.Percentage
		switch {
		case strings.TrimSpace(b.Secondary.Name) == "":
			errs["secondaryBeneficiary"] = "Secondary beneficiary name is required"
		case strings.TrimSpace(b.Secondary.Email) == "":
			errs["secondaryBeneficiary"] = "Secondary beneficiary email is required"
		}
	}

	if !SharesTotal100(primary.Percentage, secondaryShare) {
		errs["percentage"] = "Beneficiary percentages must add up to 100%"
	}
	return nilIfEmpty(errs)
}

// Step runs the rule guarding the given wizard step. Steps without a rule
// (crypto, preview, payment) report ok with an empty section name for
// preview and payment.
func Step(step int, doc will.Document) (section string, errs Errors) {
	switch step {
	case 1:
		return SectionPersonalInfo, PersonalInfo(doc.PersonalInfo)
	case 2:
		return SectionDigitalAssets, DigitalAssets(doc.DigitalAssets)
	case 3:
		return SectionCryptoSetup, CryptoSetup(doc.CryptoSetup)
	case 4:
		return SectionBeneficiaries, Beneficiaries(doc.Beneficiaries)
	default:
		return "", nil
	}
}

func nilIfEmpty(errs Errors) Errors {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
