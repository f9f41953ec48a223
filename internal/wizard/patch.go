package wizard

import (
	"willvault/api/internal/sanitize"
	"willvault/api/internal/will"
)

// Patches carry only the fields the caller wants to change. A nil field keeps
// the stored value.

type PersonalInfoPatch struct {
	FullName    *string       `json:"fullName,omitempty"`
	State       *string       `json:"state,omitempty"`
	DateOfBirth *string       `json:"dateOfBirth,omitempty"`
	Address     *will.Address `json:"address,omitempty"`
}

type DigitalAssetsPatch struct {
	SelectedCategories *[]string         `json:"selectedCategories,omitempty"`
	CryptoAssets       *[]will.AssetItem `json:"cryptoAssets,omitempty"`
	CloudStorage       *[]will.AssetItem `json:"cloudStorage,omitempty"`
	SocialMedia        *[]will.AssetItem `json:"socialMedia,omitempty"`
	DigitalBusiness    *[]will.AssetItem `json:"digitalBusiness,omitempty"`
}

type CryptoSetupPatch struct {
	Wallets *[]will.Wallet `json:"wallets,omitempty"`
}

type BeneficiaryPatch struct {
	Name         *string  `json:"name,omitempty"`
	Relationship *string  `json:"relationship,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Percentage   *float64 `json:"percentage,omitempty"`
}

type BeneficiariesPatch struct {
	Primary         *BeneficiaryPatch     `json:"primaryBeneficiary,omitempty"`
	Secondary       *BeneficiaryPatch     `json:"secondaryBeneficiary,omitempty"`
	Executor        *will.Executor        `json:"digitalExecutor,omitempty"`
	EmergencyAccess *will.EmergencyAccess `json:"emergencyAccess,omitempty"`
}

func cleanText(p *string) *string {
	if p == nil {
		return nil
	}
	v := sanitize.Text(*p)
	return &v
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (p PersonalInfoPatch) apply(cur *will.PersonalInfo) will.PersonalInfo {
	var out will.PersonalInfo
	if cur != nil {
		out = *cur
	}
	clean := sanitize.PersonalInfo(will.PersonalInfo{Address: p.Address})
	mergeString(&out.FullName, cleanText(p.FullName))
	if p.State != nil {
		out.State = sanitize.PersonalInfo(will.PersonalInfo{State: *p.State}).State
	}
	mergeString(&out.DateOfBirth, cleanText(p.DateOfBirth))
	if clean.Address != nil {
		out.Address = clean.Address
	}
	return out
}

func (p DigitalAssetsPatch) apply(cur *will.DigitalAssets) will.DigitalAssets {
	var out will.DigitalAssets
	if cur != nil {
		out = *cur
	}
	if p.SelectedCategories != nil {
		out.SelectedCategories = dedupe(sanitize.Strings(*p.SelectedCategories))
	}
	if p.CryptoAssets != nil {
		out.CryptoAssets = sanitize.AssetItems(*p.CryptoAssets)
	}
	if p.CloudStorage != nil {
		out.CloudStorage = sanitize.AssetItems(*p.CloudStorage)
	}
	if p.SocialMedia != nil {
		out.SocialMedia = sanitize.AssetItems(*p.SocialMedia)
	}
	if p.DigitalBusiness != nil {
		out.DigitalBusiness = sanitize.AssetItems(*p.DigitalBusiness)
	}
	return out
}

func (p CryptoSetupPatch) apply(cur *will.CryptoSetup) will.CryptoSetup {
	var out will.CryptoSetup
	if cur != nil {
		out = *cur
	}
	if p.Wallets != nil {
		out.Wallets = sanitize.Wallets(*p.Wallets)
	}
	return out
}

// details merges the non-share fields of the patch into b.
func (p BeneficiaryPatch) details(b will.Beneficiary) will.Beneficiary {
	mergeString(&b.Name, p.Name)
	mergeString(&b.Relationship, p.Relationship)
	mergeString(&b.Email, p.Email)
	mergeString(&b.Phone, p.Phone)
	return sanitize.Beneficiary(b)
}

// apply merges the patch and routes share edits through the pair
// transactions so the two shares keep summing to 100.
func (p BeneficiariesPatch) apply(cur *will.Beneficiaries) will.Beneficiaries {
	var out will.Beneficiaries
	if cur != nil {
		out = cur.Clone()
	} else {
		out.Primary.Percentage = 100
	}
	if p.Primary != nil {
		out.Primary = p.Primary.details(out.Primary)
		if p.Primary.Percentage != nil {
			out = will.SetShare(out, will.SharePrimary, *p.Primary.Percentage)
		}
	}
	if p.Secondary != nil {
		var base will.Beneficiary
		if out.Secondary != nil {
			base = *out.Secondary
		}
		out = will.AddSecondary(out, p.Secondary.details(base))
		if p.Secondary.Percentage != nil {
			out = will.SetShare(out, will.ShareSecondary, *p.Secondary.Percentage)
		}
	}
	if p.Executor != nil {
		out.Executor = sanitize.Executor(*p.Executor)
	}
	if p.EmergencyAccess != nil {
		out.EmergencyAccess = sanitize.EmergencyAccess(*p.EmergencyAccess)
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
