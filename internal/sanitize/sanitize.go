// Package sanitize strips markup and script-like tokens from user-entered
// text before it reaches the wizard store. It is a best-effort filter, not an
// HTML parser; anything rendered as markup must still be escaped.
package sanitize

import (
	"regexp"
	"strings"

	"willvault/api/internal/will"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	tokenPattern = regexp.MustCompile(`(?i)(javascript|vbscript|script|iframe|eval|expression|alert|onclick|onload|onerror|onmouseover|onfocus|onblur|onchange|onsubmit|onkeydown|onkeyup|oninput)`)
)

// Text removes tag-like substrings and denylisted tokens, then trims.
// Removal repeats until nothing changes, so pieces that join up after one
// pass ("scrscriptipt") are removed as well and Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return s
	}
	for {
		next := tagPattern.ReplaceAllString(s, "")
		next = tokenPattern.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// Deep applies Text to every string leaf of a decoded JSON-like value, such
// as a guidance request body. Non-string leaves are returned untouched.
func Deep(v any) any {
	switch t := v.(type) {
	case string:
		return Text(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Deep(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Deep(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, val := range t {
			out[i] = Text(val)
		}
		return out
	default:
		return v
	}
}

// Email trims and lowercases. Addresses are not token-stripped since the
// validator rejects malformed ones anyway.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Strings cleans each entry and drops the ones left empty.
func Strings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := Text(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// PersonalInfo cleans the testator's details and upper-cases the state code.
func PersonalInfo(p will.PersonalInfo) will.PersonalInfo {
	p.FullName = Text(p.FullName)
	p.State = strings.ToUpper(Text(p.State))
	p.DateOfBirth = Text(p.DateOfBirth)
	if p.Address != nil {
		a := will.Address{
			Street:  Text(p.Address.Street),
			City:    Text(p.Address.City),
			ZipCode: Text(p.Address.ZipCode),
		}
		p.Address = &a
	}
	return p
}

// AssetItems cleans every text field of each listed account.
func AssetItems(in []will.AssetItem) []will.AssetItem {
	if in == nil {
		return nil
	}
	out := make([]will.AssetItem, len(in))
	for i, item := range in {
		out[i] = will.AssetItem{
			Type:     Text(item.Type),
			Platform: Text(item.Platform),
			Account:  Text(item.Account),
			Value:    Text(item.Value),
		}
	}
	return out
}

// Wallets cleans wallet text fields; the wallet type is validated elsewhere.
func Wallets(in []will.Wallet) []will.Wallet {
	if in == nil {
		return nil
	}
	out := make([]will.Wallet, len(in))
	for i, w := range in {
		out[i] = will.Wallet{
			Type:           w.Type,
			Currency:       Text(w.Currency),
			EstimatedValue: Text(w.EstimatedValue),
			Instructions: will.AccessInstructions{
				RecoveryPhraseLocation: Text(w.Instructions.RecoveryPhraseLocation),
				HardwareAccess:         Text(w.Instructions.HardwareAccess),
				ExchangeDetails:        Text(w.Instructions.ExchangeDetails),
				SpecialInstructions:    Text(w.Instructions.SpecialInstructions),
			},
		}
	}
	return out
}

// Beneficiary cleans a beneficiary's contact fields.
func Beneficiary(b will.Beneficiary) will.Beneficiary {
	b.Name = Text(b.Name)
	b.Relationship = Text(b.Relationship)
	b.Email = Email(b.Email)
	b.Phone = Text(b.Phone)
	return b
}

// Executor cleans the executor's contact and experience fields.
func Executor(e will.Executor) will.Executor {
	e.Name = Text(e.Name)
	e.Email = Email(e.Email)
	e.Phone = Text(e.Phone)
	e.TechExperience = Text(e.TechExperience)
	return e
}

// EmergencyAccess cleans the waiting period and verification methods.
func EmergencyAccess(e will.EmergencyAccess) will.EmergencyAccess {
	e.WaitingPeriod = Text(e.WaitingPeriod)
	e.VerificationMethods = Strings(e.VerificationMethods)
	return e
}
