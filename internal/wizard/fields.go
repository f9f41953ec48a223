package wizard

import (
	"errors"
	"strings"

	"willvault/api/internal/sanitize"
	"willvault/api/internal/will"
)

var ErrUnknownField = errors.New("unknown field")

// textField describes a free-text leaf that can be edited keystroke by
// keystroke through a debounced input.
type textField struct {
	clean func(string) string
	// apply writes v into doc and reports whether the target exists.
	apply func(doc *will.Document, v string) bool
}

func personal(doc *will.Document) *will.PersonalInfo {
	if doc.PersonalInfo == nil {
		doc.PersonalInfo = &will.PersonalInfo{}
	}
	return doc.PersonalInfo
}

func address(doc *will.Document) *will.Address {
	p := personal(doc)
	if p.Address == nil {
		p.Address = &will.Address{}
	}
	return p.Address
}

func beneficiaries(doc *will.Document) *will.Beneficiaries {
	if doc.Beneficiaries == nil {
		doc.Beneficiaries = &will.Beneficiaries{Primary: will.Beneficiary{Percentage: 100}}
	}
	return doc.Beneficiaries
}

func upperText(s string) string {
	return strings.ToUpper(sanitize.Text(s))
}

var textFields = map[string]textField{
	"personalInfo.fullName": {sanitize.Text, func(d *will.Document, v string) bool {
		personal(d).FullName = v
		return true
	}},
	"personalInfo.state": {upperText, func(d *will.Document, v string) bool {
		personal(d).State = v
		return true
	}},
	"personalInfo.dateOfBirth": {sanitize.Text, func(d *will.Document, v string) bool {
		personal(d).DateOfBirth = v
		return true
	}},
	"personalInfo.address.street": {sanitize.Text, func(d *will.Document, v string) bool {
		address(d).Street = v
		return true
	}},
	"personalInfo.address.city": {sanitize.Text, func(d *will.Document, v string) bool {
		address(d).City = v
		return true
	}},
	"personalInfo.address.zipCode": {sanitize.Text, func(d *will.Document, v string) bool {
		address(d).ZipCode = v
		return true
	}},
	"beneficiaries.primaryBeneficiary.name": {sanitize.Text, func(d *will.Document, v string) bool {
		beneficiaries(d).Primary.Name = v
		return true
	}},
	"beneficiaries.primaryBeneficiary.relationship": {sanitize.Text, func(d *will.Document, v string) bool {
		beneficiaries(d).Primary.Relationship = v
		return true
	}},
	"beneficiaries.primaryBeneficiary.email": {sanitize.Email, func(d *will.Document, v string) bool {
		beneficiaries(d).Primary.Email = v
		return true
	}},
	"beneficiaries.primaryBeneficiary.phone": {sanitize.Text, func(d *will.Document, v string) bool {
		beneficiaries(d).Primary.Phone = v
		return true
	}},
	"beneficiaries.secondaryBeneficiary.name": {sanitize.Text, func(d *will.Document, v string) bool {
		return withSecondary(d, func(b *will.Beneficiary) { b.Name = v })
	}},
	"beneficiaries.secondaryBeneficiary.relationship": {sanitize.Text, func(d *will.Document, v string) bool {
		return withSecondary(d, func(b *will.Beneficiary) { b.Relationship = v })
	}},
	"beneficiaries.secondaryBeneficiary.email": {sanitize.Email, func(d *will.Document, v string) bool {
		return withSecondary(d, func(b *will.Beneficiary) { b.Email = v })
	}},
	"beneficiaries.secondaryBeneficiary.phone": {sanitize.Text, func(d *will.Document, v string) bool {
		return withSecondary(d, func(b *will.Beneficiary) { b.Phone = v })
	}},
	"beneficiaries.digitalExecutor.name": {sanitize.Text, func(d *will.Document, v string) bool {
		beneficiaries(d).Executor.Name = v
		return true
	}},
	"beneficiaries.digitalExecutor.email": {sanitize.Email, func(d *will.Document, v string) bool {
		beneficiaries(d).Executor.Email = v
		return true
	}},
	"beneficiaries.digitalExecutor.phone": {sanitize.Text, func(d *will.Document, v string) bool {
		beneficiaries(d).Executor.Phone = v
		return true
	}},
}

func withSecondary(d *will.Document, fn func(*will.Beneficiary)) bool {
	b := beneficiaries(d)
	if b.Secondary == nil {
		return false
	}
	fn(b.Secondary)
	return true
}

// TextFields lists the field paths accepted by SetFieldText.
func TextFields() []string {
	out := make([]string, 0, len(textFields))
	for k := range textFields {
		out = append(out, k)
	}
	return out
}
