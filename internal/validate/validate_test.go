package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"willvault/api/internal/will"
)

func TestPersonalInfo(t *testing.T) {
	tests := []struct {
		name   string
		input  *will.PersonalInfo
		fields []string
	}{
		{name: "missing section", input: nil, fields: []string{"fullName", "state"}},
		{name: "short name", input: &will.PersonalInfo{FullName: "J", State: "CA"}, fields: []string{"fullName"}},
		{name: "blank name", input: &will.PersonalInfo{FullName: "   ", State: "CA"}, fields: []string{"fullName"}},
		{name: "missing state", input: &will.PersonalInfo{FullName: "Jane Doe"}, fields: []string{"state"}},
		{name: "unknown state", input: &will.PersonalInfo{FullName: "Jane Doe", State: "ZZ"}, fields: []string{"state"}},
		{name: "lower case state", input: &will.PersonalInfo{FullName: "Jane Doe", State: "tx"}},
		{name: "two letter name", input: &will.PersonalInfo{FullName: "Al", State: "NY"}},
		{name: "complete", input: &will.PersonalInfo{FullName: "Jane Doe", State: "CA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := PersonalInfo(tt.input)
			if len(tt.fields) == 0 {
				assert.Nil(t, errs)
				return
			}
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestKnownState(t *testing.T) {
	assert.True(t, KnownState("CA"))
	assert.True(t, KnownState(" dc "))
	assert.False(t, KnownState("ZZ"))
	assert.False(t, KnownState(""))
}

func TestDigitalAssets(t *testing.T) {
	assert.Contains(t, DigitalAssets(nil), "selectedCategories")
	assert.Contains(t, DigitalAssets(&will.DigitalAssets{}), "selectedCategories")
	assert.Nil(t, DigitalAssets(&will.DigitalAssets{SelectedCategories: []string{"bitcoin"}}))
}

func TestCryptoSetupAlwaysValid(t *testing.T) {
	assert.Nil(t, CryptoSetup(nil))
	assert.Nil(t, CryptoSetup(&will.CryptoSetup{Wallets: []will.Wallet{{}}}))
}

func TestBeneficiaries(t *testing.T) {
	tom := will.Beneficiary{Name: "Tom", Email: "tom@x.com", Percentage: 100}

	assert.Nil(t, Beneficiaries(&will.Beneficiaries{Primary: tom}))

	errs := Beneficiaries(nil)
	assert.Equal(t, "Primary beneficiary name is required", errs["primaryBeneficiary"])
	assert.Contains(t, errs, "percentage")

	noEmail := tom
	noEmail.Email = ""
	assert.Equal(t, "Primary beneficiary email is required", Beneficiaries(&will.Beneficiaries{Primary: noEmail})["primaryBeneficiary"])

	short := tom
	short.Percentage = 90
	assert.Equal(t, Errors{"percentage": "Beneficiary percentages must add up to 100%"}, Beneficiaries(&will.Beneficiaries{Primary: short}))

	split := tom
	split.Percentage = 60
	errs = Beneficiaries(&will.Beneficiaries{Primary: split, Secondary: &will.Beneficiary{Name: "Ann", Percentage: 40}})
	assert.Equal(t, Errors{"secondaryBeneficiary": "Secondary beneficiary email is required"}, errs)

	errs = Beneficiaries(&will.Beneficiaries{Primary: split, Secondary: &will.Beneficiary{Email: "ann@x.com", Percentage: 40}})
	assert.Equal(t, "Secondary beneficiary name is required", errs["secondaryBeneficiary"])

	assert.Nil(t, Beneficiaries(&will.Beneficiaries{Primary: split, Secondary: &will.Beneficiary{Name: "Ann", Email: "ann@x.com", Percentage: 40}}))
}

func TestSharesTotal100(t *testing.T) {
	assert.True(t, SharesTotal100(100, 0))
	assert.True(t, SharesTotal100(33.3335, 66.6665))
	assert.True(t, SharesTotal100(99.9995, 0))
	assert.False(t, SharesTotal100(99.99, 0))
	assert.False(t, SharesTotal100(50, 51))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("tom@x.com"))
	assert.False(t, Email(""))
	assert.False(t, Email("tom@x"))
	assert.False(t, Email("tom x@y.com"))
}

func TestStep(t *testing.T) {
	doc := will.NewDocument()
	section, errs := Step(1, doc)
	assert.Equal(t, SectionPersonalInfo, section)
	assert.NotEmpty(t, errs)

	section, errs = Step(3, doc)
	assert.Equal(t, SectionCryptoSetup, section)
	assert.Nil(t, errs)

	for _, step := range []int{5, 6, 0, 7} {
		section, errs = Step(step, doc)
		assert.Empty(t, section)
		assert.Nil(t, errs)
	}
}
