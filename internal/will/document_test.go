package will

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleUsesPresence(t *testing.T) {
	d := &DigitalAssets{}
	d.Toggle("bitcoin")
	d.Toggle("dropbox")
	d.Toggle("bitcoin")
	assert.Equal(t, []string{"dropbox"}, d.SelectedCategories)

	d.Toggle("dropbox")
	assert.Empty(t, d.SelectedCategories)
}

func TestSelectsCrypto(t *testing.T) {
	assert.False(t, (*DigitalAssets)(nil).SelectsCrypto())
	assert.False(t, (&DigitalAssets{SelectedCategories: []string{"icloud"}}).SelectsCrypto())
	assert.True(t, (&DigitalAssets{SelectedCategories: []string{"icloud", "ethereum"}}).SelectsCrypto())
}

func TestCloneIsDeep(t *testing.T) {
	doc := NewDocument()
	doc.DigitalAssets = &DigitalAssets{SelectedCategories: []string{"bitcoin"}}
	doc.Beneficiaries = &Beneficiaries{Secondary: &Beneficiary{Name: "Ann"}}

	cp := doc.Clone()
	cp.DigitalAssets.SelectedCategories[0] = "dropbox"
	cp.Beneficiaries.Secondary.Name = "Bea"

	assert.Equal(t, "bitcoin", doc.DigitalAssets.SelectedCategories[0])
	assert.Equal(t, "Ann", doc.Beneficiaries.Secondary.Name)
}

func TestSnapshotCodecRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.PersonalInfo = &PersonalInfo{FullName: "Jane Doe", State: "CA"}
	doc.Beneficiaries = &Beneficiaries{Primary: Beneficiary{Name: "Tom", Email: "tom@x.com", Percentage: 100}}
	at := time.UnixMilli(1_700_000_000_123)

	data, err := EncodeSnapshot(NewSnapshot(doc, 4, at))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"currentStep":4`)
	assert.Contains(t, string(data), `"timestamp":1700000000123`)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStep)
	assert.Equal(t, doc, got.Document)
}

func TestDecodeSnapshotDefaultsStatus(t *testing.T) {
	got, err := DecodeSnapshot([]byte(`{"document":{},"currentStep":2,"timestamp":1}`))
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Document.Status)
}

func TestJurisdictionName(t *testing.T) {
	name, ok := JurisdictionName(" ca ")
	assert.True(t, ok)
	assert.Equal(t, "California", name)

	_, ok = JurisdictionName("ZZ")
	assert.False(t, ok)
}
