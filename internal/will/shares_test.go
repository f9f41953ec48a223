package will

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(primary, secondary float64) Beneficiaries {
	return Beneficiaries{
		Primary:   Beneficiary{Name: "Tom", Email: "tom@x.com", Percentage: primary},
		Secondary: &Beneficiary{Name: "Ann", Email: "ann@x.com", Percentage: secondary},
	}
}

func TestSetSharePrimaryComplementsSecondary(t *testing.T) {
	for p := 0; p <= 100; p += 7 {
		out := SetShare(pair(50, 50), SharePrimary, float64(p))
		require.NotNil(t, out.Secondary)
		assert.Equal(t, float64(p), out.Primary.Percentage)
		assert.Equal(t, float64(100-p), out.Secondary.Percentage)
	}
}

func TestSetShareSecondaryComplementsPrimary(t *testing.T) {
	out := SetShare(pair(50, 50), ShareSecondary, 30)
	assert.Equal(t, 70.0, out.Primary.Percentage)
	assert.Equal(t, 30.0, out.Secondary.Percentage)
}

func TestSetShareClampsOutOfRange(t *testing.T) {
	out := SetShare(pair(50, 50), SharePrimary, 140)
	assert.Equal(t, 100.0, out.Primary.Percentage)
	assert.Equal(t, 0.0, out.Secondary.Percentage)

	out = SetShare(pair(50, 50), SharePrimary, -5)
	assert.Equal(t, 0.0, out.Primary.Percentage)
	assert.Equal(t, 100.0, out.Secondary.Percentage)
}

func TestSetShareWithoutSecondary(t *testing.T) {
	b := Beneficiaries{Primary: Beneficiary{Name: "Tom", Percentage: 100}}

	out := SetShare(b, SharePrimary, 80)
	assert.Equal(t, 80.0, out.Primary.Percentage)
	assert.Nil(t, out.Secondary)

	out = SetShare(b, ShareSecondary, 20)
	assert.Equal(t, 100.0, out.Primary.Percentage)
	assert.Nil(t, out.Secondary)
}

func TestSetShareDoesNotMutateInput(t *testing.T) {
	in := pair(60, 40)
	_ = SetShare(in, SharePrimary, 10)
	assert.Equal(t, 60.0, in.Primary.Percentage)
	assert.Equal(t, 40.0, in.Secondary.Percentage)
}

func TestAddSecondarySplitsEvenly(t *testing.T) {
	b := Beneficiaries{Primary: Beneficiary{Name: "Tom", Percentage: 100}}
	out := AddSecondary(b, Beneficiary{Name: "Ann", Percentage: 12})
	require.NotNil(t, out.Secondary)
	assert.Equal(t, 50.0, out.Primary.Percentage)
	assert.Equal(t, 50.0, out.Secondary.Percentage)
	assert.Equal(t, "Ann", out.Secondary.Name)
}

func TestAddSecondaryReplacingKeepsSplit(t *testing.T) {
	out := AddSecondary(pair(70, 30), Beneficiary{Name: "Bea"})
	assert.Equal(t, 70.0, out.Primary.Percentage)
	assert.Equal(t, 30.0, out.Secondary.Percentage)
	assert.Equal(t, "Bea", out.Secondary.Name)
}

func TestRemoveSecondaryRestoresPrimary(t *testing.T) {
	out := RemoveSecondary(pair(25, 75))
	assert.Equal(t, 100.0, out.Primary.Percentage)
	assert.Nil(t, out.Secondary)
	assert.Equal(t, 0.0, out.SecondaryShare())
}
