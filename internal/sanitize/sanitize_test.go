package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"willvault/api/internal/will"
)

func TestTextStripsTagsAndTokens(t *testing.T) {
	got := Text("<script>John</script> O'Brien")
	assert.Contains(t, got, "O'Brien")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, ">")
	assert.NotContains(t, strings.ToLower(got), "script")
	assert.Equal(t, "John O'Brien", got)
}

func TestTextIsCaseInsensitive(t *testing.T) {
	cases := map[string]string{
		"JaVaScRiPt:doIt()":        ":doIt()",
		"  ALERT(1) ":              "(1)",
		"<img src=x onerror=1>ok":  "ok",
		"OnClick=steal() please":   "=steal() please",
		"IFRAME eval VBScript end": "end",
		"   plain text   ":         "plain text",
	}
	for in, want := range cases {
		assert.Equal(t, want, Text(in), "input %q", in)
	}
}

func TestTextRemovesReassembledTokens(t *testing.T) {
	got := Text("scrscriptipt")
	assert.Empty(t, got)

	got = Text("<<b>script>")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, strings.ToLower(got), "script")
}

func TestTextIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Jane Doe",
		"<script>John</script> O'Brien",
		"  <<a>>  ",
		"evalalert",
		"javascrjavascriptipt",
		"<b>bold</b> and <i>italic",
		"a < b > c",
		"onloadonload x ",
		"\t<p>Expression</p>\n",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestTextEmptyPassesThrough(t *testing.T) {
	assert.Equal(t, "", Text(""))
}

func TestDeepWalksNestedRecords(t *testing.T) {
	in := map[string]any{
		"name":  "<b>Jane</b>",
		"age":   42,
		"flag":  true,
		"inner": map[string]any{"note": " alert(1) keep "},
		"list":  []any{"<i>x</i>", 3.5, nil},
	}
	got := Deep(in).(map[string]any)

	assert.Equal(t, "Jane", got["name"])
	assert.Equal(t, 42, got["age"])
	assert.Equal(t, true, got["flag"])
	assert.Equal(t, "(1) keep", got["inner"].(map[string]any)["note"])
	assert.Equal(t, []any{"x", 3.5, nil}, got["list"])
	assert.Equal(t, "<b>Jane</b>", in["name"], "input must not be modified")
}

func TestSectionSanitizers(t *testing.T) {
	p := PersonalInfo(will.PersonalInfo{
		FullName: " <b>Jane</b> Doe ",
		State:    "ca",
		Address:  &will.Address{Street: "<script>1 Main</script>", City: "LA"},
	})
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, "CA", p.State)
	assert.Equal(t, "1 Main", p.Address.Street)

	b := Beneficiary(will.Beneficiary{Name: "Tom<br>", Email: " Tom@X.com ", Percentage: 100})
	assert.Equal(t, "Tom", b.Name)
	assert.Equal(t, "tom@x.com", b.Email)
	assert.Equal(t, 100.0, b.Percentage)

	w := Wallets([]will.Wallet{{
		Type:         will.WalletHardware,
		Currency:     "BTC",
		Instructions: will.AccessInstructions{RecoveryPhraseLocation: "safe <iframe src=x></iframe>deposit box"},
	}})
	assert.Equal(t, "safe deposit box", w[0].Instructions.RecoveryPhraseLocation)

	assert.Equal(t, []string{"bitcoin"}, Strings([]string{"<b></b>", " bitcoin "}))
}
