package export

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"
	"strings"
	"time"

	"willvault/api/internal/guidance"
	"willvault/api/internal/will"
)

//go:embed templates/*.html
var templateFS embed.FS

var willTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"percent": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64) + "%"
		},
	}

	templateContent, err := templateFS.ReadFile("templates/will.html")
	if err != nil {
		willTemplate = template.Must(template.New("will").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}
	willTemplate = template.Must(template.New("will").Funcs(funcMap).Parse(string(templateContent)))
}

// PreviewData is everything the will template prints. Every string is user
// text and is escaped by html/template.
type PreviewData struct {
	Title         string
	GeneratedAt   time.Time
	Status        will.Status
	Testator      will.PersonalInfo
	Jurisdiction  string
	Categories    []PreviewCategory
	Accounts      []PreviewAccount
	Wallets       []PreviewWallet
	TotalValue    string
	UnvaluedCount int
	Primary       will.Beneficiary
	Secondary     *will.Beneficiary
	Executor      PreviewExecutor
	WaitingPeriod string
	Verification  []string
	Legal         guidance.LegalRequirement
}

type PreviewCategory struct {
	Group string
	Label string
}

type PreviewAccount struct {
	Kind     string
	Platform string
	Account  string
	Value    string
}

type PreviewWallet struct {
	Type         string
	Currency     string
	Value        string
	Instructions will.AccessInstructions
}

type PreviewExecutor struct {
	Name           string
	Email          string
	Phone          string
	TechExperience string
}

// RenderWillHTML renders the will template with provided data
func RenderWillHTML(data PreviewData) (string, error) {
	var buf bytes.Buffer
	if err := willTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p>I, {{.Testator.FullName}}, of {{.Jurisdiction}}, declare this my will for digital assets.</p>
  <p>Primary beneficiary: {{.Primary.Name}} ({{percent .Primary.Percentage}})</p>
  {{with .Secondary}}<p>Secondary beneficiary: {{.Name}} ({{percent .Percentage}})</p>{{end}}
</body>
</html>`
