package agents

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"fincopilot/internal/domain/analysis"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

// ReportFormat selects the report rendering.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatPDF  ReportFormat = "pdf"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Portfolio Report: {{.Portfolio.Name}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 2em; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: 0.2em; }
h2 { color: #444; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
.alert-high { color: #b00020; }
.alert-medium { color: #b06000; }
</style>
</head>
<body>
<h1>Portfolio Report: {{.Portfolio.Name}}</h1>
<p>Generated {{.Report.AnalysisDate.Format "2006-01-02 15:04 MST"}}</p>

<h2>Summary</h2>
<table>
<tr><th>Total Value</th><td>{{printf "%.2f" .TotalValue}}</td></tr>
<tr><th>Total Return</th><td>{{printf "%.2f" .TotalReturn}}%</td></tr>
<tr><th>Holdings</th><td>{{len .Portfolio.Holdings}}</td></tr>
<tr><th>Risk Level</th><td>{{.Report.RiskAssessment.RiskLevel}} ({{printf "%.1f" .Report.RiskAssessment.RiskScore}}/10)</td></tr>
<tr><th>Health</th><td>{{.Report.PortfolioHealth.Status}} ({{printf "%.0f" .Report.PortfolioHealth.HealthScore}}/100)</td></tr>
</table>

<h2>Holdings Analysis</h2>
<table>
<tr><th>Symbol</th><th>Recommendation</th><th>Confidence</th><th>Target Price</th><th>Summary</th></tr>
{{range .Report.HoldingsAnalysis}}
<tr>
<td>{{.Symbol}}</td>
<td>{{.Recommendation}}</td>
<td>{{printf "%.1f" .Confidence}}</td>
<td>{{if .TargetPrice}}{{printf "%.2f" (deref .TargetPrice)}}{{else}}n/a{{end}}</td>
<td>{{.Summary}}</td>
</tr>
{{end}}
</table>

<h2>Risk</h2>
<p>{{.Report.RiskAssessment.Narrative}}</p>
<ul>
{{range .Report.RiskAssessment.Recommendations}}<li>{{.}}</li>{{end}}
</ul>

<h2>Health Alerts</h2>
{{if .Report.PortfolioHealth.Alerts}}
<ul>
{{range .Report.PortfolioHealth.Alerts}}<li class="alert-{{.Severity}}">[{{.Severity}}] {{.Message}}</li>{{end}}
</ul>
{{else}}<p>No alerts.</p>{{end}}

<h2>News Sentiment: {{.Report.NewsSummary.OverallSentiment}}</h2>
<p>{{.Report.NewsSummary.Summary}}</p>

<h2>Recommendations</h2>
<ol>
{{range .Report.Recommendations}}<li>{{.}}</li>{{end}}
</ol>
</body>
</html>
`

// html/template's printf verbs do not dereference pointers, so optional
// numbers go through deref inside an {{if}} guard.
var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"deref": func(f *float64) float64 { return *f },
}).Parse(reportTemplate))

type reportData struct {
	Portfolio   *portfolio.Portfolio
	Report      *analysis.PortfolioAnalysisReport
	TotalValue  float64
	TotalReturn float64
}

// GenerateReport renders the latest analysis (running one if needed) as
// HTML or a real PDF document
func (o *Orchestrator) GenerateReport(ctx context.Context, portfolioID, userID uuid.UUID, format ReportFormat) ([]byte, error) {
	unlock := o.states.Lock(portfolioID.String())
	defer unlock()

	state := o.states.Get(portfolioID.String(), userID.String())

	var report *analysis.PortfolioAnalysisReport
	if v, ok := state.GetResult(latestAnalysisKey); ok {
		report, _ = v.(*analysis.PortfolioAnalysisReport)
	}
	if report == nil {
		var err error
		report, err = o.analyze(ctx, portfolioID, userID)
		if err != nil {
			return nil, err
		}
	}

	p, err := o.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, errors.Wrapf(err, "load portfolio %s", portfolioID)
	}

	data := reportData{
		Portfolio:   p,
		Report:      report,
		TotalValue:  p.TotalValue(),
		TotalReturn: p.TotalReturnPercent(),
	}

	switch format {
	case FormatHTML, "":
		return renderHTML(data)
	case FormatPDF:
		return renderPDF(data)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported report format %q", format)
	}
}

func renderHTML(data reportData) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "render report template")
	}
	return buf.Bytes(), nil
}

func renderPDF(data reportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Portfolio Report: %s", data.Portfolio.Name), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("Portfolio Report: %s", data.Portfolio.Name))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", data.Report.AnalysisDate.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, title)
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
	}
	line := func(text string) {
		pdf.MultiCell(0, 5, text, "", "L", false)
		pdf.Ln(1)
	}

	section("Summary")
	line(fmt.Sprintf("Total value: %.2f", data.TotalValue))
	line(fmt.Sprintf("Total return: %.2f%%", data.TotalReturn))
	line(fmt.Sprintf("Holdings: %d", len(data.Portfolio.Holdings)))
	line(fmt.Sprintf("Risk: %s (%.1f/10)", data.Report.RiskAssessment.RiskLevel, data.Report.RiskAssessment.RiskScore))
	line(fmt.Sprintf("Health: %s (%.0f/100)", data.Report.PortfolioHealth.Status, data.Report.PortfolioHealth.HealthScore))
	pdf.Ln(4)

	section("Holdings Analysis")
	for _, s := range data.Report.HoldingsAnalysis {
		target := "n/a"
		if s.TargetPrice != nil {
			target = fmt.Sprintf("%.2f", *s.TargetPrice)
		}
		line(fmt.Sprintf("%s: %s (confidence %.1f, target %s)", s.Symbol, s.Recommendation, s.Confidence, target))
	}
	pdf.Ln(4)

	section("Risk")
	line(data.Report.RiskAssessment.Narrative)
	for _, rec := range data.Report.RiskAssessment.Recommendations {
		line("- " + rec)
	}
	pdf.Ln(4)

	section("Health Alerts")
	if len(data.Report.PortfolioHealth.Alerts) == 0 {
		line("No alerts.")
	}
	for _, alert := range data.Report.PortfolioHealth.Alerts {
		line(fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Message))
	}
	pdf.Ln(4)

	section(fmt.Sprintf("News Sentiment: %s", data.Report.NewsSummary.OverallSentiment))
	line(data.Report.NewsSummary.Summary)
	pdf.Ln(4)

	section("Recommendations")
	for i, rec := range data.Report.Recommendations {
		line(fmt.Sprintf("%d. %s", i+1, rec))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}
