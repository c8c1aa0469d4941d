package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

const qualityTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Data quality report</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f0f0f0; }
.critical { color: #b00020; font-weight: bold; }
.warning { color: #9a6700; }
.info { color: #555; }
.ok { color: #1a7f37; }
</style>
</head>
<body>
<h1>Data quality report</h1>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<table>
<tr>
<th>Symbol</th><th>Rows</th><th>Range</th><th>Status</th>
<th>Critical</th><th>Warnings</th><th>Info</th>
</tr>
{{range .Entries}}
<tr>
<td>{{.Symbol}}</td>
<td>{{.Rows}}</td>
<td>{{.Start}} to {{.End}}</td>
{{if .Summary.IsValid}}<td class="ok">valid</td>{{else}}<td class="critical">rejected</td>{{end}}
<td>{{.Summary.CriticalCount}}</td>
<td>{{.Summary.WarningCount}}</td>
<td>{{.Summary.InfoCount}}</td>
</tr>
{{end}}
</table>
{{range .Entries}}{{if .Issues}}
<h2>{{.Symbol}}</h2>
<ul>
{{range .Issues}}
<li class="{{severityClass .Severity}}">[{{.Severity}}] {{.Type}}: {{.Description}}</li>
{{end}}
</ul>
{{end}}{{end}}
</body>
</html>
`

// QualityReport writes an HTML summary of the run's validation outcomes
// and returns the written path.
func (g *Generator) QualityReport(entries []QualityEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("report: no entries for quality report")
	}

	tmpl, err := template.New("quality").Funcs(template.FuncMap{
		"severityClass": severityClass,
	}).Parse(qualityTemplate)
	if err != nil {
		return "", fmt.Errorf("parse quality template: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(g.dir, fmt.Sprintf("quality_%s.html", g.now().Format("2006-01-02")))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	data := struct {
		GeneratedAt time.Time
		Entries     []QualityEntry
	}{GeneratedAt: g.now(), Entries: entries}

	if err := tmpl.Execute(file, data); err != nil {
		return "", fmt.Errorf("render quality report: %w", err)
	}
	g.logger.Info().Int("symbols", len(entries)).Str("path", path).Msg("quality report written")
	return path, nil
}

func severityClass(s interface{}) string {
	switch fmt.Sprint(s) {
	case "CRITICAL":
		return "critical"
	case "WARNING":
		return "warning"
	default:
		return "info"
	}
}
