package output

import (
	"fmt"
	"html/template"
	"time"
)

// HTMLOutput is the data rendered by the HTML report template
type HTMLOutput struct {
	Suite          string
	Version        string
	RunID          string
	Summary        JSONSummary
	Groups         []HTMLGroup
	Duration       string
	Time           string
	PassedPercent  float64
	PendingPercent float64
	FailedPercent  float64
}

// HTMLGroup lists the examples of one group
type HTMLGroup struct {
	Name  string
	Tests []HTMLTest
}

// HTMLTest represents a single example for HTML output
type HTMLTest struct {
	Name        string
	Status      string
	StatusClass string
	Duration    string
	Assertions  int
	Error       string
}

// HTMLFormatter writes a standalone HTML report
type HTMLFormatter struct {
	collector
}

func NewHTMLFormatter(opts ...Option) *HTMLFormatter {
	return &HTMLFormatter{collector: newCollector(opts)}
}

// Flush writes the accumulated HTML output
func (f *HTMLFormatter) Flush(totalDuration time.Duration) error {
	res := f.summary()

	var groups []HTMLGroup
	index := make(map[string]int)
	for _, e := range f.entries {
		name := e.example.Group().FullDescription()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, HTMLGroup{Name: name})
		}
		status := e.outcome.Status.String()
		groups[i].Tests = append(groups[i].Tests, HTMLTest{
			Name:        e.example.Description(),
			Status:      status,
			StatusClass: status,
			Duration:    fmt.Sprintf("%.1fms", ms(e.outcome.Duration)),
			Assertions:  e.outcome.Assertions,
			Error:       errorText(e.outcome.Err),
		})
	}

	output := HTMLOutput{
		Suite:   f.suite,
		Version: f.version,
		RunID:   f.runID,
		Summary: JSONSummary{
			Total:    res.Total,
			Passed:   res.Passed,
			Pending:  res.Pending,
			Failed:   res.Failed + res.Errored,
			Errored:  res.Errored,
			ExitCode: res.ExitCode(),
		},
		Groups:   groups,
		Duration: seconds(totalDuration) + "s",
		Time:     f.clock().UTC().Format("2006-01-02 15:04:05"),
	}
	if res.Total > 0 {
		total := float64(res.Total)
		output.PassedPercent = float64(res.Passed) / total * 100
		output.PendingPercent = float64(res.Pending) / total * 100
		output.FailedPercent = float64(res.Failed+res.Errored) / total * 100
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return tmpl.Execute(f.writer, output)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Suite}}{{.Suite}} - {{end}}itspec report</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; color: #222; }
.bar { display: flex; height: 10px; border-radius: 4px; overflow: hidden; margin: 1rem 0; }
.bar .pass { background: #2da44e; } .bar .pending { background: #d4a72c; } .bar .fail { background: #cf222e; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
td, th { padding: .3rem .6rem; border-bottom: 1px solid #eee; text-align: left; }
.pass { color: #2da44e; } .pending { color: #9a6700; } .fail { color: #cf222e; } .error { color: #0969da; }
pre { margin: 0; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>{{if .Suite}}{{.Suite}}{{else}}itspec{{end}}</h1>
<p>{{.Summary.Total}} specs: {{.Summary.Passed}} passed, {{.Summary.Pending}} pending, {{.Summary.Failed}} failed ({{.Summary.Errored}} errored) in {{.Duration}}</p>
<div class="bar">
<div class="pass" style="width: {{printf "%.1f" .PassedPercent}}%"></div>
<div class="pending" style="width: {{printf "%.1f" .PendingPercent}}%"></div>
<div class="fail" style="width: {{printf "%.1f" .FailedPercent}}%"></div>
</div>
{{range .Groups}}
<h2>{{if .Name}}{{.Name}}{{else}}(top level){{end}}</h2>
<table>
<tr><th>Example</th><th>Status</th><th>Assertions</th><th>Duration</th></tr>
{{range .Tests}}<tr class="{{.StatusClass}}"><td>{{.Name}}{{if .Error}}<pre>{{.Error}}</pre>{{end}}</td><td>{{.Status}}</td><td>{{.Assertions}}</td><td>{{.Duration}}</td></tr>
{{end}}</table>
{{end}}
<footer>Run {{.RunID}}{{if .Version}}, itspec {{.Version}}{{end}}, {{.Time}} UTC</footer>
</body>
</html>
`
