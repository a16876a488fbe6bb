package server

import (
	"bytes"
	"html/template"

	"github.com/thepwagner/madison/pkg/madison"
)

var templates = template.Must(template.New("madison").Parse(`
{{- define "search-form" -}}
<form method="get">
  <input id="urlInput" type="search" name="package" placeholder="package name" value="{{ . }}" autofocus required>
  <input type="submit">
</form>
{{- end -}}

{{- define "index" -}}
<html>
<body>
{{ template "search-form" "" }}
</body>
</html>
{{ end -}}

{{- define "package" -}}
<html>
<body>
{{ template "search-form" .Query }}
<table>
  <thead>
    <th>Package</th>
    <th>Version</th>
    <th></th>
    <th>Architecture</th>
  </thead>
{{- range .Groups }}
{{- range .Rows }}
  <tr>
    <td>{{ .Package }}</td>
    <td>{{ .Version }}</td>
    <td>{{ .Key }}</td>
    <td>{{ .Architectures }}</td>
  </tr>
{{- end }}
{{- end }}
</table>
</body>
</html>
{{ end -}}
`))

type packagePage struct {
	Query  string
	Groups []madison.PackageRows
}

func renderTemplate(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
