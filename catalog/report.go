package catalog

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shapetone/shapetone"
)

const reportTemplate = `{{- range .}}
{{title .Preset.Name}}{{if .User}} (user){{end}} [{{.ID}}]
{{- with .Preset.Comment}}
  {{wrap 76 . | indent 2 | trim}}
{{- end}}
  chain: input -> {{range .Preset.Effects}}{{.Kind}}{{if .AutoStart}}*{{end}} -> {{end}}output
{{- range $i, $k := .Preset.Knobs}}
  knob {{$i}}: {{default "unnamed" $k.Name | quote}} -> {{if eq (toString $k.Target) "synth"}}synth{{else}}effect {{$k.Node}}.{{$k.Param}}{{if or $k.Min $k.Max}} [{{$k.Min}}..{{$k.Max}}]{{end}}{{end}}
{{- end}}
{{end}}`

type reportEntry struct {
	ID     string
	User   bool
	Preset shapetone.Preset
}

// Report writes a human readable listing of every preset in c to w: its chain
// topology, with started nodes marked with an asterisk, and its knobs.
func Report(w io.Writer, c *Catalog) error {
	caser := cases.Title(language.English)
	funcs := sprig.TxtFuncMap()
	funcs["title"] = caser.String
	tmpl, err := template.New("report").Funcs(funcs).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	entries := make([]reportEntry, 0, c.Len())
	for _, id := range c.ids {
		e := c.entries[id]
		entries = append(entries, reportEntry{ID: id, User: e.user, Preset: e.preset})
	}
	if err := tmpl.Execute(w, entries); err != nil {
		return fmt.Errorf("execute report template: %w", err)
	}
	return nil
}
