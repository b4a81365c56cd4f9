package htmlstyling

import (
	"strconv"
	"strings"
	"text/template"
)

var cssTemplate = template.Must(template.New("css").Funcs(template.FuncMap{
	"num":   formatNumber,
	"scale": func(m int, f float64) string { return formatNumber(float64(m) * f) },
}).Parse(`:root {
    color-scheme: {{if .Dark}}dark{{else}}light{{end}};
}

body {
    font-family: {{.FontFamily}}, system-ui, -apple-system, sans-serif;
    font-size: {{num .TextSize}}px;
    line-height: {{num .LineHeight}};
    color: {{.TextColor}};
    background-color: {{.BackgroundColor}};
    margin: {{scale .Margin 2.5}}px {{scale .Margin 2}}px;
    padding: 0;
    text-align: {{.TextAlign}};
    hyphens: auto;
    -webkit-hyphens: auto;
    word-wrap: break-word;
    overflow-wrap: break-word;
}

p, div {
    margin-bottom: {{num .ParagraphSpacing}}em;
    line-height: inherit;
    font-family: inherit;
    font-size: inherit;
    color: inherit;
    orphans: 4;
    widows: 4;
}

p {
    margin-top: 0;
    text-indent: 1.5em;
    letter-spacing: 0.01em;
}

h1 + p, h2 + p, h3 + p, h4 + p, h5 + p, h6 + p, p.chapter-first {
    text-indent: 0;
}

h1, h2, h3, h4, h5, h6 {
    font-family: inherit;
    line-height: 1.2;
    margin-top: 2em;
    margin-bottom: 0.8em;
    color: inherit;
    break-after: avoid;
    text-align: center;
    letter-spacing: 0.03em;
}

h1 { font-size: 1.7em; }
h2 { font-size: 1.5em; }
h3 { font-size: 1.3em; }
h4 { font-size: 1.2em; }
h5 { font-size: 1.1em; }
h6 { font-size: 1em; }

a {
    color: {{.LinkColor}};
    text-decoration: none;
    border-bottom: 1px dotted {{.LinkColor}};
}

img {
    max-width: 90%;
    height: auto;
    display: block;
    margin: 1.5em auto;
    break-inside: avoid;
}

blockquote {
    border-left: 3px solid {{if .Dark}}#555{{else}}#ccc{{end}};
    margin: 1.5em 2em 1.5em 1em;
    padding: 0.8em 0 0.8em 1.2em;
    font-style: italic;
    background-color: {{if .Dark}}rgba(50, 50, 50, 0.3){{else}}rgba(245, 245, 245, 0.5){{end}};
}

code, pre {
    font-family: 'Courier New', monospace;
    background-color: {{if .Dark}}#2d2d2d{{else}}#f5f5f5{{end}};
    font-size: 0.9em;
}

pre {
    padding: 1.2em;
    white-space: pre-wrap;
    border: 1px solid {{.RuleColor}};
}

table {
    border-collapse: collapse;
    width: 100%;
    margin: 1.5em 0;
}

table, th, td {
    border: 1px solid {{.RuleColor}};
}

th {
    background-color: {{if .Dark}}#333{{else}}#f0f0f0{{end}};
}

hr {
    border: none;
    height: 1px;
    background-color: {{.RuleColor}};
    margin: 2em 0;
}

* {
    max-width: 100% !important;
}

@media screen and (max-width: 600px) {
    body {
        margin: {{scale .Margin 1.5}}px {{.Margin}}px;
    }
}
`))

type cssData struct {
	EpubStyle
	Dark      bool
	RuleColor string
}

// CSS renders the style sheet body (without the <style> element).
func (s EpubStyle) CSS() string {
	data := cssData{EpubStyle: s, Dark: s.Theme == ThemeDark, RuleColor: "#ddd"}
	if data.Dark {
		data.RuleColor = "#444"
	}

	var b strings.Builder
	if err := cssTemplate.Execute(&b, data); err != nil {
		panic(err)
	}
	return b.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
