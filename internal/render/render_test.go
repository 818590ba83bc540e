package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	got, err := HTML("## Overview\n\n**Key** point.\n\n| A | B |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	for _, want := range []string{`<h2 id="overview">Overview</h2>`, "<strong>Key</strong>", "<table>", "<td>2</td>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestHTMLOmitsRawHTML(t *testing.T) {
	got, err := HTML("hello <script>alert(1)</script>")
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML passed through: %s", got)
	}
}

func TestPageEscapesTitle(t *testing.T) {
	var buf bytes.Buffer
	if err := Page(&buf, "Go & <Rust>", "# Report"); err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>Go &amp; &lt;Rust&gt;</title>") {
		t.Errorf("title not escaped:\n%s", out)
	}
	if !strings.Contains(out, `<h1 id="report">Report</h1>`) {
		t.Errorf("body not rendered:\n%s", out)
	}
}
