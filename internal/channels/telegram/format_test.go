package telegram

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "こんにちは", "こんにちは"},
		{"bold and italic", "**大切** なのは *休息* です", "<b>大切</b> なのは <i>休息</i> です"},
		{"escapes", "a < b && c > d", "a &lt; b &amp;&amp; c &gt; d"},
		{"code span", "run `x<y`", "run <code>x&lt;y</code>"},
		{"heading", "# 見出し", "<b>見出し</b>"},
		{"link", "[docs](https://example.com/a?b=1)", `<a href="https://example.com/a?b=1">docs</a>`},
		{"strike", "~~old~~ new", "<s>old</s> new"},
		{"bullets", "- one\n- two", "• one\n• two"},
		{"ordered", "3. three\n4. four", "3. three\n4. four"},
		{"raw html dropped", "hi <span>there</span>", "hi there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toHTML(tt.in)
			if !ok {
				t.Fatalf("toHTML(%q) not ok", tt.in)
			}
			if got != tt.want {
				t.Errorf("toHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToHTMLCodeBlock(t *testing.T) {
	got, ok := toHTML("```go\nif a < b {\n}\n```")
	if !ok {
		t.Fatal("toHTML not ok")
	}
	want := "<pre>if a &lt; b {\n}\n</pre>"
	if got != want {
		t.Errorf("toHTML() = %q, want %q", got, want)
	}
}

func TestToHTMLTable(t *testing.T) {
	got, ok := toHTML("| 名前 | n |\n|---|---|\n| りんご | 3 |")
	if !ok {
		t.Fatal("toHTML not ok")
	}
	if !strings.HasPrefix(got, "<pre>") || !strings.HasSuffix(got, "</pre>") {
		t.Fatalf("table not preformatted: %q", got)
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(got, "<pre>"), "\n</pre>"), "\n")
	if len(lines) != 3 {
		t.Fatalf("table lines = %q, want 3", lines)
	}
	if lines[0] != "| 名前   | n |" || lines[2] != "| りんご | 3 |" {
		t.Errorf("table not aligned: %q", lines)
	}
}

func TestToHTMLBlank(t *testing.T) {
	if got, ok := toHTML("   "); ok || got != "   " {
		t.Errorf("toHTML(blank) = (%q, %v), want passthrough", got, ok)
	}
}
