package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"", true},
		{"   \n\t", true},
		{"<p><br></p>", true},
		{"<br/>", true},
		{"<p>&nbsp;</p>", true},
		{"<div><span> </span></div>", true},
		{"<p>hello</p>", false},
		{"plain text", false},
		{`<p><img src="https://example.com/a.png"></p>`, false},
		{"<script>alert(1)</script>", true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.body))
		})
	}
}

func TestSanitizeDropsScripts(t *testing.T) {
	got := Sanitize(`<p onclick="x()">hi<script>alert(1)</script></p>`)
	assert.Equal(t, "<p>hi</p>", got)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "a & b", StripHTML("<b>a</b> &amp; b"))
}

func TestMarkdownToHTML(t *testing.T) {
	got := MarkdownToHTML("Fixed by **restarting** the worker")
	assert.Contains(t, got, "<strong>restarting</strong>")

	got = MarkdownToHTML("<script>alert(1)</script>")
	assert.NotContains(t, got, "<script>")
}
