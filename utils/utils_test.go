package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer(NewSanitizer())

	html, err := r.Render("# Title\n\nSome **bold** text\n\n- one\n- two")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<li>one</li>")
}

func TestSanitizerStripsScripts(t *testing.T) {
	s := NewSanitizer()
	out := s.HTML(`<p onclick="x()">hi<script>alert(1)</script></p>`)
	assert.Equal(t, "<p>hi</p>", out)
}

func TestPlainText(t *testing.T) {
	out := PlainText("# Heading\n\nA *b* c")
	assert.Equal(t, "Heading\nA b c", out)
}

func TestUnifiedDiff(t *testing.T) {
	out, err := UnifiedDiff("ai", "line one\nline two\n", "user", "line one\nline 2\n")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "--- ai\n+++ user\n"))
	assert.Contains(t, out, "-line two")
	assert.Contains(t, out, "+line 2")

	same, err := UnifiedDiff("a", "x\n", "b", "x\n")
	require.NoError(t, err)
	assert.Empty(t, same)
}
