package tui

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var shellLanguages = map[string]bool{
	"":      true,
	"bash":  true,
	"sh":    true,
	"shell": true,
}

// firstShellSnippet returns the first runnable code block of a step: a fenced
// block tagged bash, sh or shell, an untagged fence, or an indented block
func firstShellSnippet(markdown string) (string, bool) {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var snippet string
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		switch block := n.(type) {
		case *ast.FencedCodeBlock:
			lang := strings.ToLower(string(block.Language(source)))
			if !shellLanguages[lang] {
				return ast.WalkSkipChildren, nil
			}
			snippet, found = blockText(block, source), true
			return ast.WalkStop, nil
		case *ast.CodeBlock:
			snippet, found = blockText(block, source), true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if !found || snippet == "" {
		return "", false
	}
	return snippet, true
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimSpace(buf.String())
}
