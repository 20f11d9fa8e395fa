package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/brainworx/scorecard/internal/report"
)

// htmlShell wraps the converted body in a minimal email-safe page. Layout and
// styling beyond this are a downstream concern.
const htmlShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Helvetica, Arial, sans-serif; max-width: 640px; margin: 0 auto; padding: 24px;">
%s</body>
</html>
`

// HTMLRenderer converts documents to HTML email bodies via markdown.
type HTMLRenderer struct {
	markdown goldmark.Markdown
}

// NewHTMLRenderer creates a renderer. The table extension is needed for the
// pattern overview series.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Render converts the document to a full HTML page.
func (r *HTMLRenderer) Render(doc *report.Document) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return "", fmt.Errorf("convert report to html: %w", err)
	}
	return fmt.Sprintf(htmlShell, buf.String()), nil
}
