package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"qcview/ui/templates/fragments"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderHelp converts the embedded help.md once at startup
func renderHelp(files embed.FS) (template.HTML, error) {
	source, err := files.ReadFile("help.md")
	if err != nil {
		return "", fmt.Errorf("failed to read help page: %w", err)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return template.HTML(markdown.ToHTML(source, p, renderer)), nil
}

func (s *Server) handleHelp(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, fragments.HelpPage, gin.H{"Body": s.help})
}
