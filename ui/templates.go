package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"qcview/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"fmtFloat": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64)
		},
		"add": func(a, b int) int { return a + b },
	}
}

// parseTemplates loads every page and fragment template
func parseTemplates(files embed.FS) (*template.Template, error) {
	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, name := range fragments.All() {
		if templates.Lookup(name) == nil {
			return nil, fmt.Errorf("template %s not found", name)
		}
	}
	return templates, nil
}

// renderTemplate executes a template into a buffer first so a failing
// template never leaves a half-written response
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Warn("error writing template response: %v", err)
	}
}
