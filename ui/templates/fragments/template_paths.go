// Package fragments provides template name constants for the UI server
package fragments

// Page templates, named after their file
const (
	IndexPage = "index.html"
	HelpPage  = "help.html"
)

// Fragment templates, named by their {{define}} block
const (
	View  = "view"
	Error = "error"
)

// All lists every template the server expects after parsing
func All() []string {
	return []string{IndexPage, HelpPage, View, Error}
}
