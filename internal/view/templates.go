package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title        string
	CSRFToken    string
	Flash        *shared.FlashMessage
	CurrentPath  string
	Principal    rbac.Principal
	// AuditEnabled shows the audit log link; it needs a database.
	AuditEnabled bool
	Data         any
}

// Can is a template shortcut for the principal capability check.
func (d TemplateData) Can(capability string) bool {
	return d.Principal.Can(rbac.Capability(capability))
}

var printer = message.NewPrinter(language.English)

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatMoney":  formatMoney,
		"formatNumber": formatNumber,
		"lower":        strings.ToLower,
		"title": func(s string) string {
			s = strings.ReplaceAll(s, "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"add": func(a, b int) int { return a + b },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

type floater interface {
	Float() float64
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case floater:
		return n.Float()
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// formatMoney renders an amount with thousands separators and the currency
// code, defaulting to USD.
func formatMoney(v any, code ...string) string {
	cur := "USD"
	if len(code) > 0 && strings.TrimSpace(code[0]) != "" {
		cur = strings.ToUpper(strings.TrimSpace(code[0]))
	}
	return printer.Sprintf("%s %.2f", cur, toFloat(v))
}

func formatNumber(v any) string {
	return printer.Sprintf("%d", int64(toFloat(v)))
}
