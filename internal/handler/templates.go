package handler

import (
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		// formatDate accepts time.Time or *time.Time; nil and zero render empty.
		"formatDate": func(v any) string {
			var t time.Time
			switch tv := v.(type) {
			case time.Time:
				t = tv
			case *time.Time:
				if tv == nil {
					return ""
				}
				t = *tv
			}
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"title": func(v any) string {
			return cases.Title(language.English).String(fmt.Sprint(v))
		},
		"default": func(defaultVal, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		// fieldError returns the message for one field of a form error map.
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
}
