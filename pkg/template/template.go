// Package template renders text/template strings for node types that format text.
package template

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// EnvPrefix is the only prefix the env function reads. Other variables render
// as the empty string so templates cannot reach server secrets.
const EnvPrefix = "NODEFLOW_TEMPLATE_"

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(max int) int {
		if max <= 0 {
			return 0
		}
		num := make([]byte, 1)
		_, err := rand.Read(num)
		if err != nil {
			return 0
		}

		return int(num[0]) % max
	},
	"env":   env,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

func env(name string) string {
	if !strings.HasPrefix(name, EnvPrefix) {
		return ""
	}

	return os.Getenv(name)
}

// Render executes templateStr against data and returns the text produced.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("node").
		Option("missingkey=zero").
		Funcs(funcs).
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}
