package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// RenderAssistantPrompt renders the course assistant system prompt using
// embedded Go templates. courseTitles, when non-empty, is appended so the
// model knows which courses exist before reaching for a tool.
func RenderAssistantPrompt(courseTitles []string) (string, error) {
	content, err := templatesFS.ReadFile("templates/assistant_system.md")
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("assistant_system").Parse(string(content))
	if err != nil {
		return "", err
	}

	data := struct {
		CourseTitles []string
	}{
		CourseTitles: courseTitles,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
