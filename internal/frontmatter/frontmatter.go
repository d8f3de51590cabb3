// Package frontmatter encodes and decodes the YAML metadata block at the
// top of a note file.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Meta is the typed view of a note's frontmatter. Keys Gebo does not know
// about are collected in Extra and written back unchanged, so foreign
// metadata survives a load-modify-save cycle.
type Meta struct {
	Title       string         `yaml:"title,omitempty"`
	Category    string         `yaml:"category,omitempty"`
	Tags        []string       `yaml:"tags,omitempty"`
	CreatedAt   time.Time      `yaml:"created_at,omitempty"`
	UpdatedAt   time.Time      `yaml:"updated_at,omitempty"`
	LinkedNotes []string       `yaml:"linked_notes,omitempty"`
	Extra       map[string]any `yaml:",inline"`
}

// Parse splits raw note content into frontmatter and Markdown body.
// Content without a frontmatter block, or with YAML that fails to parse,
// yields a nil Meta and the full content as body.
func Parse(data []byte) (*Meta, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter; treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var meta Meta
	if err := yaml.Unmarshal(yamlBlock, &meta); err != nil {
		// Invalid YAML: fall back to body-only rather than failing the load.
		return nil, string(data)
	}

	return &meta, body
}

// Encode renders meta and body back into note file content. Known fields
// come first in a fixed order, Extra keys follow in yaml.v3's map order.
func Encode(meta *Meta, body string) ([]byte, error) {
	block, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(block)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// Title derives a display title: the frontmatter title if present,
// otherwise the first H1 heading, otherwise the fallback (typically the
// filename stem).
func Title(meta *Meta, body, fallback string) string {
	if meta != nil && meta.Title != "" {
		return meta.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return fallback
}

// Tags merges frontmatter tags with inline #tags found in the body,
// preserving first-seen order and dropping duplicates.
func Tags(meta *Meta, body string) []string {
	seen := make(map[string]struct{})
	var out []string

	if meta != nil {
		for _, t := range meta.Tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}
