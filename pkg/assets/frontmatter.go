package assets

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// frontmatterResult is the split of a markdown asset into its parsed YAML
// frontmatter and the remaining body. The scanner never reads Body's
// contents beyond deciding it exists (spec §4.6 "Never reads full skill
// bodies") — only Frontmatter is inspected.
type frontmatterResult struct {
	Frontmatter map[string]interface{}
	Body        string
}

// extractFrontmatter splits content on the leading "---" YAML fence,
// mirroring the delimiter convention gh-aw's skill/workflow frontmatter
// uses, and decodes the fenced block with goccy/go-yaml. A missing or
// malformed fence is reported as an error so callers can classify it as a
// parse failure.
func extractFrontmatter(content []byte) (*frontmatterResult, error) {
	const fence = "---"

	text := string(content)
	text = strings.TrimPrefix(text, "﻿") // tolerate a UTF-8 BOM

	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != fence {
		return nil, fmt.Errorf("content does not start with a %q frontmatter fence", fence)
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == fence {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return nil, fmt.Errorf("frontmatter fence is never closed")
	}

	yamlBlock := strings.Join(lines[1:closeIdx], "")
	body := strings.Join(lines[closeIdx+1:], "")

	var meta map[string]interface{}
	if strings.TrimSpace(yamlBlock) != "" {
		if err := yaml.Unmarshal([]byte(yamlBlock), &meta); err != nil {
			return nil, fmt.Errorf("invalid frontmatter YAML: %w", err)
		}
	}
	if meta == nil {
		meta = map[string]interface{}{}
	}

	return &frontmatterResult{Frontmatter: meta, Body: body}, nil
}

// stringField reads a string-valued frontmatter key, tolerating its absence.
func stringField(meta map[string]interface{}, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
