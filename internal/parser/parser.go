// Package parser turns the model's semi-structured answers into field maps.
package parser

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/kyc-extractor/constants"
)

// LabelMap maps a bold label token as the model writes it ("**Gender:**")
// to the field key it fills ("Gender").
type LabelMap map[string]string

// Keys returns the field keys in stable order.
func (m LabelMap) Keys() []string {
	seen := make(map[string]struct{}, len(m))
	keys := make([]string, 0, len(m))
	for _, k := range m {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tokens returns the label tokens longest first so overlapping tokens resolve the same way every time.
func (m LabelMap) tokens() []string {
	out := make([]string, 0, len(m))
	for tok := range m {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Parser extracts field values from raw model text. Implementations never fail;
// every key in labels is present in the result, set to "NA" when not found.
type Parser interface {
	Parse(raw string, labels LabelMap) map[string]string
}

// LabelParser reads "**Label:** value" lines. A recognised label with no value opens a
// section; following unlabeled lines are joined onto it with single spaces.
type LabelParser struct{}

func (LabelParser) Parse(raw string, labels LabelMap) map[string]string {
	fields := map[string]string{}
	tokens := labels.tokens()
	section := ""

	for _, line := range splitLines(raw) {
		if key, ok := matchLabel(line, tokens, labels); ok {
			value := valueAfterColon(line)
			if value == "" {
				section = key
				continue
			}
			fields[key] = value
			section = ""
			continue
		}
		if _, ok := headingText(line); ok {
			// an unrecognised heading ends the open section
			section = ""
			continue
		}
		if section != "" {
			fields[section] = joinSpace(fields[section], line)
		}
	}

	fillMissing(fields, labels)
	return fields
}

// SectionParser is LabelParser for open-ended pages: besides the known labels it keeps
// every "key: value" line and every heading with its continuation lines. A plain line
// outside any section is taken as a heading.
type SectionParser struct{}

func (SectionParser) Parse(raw string, labels LabelMap) map[string]string {
	fields := map[string]string{}
	tokens := labels.tokens()
	section := ""

	open := func(key string) {
		section = key
		if _, ok := fields[key]; !ok {
			fields[key] = ""
		}
	}

	for _, line := range splitLines(raw) {
		if key, ok := matchLabel(line, tokens, labels); ok {
			if value := valueAfterColon(line); value != "" {
				fields[key] = value
				section = ""
			} else {
				open(key)
			}
			continue
		}
		if heading, ok := headingText(line); ok {
			open(heading)
			continue
		}
		clean := stripBullet(strings.ReplaceAll(line, "**", ""))
		if k, v, found := strings.Cut(clean, ":"); found && strings.TrimSpace(k) != "" {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if v == "" {
				open(k)
			} else {
				fields[k] = v
				section = ""
			}
			continue
		}
		if section != "" {
			fields[section] = joinSpace(fields[section], clean)
			continue
		}
		open(clean)
	}

	fillMissing(fields, labels)
	return fields
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func matchLabel(line string, tokens []string, labels LabelMap) (string, bool) {
	for _, tok := range tokens {
		if strings.Contains(line, tok) {
			return labels[tok], true
		}
	}
	return "", false
}

// valueAfterColon returns what follows the first ':' with leading emphasis and spaces removed.
func valueAfterColon(line string) string {
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(strings.TrimLeft(rest, "* \t"))
}

// headingText recognises a bold line with nothing after it, e.g. "**Address:**" or "## **Education**".
func headingText(line string) (string, bool) {
	s := stripBullet(strings.TrimLeft(line, "# "))
	if !strings.HasPrefix(s, "**") {
		return "", false
	}
	body := strings.TrimSuffix(strings.TrimSpace(s), ":")
	if len(body) <= 4 || !strings.HasSuffix(body, "**") {
		return "", false
	}
	text := strings.TrimSpace(strings.Trim(body, "*: "))
	if text == "" || strings.Contains(text, "**") {
		return "", false
	}
	return text, true
}

func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	for _, b := range []string{"* ", "- ", "• "} {
		if strings.HasPrefix(s, b) {
			return strings.TrimSpace(s[len(b):])
		}
	}
	return s
}

func joinSpace(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

func fillMissing(fields map[string]string, labels LabelMap) {
	for _, key := range labels.Keys() {
		if strings.TrimSpace(fields[key]) == "" {
			fields[key] = constants.NotFound
		}
	}
}
