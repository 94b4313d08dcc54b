package filter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mikey/phish-guard/internal/core"
)

// HeaderNames are the header fields stamped onto assessed mail
type HeaderNames struct {
	Level  string
	Score  string
	Source string
	Reason string
}

type headerField struct {
	name  string
	value string
}

// assessmentHeaders renders the verdict headers for a message
func assessmentHeaders(names HeaderNames, a *core.RiskAssessment) []headerField {
	return []headerField{
		{names.Level, a.Level.String()},
		{names.Score, fmt.Sprintf("%d", a.FinalScore)},
		{names.Source, string(a.Source)},
		{names.Reason, headerSafe(core.Explain(a))},
	}
}

// headerSafe flattens a value onto a single header line
func headerSafe(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// splitMessage separates the raw header block from the body. The returned
// header block keeps its trailing line break; sep is the blank line.
func splitMessage(raw []byte) (header, sep, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], []byte("\r\n"), raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], []byte("\n"), raw[i+2:]
	}
	return raw, nil, nil
}

// analysisErrorHeader marks mail delivered without a verdict
const analysisErrorHeader = "X-Phish-Analysis-Error"

// names lists the configured header names, skipping empty ones
func (h HeaderNames) names() []string {
	var names []string
	for _, name := range []string{h.Level, h.Score, h.Source, h.Reason} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// rewriteMessage prepends fields to the original message and, when
// newSubject is not empty, replaces the Subject header in place. Incoming
// fields named like a prepended field or listed in strip are removed. All
// other header lines and the body are kept byte for byte.
func rewriteMessage(raw []byte, fields []headerField, newSubject string, strip ...string) []byte {
	header, sep, body := splitMessage(raw)

	var out bytes.Buffer
	for _, f := range fields {
		fmt.Fprintf(&out, "%s: %s\r\n", f.name, f.value)
		strip = append(strip, f.name)
	}

	header = removeFields(header, strip)
	if newSubject != "" {
		header = replaceSubject(header, newSubject)
	}
	out.Write(header)
	if sep == nil {
		return out.Bytes()
	}
	out.Write(sep)
	out.Write(body)
	return out.Bytes()
}

// replaceSubject swaps the Subject field, including folded continuation
// lines, for a single new line. A missing Subject is appended.
func replaceSubject(header []byte, subject string) []byte {
	lines := bytes.SplitAfter(header, []byte("\n"))
	var out bytes.Buffer
	replaced := false
	skipping := false

	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if skipping && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		skipping = false

		if !replaced && hasFieldName(line, "Subject") {
			fmt.Fprintf(&out, "Subject: %s\r\n", subject)
			replaced = true
			skipping = true
			continue
		}
		out.Write(line)
	}

	if !replaced {
		fmt.Fprintf(&out, "Subject: %s\r\n", subject)
	}
	return out.Bytes()
}

// removeFields drops every field with one of the given names, including
// folded continuation lines
func removeFields(header []byte, names []string) []byte {
	if len(names) == 0 {
		return header
	}
	lines := bytes.SplitAfter(header, []byte("\n"))
	var out bytes.Buffer
	skipping := false

	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if skipping && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		skipping = false

		for _, name := range names {
			if hasFieldName(line, name) {
				skipping = true
				break
			}
		}
		if !skipping {
			out.Write(line)
		}
	}
	return out.Bytes()
}

func hasFieldName(line []byte, name string) bool {
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(line[:colon])), name)
}
