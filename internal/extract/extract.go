// Package extract pulls the embedded report payload out of a terminal HTML
// export. The terminal serializes the full report as a JSON object assigned
// to window.__report inside a script tag; the surrounding markup is noise.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ErrReportNotFound is returned when the artifact contains no
// window.__report assignment.
var ErrReportNotFound = errors.New("window.__report not found in artifact")

const reportMarker = "window.__report"

// reportPattern matches the well-formed case: the assignment terminated by a
// semicolon or the closing script tag. Non-greedy so the match stops at the
// first terminator after the payload, not the last one in the document.
var reportPattern = regexp.MustCompile(`(?s)window\.__report\s*=\s*(\{.*?\})\s*(?:</script>|;)`)

// Extract reads an exported report and returns the decoded payload. Numbers
// decode as json.Number so the normalizer controls coercion.
func Extract(r io.Reader) (map[string]any, error) {
	html, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return extractPayload(string(html))
}

// ExtractFile is Extract for a file on disk.
func ExtractFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	payload, err := Extract(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return payload, nil
}

func extractPayload(html string) (map[string]any, error) {
	var jsonText string

	if m := reportPattern.FindStringSubmatch(html); m != nil {
		jsonText = m[1]
	} else {
		// Degenerate exports lack the terminator; scan from the marker to
		// the closing brace instead.
		start := strings.Index(html, reportMarker)
		if start == -1 {
			return nil, ErrReportNotFound
		}
		objStart := strings.Index(html[start:], "{")
		if objStart == -1 {
			return nil, ErrReportNotFound
		}
		objStart += start
		objEnd := strings.Index(html[objStart:], "};")
		if objEnd == -1 {
			objEnd = len(html) - objStart - 1
		}
		jsonText = html[objStart : objStart+objEnd+1]
	}

	jsonText = strings.TrimSpace(jsonText)
	if !strings.HasSuffix(jsonText, "}") {
		if idx := strings.LastIndex(jsonText, "}"); idx >= 0 {
			jsonText = jsonText[:idx+1]
		}
	}

	dec := json.NewDecoder(strings.NewReader(jsonText))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}
	return payload, nil
}
