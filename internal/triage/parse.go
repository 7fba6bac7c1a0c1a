package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable is returned when classifier text is not a JSON object.
var ErrUnparseable = errors.New("triage: unparseable classifier output")

// ParseOutput decodes classifier text. When the text is not valid JSON it
// strips a surrounding markdown code fence and tries once more.
func ParseOutput(text string) (RawOutput, error) {
	var out RawOutput
	if err := json.Unmarshal([]byte(text), &out); err == nil && out != nil {
		return out, nil
	}
	out = nil
	stripped := stripCodeFence(text)
	if err := json.Unmarshal([]byte(stripped), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if out == nil {
		return nil, ErrUnparseable
	}
	return out, nil
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
