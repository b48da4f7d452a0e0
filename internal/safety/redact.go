// Package safety scrubs credentials out of text before it is logged.
package safety

import (
	"regexp"
	"strings"
	"sync"
)

const mask = "<redacted>"

var (
	botURLToken = regexp.MustCompile(`/bot[0-9]+:[A-Za-z0-9_-]+`)
	bareToken   = regexp.MustCompile(`\b[0-9]{6,}:[A-Za-z0-9_-]{30,}\b`)
	assignment  = regexp.MustCompile(`(?i)\b([a-z0-9_]*(?:token|secret|password|api[_-]?key)[a-z0-9_]*)\s*[=:]\s*("[^"]*"|'[^']*'|[^\s"']+)`)
	bearer      = regexp.MustCompile(`(?i)\b(bearer)\s+[^\s"']+`)
)

var (
	mu      sync.RWMutex
	secrets []string
)

// RegisterSecret makes RedactText mask value verbatim wherever it appears,
// whatever its shape. Values shorter than four characters are ignored.
func RegisterSecret(value string) {
	value = strings.TrimSpace(value)
	if len(value) < 4 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	for _, known := range secrets {
		if known == value {
			return
		}
	}
	secrets = append(secrets, value)
}

func RedactText(input string) string {
	out := input

	mu.RLock()
	for _, secret := range secrets {
		out = strings.ReplaceAll(out, secret, mask)
	}
	mu.RUnlock()

	// the url form goes first so the method path stays readable
	out = botURLToken.ReplaceAllString(out, "/bot"+mask)
	out = bareToken.ReplaceAllString(out, mask)
	out = assignment.ReplaceAllString(out, "$1="+mask)
	out = bearer.ReplaceAllString(out, "$1 "+mask)
	return out
}

func resetSecrets() {
	mu.Lock()
	secrets = nil
	mu.Unlock()
}
