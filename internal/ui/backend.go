package ui

import "strings"

const (
	BackendAuto      = "auto"
	BackendBubbleTea = "bubbletea"
	BackendHuh       = "huh"
	BackendTView     = "tview"
	BackendPlain     = "plain"
)

// tuiOrder is the preference order when no backend is pinned.
var tuiOrder = []string{BackendBubbleTea, BackendHuh, BackendTView}

// NormalizeBackend maps a configured backend name to a known one; anything
// unrecognized means auto.
func NormalizeBackend(backend string) string {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == BackendPlain {
		return BackendPlain
	}
	for _, known := range tuiOrder {
		if name == known {
			return known
		}
	}
	return BackendAuto
}

// backendCandidates puts the pinned backend first, then the other TUIs in
// tuiOrder, then plain, so a request can still be answered when every TUI
// fails to start.
func backendCandidates(backend string) []string {
	preferred := NormalizeBackend(backend)
	if preferred == BackendPlain {
		return []string{BackendPlain}
	}
	candidates := make([]string, 0, len(tuiOrder)+1)
	if preferred != BackendAuto {
		candidates = append(candidates, preferred)
	}
	for _, name := range tuiOrder {
		if name != preferred {
			candidates = append(candidates, name)
		}
	}
	return append(candidates, BackendPlain)
}
