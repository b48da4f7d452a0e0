package mcp

import (
	"strconv"
	"strings"
)

// ReplyPolicy controls how free-form replies are interpreted.
type ReplyPolicy struct {
	EnableContinue bool
	ContinuePrompt string
	Source         string
}

// ParseReply maps a typed reply to a response: reserved words first, then
// option numbers ("1,3"), then an exact option label, otherwise free text.
func ParseReply(req Request, reply string, policy ReplyPolicy) Response {
	trimmed := strings.TrimSpace(reply)
	switch strings.ToLower(strings.TrimPrefix(trimmed, "/")) {
	case "continue", "继续":
		if policy.EnableContinue {
			return BuildContinueResponse(req, policy.ContinuePrompt, policy.Source)
		}
	case "cancel", "取消":
		return BuildCancelResponse(req, policy.Source)
	}

	if selected, ok := optionsByNumber(req.PredefinedOptions, trimmed); ok {
		return BuildSendResponse(req, "", selected, policy.Source)
	}
	for _, option := range req.PredefinedOptions {
		if strings.EqualFold(option, trimmed) {
			return BuildSendResponse(req, "", []string{option}, policy.Source)
		}
	}
	return BuildSendResponse(req, trimmed, nil, policy.Source)
}

func optionsByNumber(options []string, reply string) ([]string, bool) {
	if len(options) == 0 {
		return nil, false
	}
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == ' ' || r == '，'
	})
	if len(fields) == 0 {
		return nil, false
	}
	selected := make([]string, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(options) {
			return nil, false
		}
		selected = append(selected, options[n-1])
	}
	return selected, true
}
