// Package lextypes defines UI state types for lexshell.
package lextypes

import (
	"fmt"
	"strings"
)

// UIAction is the active interface mode.
type UIAction string

// UI modes. ActionNone is the start screen.
const (
	ActionSearch UIAction = "search"
	ActionChat   UIAction = "chat"
	ActionNone   UIAction = "none"
)

// ParseUIAction converts user input into a UIAction.
func ParseUIAction(s string) (UIAction, error) {
	switch UIAction(strings.ToLower(strings.TrimSpace(s))) {
	case ActionSearch:
		return ActionSearch, nil
	case ActionChat:
		return ActionChat, nil
	case ActionNone, "":
		return ActionNone, nil
	}
	return "", fmt.Errorf("unknown action %q (expected search, chat or none)", s)
}

// UIActionState is a snapshot of the process-wide UI store.
type UIActionState struct {
	Action      UIAction `json:"action"`
	SearchQuery string   `json:"search_query"`
	IsLoading   bool     `json:"is_loading"`
}
