package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/fora/internal/navigation"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading      = "Loading…"
	MsgImporting    = "Importing feed…"
	MsgRefreshing   = "Refreshing feeds…"
	MsgSaving       = "Saving…"
	MsgNoHistory    = "No further history"
	MsgNothingToAdd = "Nothing can be created here"
	MsgNotImported  = "This message has no source link"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgImported(topic string, added int) string {
	return fmt.Sprintf("Imported '%s' (%d new posts)", strings.TrimSpace(topic), added)
}

func MsgRefreshSummary(topics, added, errors int) string {
	base := fmt.Sprintf("Refreshed: %d topics • %d posts", topics, added)
	if errors > 0 {
		base += fmt.Sprintf(" • %d errors", errors)
	}
	return base
}

// MsgCreated names what a compose form just saved.
func MsgCreated(action navigation.Action) string {
	switch action {
	case navigation.ActionNewSection:
		return "Section created"
	case navigation.ActionNewTopic:
		return "Topic created"
	default:
		return "Reply posted"
	}
}
