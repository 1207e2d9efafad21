package tui

import (
	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/importer"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
)

type View int

const (
	ViewBrowse View = iota
	ViewReader
	ViewSearch
	ViewCompose
	ViewImport
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewBrowse:
		return "browse"
	case ViewReader:
		return "reader"
	case ViewSearch:
		return "search"
	case ViewCompose:
		return "compose"
	case ViewImport:
		return "import"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Messages sent by Bridge on behalf of the orchestrator.
type (
	enabledMsg struct{ enabled bool }
	mirrorMsg  struct{ criteria criteria.Criteria }
	resultsMsg struct {
		snap navigation.Snapshot
		page *search.ResultPage
	}
	noticeMsg struct{ notice navigation.Notice }
	errorMsg  struct{ err error }
)

type statusMsg struct {
	text string
	kind StatusKind
}

type messageRenderedMsg struct {
	msg     *storage.Message
	content string
}

type composedMsg struct {
	action navigation.Action
	msg    *storage.Message
	err    error
}

type importedMsg struct {
	result *importer.Result
	err    error
}

type refreshedMsg struct {
	results []*importer.Result
	err     error
}
