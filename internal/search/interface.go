package search

import (
	"context"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

// Executor runs one query. Implementations must be side-effect free and
// return the same page for identical criteria.
type Executor interface {
	Execute(ctx context.Context, c criteria.Criteria) (*ResultPage, error)
}

// UpdateListener can be implemented by executors that maintain an external
// index and want to be notified about data changes.
type UpdateListener interface {
	OnMessageSaved(msg *storage.Message)
}

// DeleteListener can be implemented to get notified when a message subtree
// is deleted.
type DeleteListener interface {
	OnMessageDeleted(id criteria.MessageID)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
