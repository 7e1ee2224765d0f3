package standing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for standing preferences and identity lists.
// The standing service keeps a write-through in-memory cache; the repository
// is only consulted at startup and on writes.
type Repository interface {
	LoadAll(ctx context.Context) ([]*Prefs, []*Entry, error)
	SavePrefs(ctx context.Context, prefs *Prefs) error
	AddEntry(ctx context.Context, entry *Entry) error
	RemoveEntry(ctx context.Context, owner, member uuid.UUID, kind ListKind) error
}
