// Package persist routes wizard snapshots and documents to the backend that
// matches the caller's authentication state.
package persist

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"willvault/api/internal/will"
)

var (
	// ErrNoOwner is returned for document operations without a signed-in owner.
	ErrNoOwner = errors.New("document owner required")
	// ErrUnavailable means no backend is configured for the operation.
	ErrUnavailable = errors.New("persistence backend unavailable")
)

// SnapshotStore keeps session snapshots keyed by session id. Load reports a
// missing snapshot as ok=false with a nil error.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, snap will.Snapshot, ownerID string) error
	LoadSnapshot(ctx context.Context, sessionID string) (will.Snapshot, bool, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

// DocumentStore keeps one will document per owner.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc will.Document, ownerID string) (will.Document, error)
	LoadDocument(ctx context.Context, ownerID string) (will.Document, bool, error)
}

// Identity is the auth state used to pick a backend.
type Identity struct {
	Authenticated bool
	UserID        string
}

func (id Identity) signedIn() bool {
	return id.Authenticated && id.UserID != ""
}

type Gateway struct {
	remote    SnapshotStore
	local     SnapshotStore
	documents DocumentStore
	logger    *zap.Logger
}

// NewGateway wires the backends. Any of them may be nil; a nil logger is
// replaced by a no-op one.
func NewGateway(remote, local SnapshotStore, documents DocumentStore, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{remote: remote, local: local, documents: documents, logger: logger}
}

// order returns the preferred snapshot backend first.
func (g *Gateway) order(id Identity) (primary, secondary SnapshotStore, primaryName, secondaryName string) {
	if id.signedIn() && g.remote != nil {
		return g.remote, g.local, "remote", "local"
	}
	if g.local != nil {
		return g.local, g.remote, "local", "remote"
	}
	return g.remote, nil, "remote", ""
}

// SaveSnapshot stamps the owner on signed-in snapshots. Once a signed-in
// snapshot lands remotely the anonymous local copy is dropped, so the session
// can no longer be resumed without the account.
func (g *Gateway) SaveSnapshot(ctx context.Context, sessionID string, snap will.Snapshot, id Identity) error {
	primary, secondary, pName, sName := g.order(id)
	if primary == nil {
		return ErrUnavailable
	}
	snap.UserID = ""
	if id.signedIn() {
		snap.UserID = id.UserID
	}
	err := primary.SaveSnapshot(ctx, sessionID, snap, id.UserID)
	if err == nil {
		if id.signedIn() && pName == "remote" && secondary != nil {
			if derr := secondary.DeleteSnapshot(ctx, sessionID); derr != nil {
				g.logger.Warn("anonymous snapshot not purged", zap.String("session_id", sessionID), zap.Error(derr))
			}
		}
		return nil
	}
	if secondary == nil {
		return fmt.Errorf("save snapshot (%s): %w", pName, err)
	}
	g.logger.Warn("snapshot save failed, falling back",
		zap.String("session_id", sessionID),
		zap.String("backend", pName),
		zap.String("fallback", sName),
		zap.Error(err),
	)
	if ferr := secondary.SaveSnapshot(ctx, sessionID, snap, id.UserID); ferr != nil {
		return errors.Join(
			fmt.Errorf("save snapshot (%s): %w", pName, err),
			fmt.Errorf("save snapshot (%s): %w", sName, ferr),
		)
	}
	return nil
}

// LoadSnapshot reads from the preferred backend. The other backend is
// consulted when the preferred one fails or has nothing, which also lets a
// session started anonymously resume after sign-in. The returned snapshot's
// UserID names its owner; callers must not hand it to anyone else.
func (g *Gateway) LoadSnapshot(ctx context.Context, sessionID string, id Identity) (will.Snapshot, bool, error) {
	primary, secondary, pName, sName := g.order(id)
	if primary == nil {
		return will.Snapshot{}, false, ErrUnavailable
	}
	snap, ok, err := primary.LoadSnapshot(ctx, sessionID)
	if err == nil && ok {
		return snap, true, nil
	}
	if err != nil {
		g.logger.Warn("snapshot load failed, trying fallback",
			zap.String("session_id", sessionID),
			zap.String("backend", pName),
			zap.Error(err),
		)
	}
	if secondary == nil {
		if err != nil {
			return will.Snapshot{}, false, fmt.Errorf("load snapshot (%s): %w", pName, err)
		}
		return will.Snapshot{}, false, nil
	}
	snap, ok, ferr := secondary.LoadSnapshot(ctx, sessionID)
	if ferr != nil {
		if err != nil {
			return will.Snapshot{}, false, errors.Join(
				fmt.Errorf("load snapshot (%s): %w", pName, err),
				fmt.Errorf("load snapshot (%s): %w", sName, ferr),
			)
		}
		// the preferred backend answered "not found"; that answer stands
		g.logger.Debug("fallback snapshot load failed", zap.String("backend", sName), zap.Error(ferr))
		return will.Snapshot{}, false, nil
	}
	return snap, ok, nil
}

// DeleteSnapshot purges the snapshot from every configured backend.
func (g *Gateway) DeleteSnapshot(ctx context.Context, sessionID string) error {
	var errs []error
	if g.remote != nil {
		if err := g.remote.DeleteSnapshot(ctx, sessionID); err != nil {
			errs = append(errs, fmt.Errorf("delete snapshot (remote): %w", err))
		}
	}
	if g.local != nil {
		if err := g.local.DeleteSnapshot(ctx, sessionID); err != nil {
			errs = append(errs, fmt.Errorf("delete snapshot (local): %w", err))
		}
	}
	return errors.Join(errs...)
}

func (g *Gateway) SaveDocument(ctx context.Context, doc will.Document, id Identity) (will.Document, error) {
	if !id.signedIn() {
		return will.Document{}, ErrNoOwner
	}
	if g.documents == nil {
		return will.Document{}, ErrUnavailable
	}
	saved, err := g.documents.SaveDocument(ctx, doc, id.UserID)
	if err != nil {
		return will.Document{}, fmt.Errorf("save document: %w", err)
	}
	return saved, nil
}

func (g *Gateway) LoadDocument(ctx context.Context, id Identity) (will.Document, bool, error) {
	if !id.signedIn() {
		return will.Document{}, false, ErrNoOwner
	}
	if g.documents == nil {
		return will.Document{}, false, ErrUnavailable
	}
	doc, ok, err := g.documents.LoadDocument(ctx, id.UserID)
	if err != nil {
		return will.Document{}, false, fmt.Errorf("load document: %w", err)
	}
	return doc, ok, nil
}
