package database

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrConflict      = errors.New("document revision is stale")
	ErrUnauthorized  = errors.New("document store rejected credentials")
	ErrNotConfigured = errors.New("document store is not configured")
)

// Document is a whole JSON file as held by the remote store. Revision is an
// opaque token that must be echoed back on the next write.
type Document struct {
	Content  []byte
	Revision string
}

// DocumentStore reads and rewrites whole documents by path.
//
// Put with an empty revision creates the document and fails with ErrConflict
// when it already exists. Put with a revision only succeeds if the stored
// revision still matches. The new revision is returned.
type DocumentStore interface {
	Get(ctx context.Context, path string) (*Document, error)
	Put(ctx context.Context, path string, content []byte, revision string, message string) (string, error)
}

// Unconfigured answers every call with ErrNotConfigured. It stands in when the
// real backend could not be opened so the public calendar keeps working.
type Unconfigured struct {
	Reason error
}

func (u Unconfigured) err() error {
	if u.Reason == nil {
		return ErrNotConfigured
	}
	return fmt.Errorf("%w: %v", ErrNotConfigured, u.Reason)
}

func (u Unconfigured) Get(context.Context, string) (*Document, error) {
	return nil, u.err()
}

func (u Unconfigured) Put(context.Context, string, []byte, string, string) (string, error) {
	return "", u.err()
}
