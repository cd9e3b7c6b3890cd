// Package storage lists, downloads and organizes statement documents.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/budgetrak/internal/apperr"
)

// DefaultMaxResults caps listings when the caller does not.
const DefaultMaxResults = 20

// File is a stored document.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mime_type,omitempty"`
	ModifiedTime time.Time `json:"modified_time,omitempty"`
	Size         int64     `json:"size,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
	Link         string    `json:"link,omitempty"`
}

// Query narrows a listing. Zero values mean no constraint.
type Query struct {
	Name       string
	FolderID   string
	MaxResults int
}

// Limit returns MaxResults or the default when unset.
func (q Query) Limit() int {
	if q.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return q.MaxResults
}

// Source lists and downloads statement documents.
type Source interface {
	List(ctx context.Context, q Query) ([]File, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

// Organizer moves documents between folders.
type Organizer interface {
	Move(ctx context.Context, id, folderID string) (*File, error)
	CreateFolder(ctx context.Context, name, parentID string) (*File, error)
}

// Backend is a source that can also organize its files.
type Backend interface {
	Source
	Organizer
}

// IsGCSURI reports whether id names a Cloud Storage object.
func IsGCSURI(id string) bool {
	return strings.HasPrefix(id, "gs://")
}

// Router sends gs:// identifiers to Cloud Storage and everything else to
// Drive. Either side may be nil when it is not configured.
type Router struct {
	Drive Backend
	GCS   Source

	// DriveErr is why Drive is nil, usually missing consent. Drive calls
	// report it as an auth error.
	DriveErr error
}

// List lists Drive files.
func (r *Router) List(ctx context.Context, q Query) ([]File, error) {
	if r.Drive == nil {
		return nil, r.driveUnavailable("storage.List")
	}
	return r.Drive.List(ctx, q)
}

func (r *Router) Download(ctx context.Context, id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Invalidf("storage.Download", "file id is required")
	}
	if IsGCSURI(id) {
		if r.GCS == nil {
			return nil, apperr.Config("storage.Download", errNotConfigured("cloud storage"))
		}
		return r.GCS.Download(ctx, id)
	}
	if r.Drive == nil {
		return nil, r.driveUnavailable("storage.Download")
	}
	return r.Drive.Download(ctx, id)
}

// Move is only supported for Drive files.
func (r *Router) Move(ctx context.Context, id, folderID string) (*File, error) {
	if IsGCSURI(id) {
		return nil, apperr.Invalidf("storage.Move", "cannot move %s: only Drive files can be moved", id)
	}
	if r.Drive == nil {
		return nil, r.driveUnavailable("storage.Move")
	}
	return r.Drive.Move(ctx, id, folderID)
}

func (r *Router) CreateFolder(ctx context.Context, name, parentID string) (*File, error) {
	if r.Drive == nil {
		return nil, r.driveUnavailable("storage.CreateFolder")
	}
	return r.Drive.CreateFolder(ctx, name, parentID)
}

func (r *Router) driveUnavailable(op string) error {
	if r.DriveErr != nil {
		return apperr.Auth(op, r.DriveErr)
	}
	return apperr.Config(op, errNotConfigured("drive"))
}

type errNotConfigured string

func (e errNotConfigured) Error() string { return string(e) + " backend is not configured" }
