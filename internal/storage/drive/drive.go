// Package drive is the Google Drive storage backend.
package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/dvloznov/budgetrak/internal/storage"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	pdfMIMEType    = "application/pdf"
	folderMIMEType = "application/vnd.google-apps.folder"

	fileFields = "id, name, mimeType, modifiedTime, size, parents, webViewLink"
)

// Client wraps the Drive v3 API.
type Client struct {
	svc *gdrive.Service
}

var _ storage.Backend = (*Client)(nil)

// New creates a Drive client. Pass option.WithHTTPClient with an
// authorized client.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, apperr.Storage("drive.New", fmt.Errorf("create drive service: %w", err))
	}
	return &Client{svc: svc}, nil
}

// List returns PDF files that are not trashed, newest first.
func (c *Client) List(ctx context.Context, q storage.Query) ([]storage.File, error) {
	query := buildQuery(q)
	log := logger.FromContext(ctx)
	log.Debug().Str("query", query).Int("max_results", q.Limit()).Msg("Listing Drive files")

	res, err := c.svc.Files.List().
		Q(query).
		OrderBy("modifiedTime desc").
		PageSize(int64(q.Limit())).
		Fields("files(" + fileFields + ")").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.FromGoogle("drive.List", err)
	}

	files := make([]storage.File, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, toFile(f))
	}
	return files, nil
}

// Download returns the file content.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, apperr.FromGoogle("drive.Download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Storage("drive.Download", fmt.Errorf("download %s: unexpected status %s", id, resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Storage("drive.Download", fmt.Errorf("read %s: %w", id, err))
	}
	return data, nil
}

// Move puts the file in folderID and removes it from its previous parents.
func (c *Client) Move(ctx context.Context, id, folderID string) (*storage.File, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(folderID) == "" {
		return nil, apperr.Invalidf("drive.Move", "file id and folder id are required")
	}

	current, err := c.svc.Files.Get(id).Fields("parents").Context(ctx).Do()
	if err != nil {
		return nil, apperr.FromGoogle("drive.Move", err)
	}

	call := c.svc.Files.Update(id, &gdrive.File{}).AddParents(folderID)
	if len(current.Parents) > 0 {
		call = call.RemoveParents(strings.Join(current.Parents, ","))
	}
	updated, err := call.Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, apperr.FromGoogle("drive.Move", err)
	}

	f := toFile(updated)
	return &f, nil
}

// CreateFolder creates a folder, under parentID when it is set.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*storage.File, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Invalidf("drive.CreateFolder", "folder name is required")
	}

	meta := &gdrive.File{Name: name, MimeType: folderMIMEType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := c.svc.Files.Create(meta).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, apperr.FromGoogle("drive.CreateFolder", err)
	}

	f := toFile(created)
	return &f, nil
}

func buildQuery(q storage.Query) string {
	clauses := []string{
		fmt.Sprintf("mimeType = '%s'", pdfMIMEType),
		"trashed = false",
	}
	if q.Name != "" {
		clauses = append(clauses, fmt.Sprintf("name contains '%s'", escape(q.Name)))
	}
	if q.FolderID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", escape(q.FolderID)))
	}
	return strings.Join(clauses, " and ")
}

// escape quotes a value for a Drive query string literal.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func toFile(f *gdrive.File) storage.File {
	out := storage.File{
		ID:       f.Id,
		Name:     f.Name,
		MIMEType: f.MimeType,
		Size:     f.Size,
		Parents:  f.Parents,
		Link:     f.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedTime = t
	}
	return out
}
