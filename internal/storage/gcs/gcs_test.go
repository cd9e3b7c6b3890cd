package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/storage"
	"google.golang.org/api/option"
)

// fakeBucket serves the JSON listing, XML media reads and multipart
// uploads the storage client issues for a single bucket.
type fakeBucket struct {
	name     string
	objects  map[string][]byte
	listed   string
	uploaded []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/"+b.name+"/o"):
		body, _ := io.ReadAll(r.Body)
		b.uploaded = append(b.uploaded, string(body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"bucket":%q,"name":"uploaded.pdf","size":"%d"}`, b.name, len(body))
	case r.Method == http.MethodGet && r.URL.Path == "/storage/v1/b/"+b.name+"/o":
		b.listed = r.URL.Query().Get("prefix")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"kind":"storage#objects","items":[
			{"bucket":%[1]q,"name":"2024/jan.pdf","contentType":"application/pdf","size":"3","updated":"2024-02-01T10:00:00Z"},
			{"bucket":%[1]q,"name":"2024/notes.txt","contentType":"text/plain","size":"5","updated":"2024-04-01T10:00:00Z"},
			{"bucket":%[1]q,"name":"2024/mar.pdf","contentType":"application/pdf","size":"4","updated":"2024-04-01T10:00:00Z"}
		]}`, b.name)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/"+b.name+"/"):
		data, ok := b.objects[strings.TrimPrefix(r.URL.Path, "/"+b.name+"/")]
		if !ok {
			http.Error(w, "No such object", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(data)
	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, b *fakeBucket) *Client {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), b.name,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Download(t *testing.T) {
	b := &fakeBucket{name: "statements", objects: map[string][]byte{"2024/jan.pdf": []byte("%PDF-1.4 jan")}}
	c := newTestClient(t, b)
	ctx := context.Background()

	data, err := c.Download(ctx, "gs://statements/2024/jan.pdf")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "%PDF-1.4 jan" {
		t.Errorf("Download = %q", data)
	}

	if _, err := c.Download(ctx, "gs://statements/2024/missing.pdf"); !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("Download missing: got %v, want storage error", err)
	}
	if _, err := c.Download(ctx, "gs://statements"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Download bad uri: got %v, want invalid input", err)
	}
}

func TestClient_List(t *testing.T) {
	b := &fakeBucket{name: "statements"}
	c := newTestClient(t, b)

	files, err := c.List(context.Background(), storage.Query{FolderID: "2024/"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if b.listed != "2024/" {
		t.Errorf("prefix = %q, want 2024/", b.listed)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(files), files)
	}
	if files[0].ID != "gs://statements/2024/mar.pdf" || files[1].ID != "gs://statements/2024/jan.pdf" {
		t.Errorf("files not newest first: %s, %s", files[0].ID, files[1].ID)
	}
	if files[0].Name != "mar.pdf" || files[0].Size != 4 {
		t.Errorf("unexpected file: %+v", files[0])
	}
}

func TestClient_Upload(t *testing.T) {
	b := &fakeBucket{name: "statements"}
	c := newTestClient(t, b)

	path := filepath.Join(t.TempDir(), "uploaded.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 upload body"), 0o600); err != nil {
		t.Fatal(err)
	}

	uri, err := c.Upload(context.Background(), "", path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if uri != "gs://statements/uploaded.pdf" {
		t.Errorf("uri = %q", uri)
	}
	if len(b.uploaded) != 1 || !strings.Contains(b.uploaded[0], "%PDF-1.4 upload body") {
		t.Errorf("upload body not sent: %q", b.uploaded)
	}

	if _, err := c.Upload(context.Background(), "", filepath.Join(t.TempDir(), "absent.pdf")); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Upload missing file: got %v, want invalid input", err)
	}
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/statements/march.pdf", "bucket", "statements/march.pdf", false},
		{"gs://bucket/a.pdf", "bucket", "a.pdf", false},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"s3://bucket/a.pdf", "", "", true},
		{"1AbCdEf", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI(%q) = %q, %q", tt.uri, bucket, object)
			}
		})
	}
}

func TestMatchObject(t *testing.T) {
	updated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	attrs := &gcstorage.ObjectAttrs{
		Bucket:      "b",
		Name:        "2024/Chase-March.PDF",
		ContentType: "application/pdf",
		Size:        10,
		Updated:     updated,
	}

	f, ok := matchObject(attrs, storage.Query{Name: "chase"})
	if !ok {
		t.Fatal("expected match")
	}
	if f.ID != "gs://b/2024/Chase-March.PDF" || f.Name != "Chase-March.PDF" || !f.ModifiedTime.Equal(updated) {
		t.Errorf("unexpected file: %+v", f)
	}

	if _, ok := matchObject(attrs, storage.Query{Name: "amex"}); ok {
		t.Error("name filter should exclude object")
	}
	if _, ok := matchObject(&gcstorage.ObjectAttrs{Name: "notes.txt", ContentType: "text/plain"}, storage.Query{}); ok {
		t.Error("non-PDF object should be excluded")
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []storage.File{
		{ID: "old", ModifiedTime: base},
		{ID: "new", ModifiedTime: base.Add(48 * time.Hour)},
		{ID: "mid", ModifiedTime: base.Add(24 * time.Hour)},
	}
	sortNewestFirst(files)

	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if files[i].ID != id {
			t.Errorf("files[%d] = %s, want %s", i, files[i].ID, id)
		}
	}
}
