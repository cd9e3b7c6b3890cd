package pipeline

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// detectMIMEType sniffs the document type from its first bytes.
// Parameters such as charset are dropped.
func detectMIMEType(document []byte) string {
	ct := http.DetectContentType(document)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

// isTextDocument reports whether the document can go in the prompt as text.
func isTextDocument(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/")
}

// DisplayName returns a short name for a source identifier.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func DisplayName(sourceID string) string {
	if strings.HasPrefix(sourceID, "gs://") {
		trimmed := strings.TrimPrefix(sourceID, "gs://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) < 2 {
			return trimmed
		}
		return path.Base(parts[1])
	}
	return path.Base(sourceID)
}
