package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// File is one file part of a multipart payload.
type File struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Multipart is a form payload. The client never sets a JSON content type
// for it; the boundary header comes from the multipart writer.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range m.Files {
		if f.Content == nil {
			return nil, "", fmt.Errorf("file %s has no content", f.Filename)
		}
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
