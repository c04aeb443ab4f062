package backend

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"idconsole/internal/api"
	"idconsole/internal/services"
)

// ListJobs returns the jobs visible to the session.
func (c *Client) ListJobs(ctx context.Context) ([]api.Job, error) {
	var payload api.JobListResponse
	if err := c.doJSON(ctx, "list jobs", http.MethodGet, "/jobs", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Jobs, nil
}

// GetJob returns the full detail of one job.
func (c *Client) GetJob(ctx context.Context, id string) (*api.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, componentName, "get job", "job id is required", nil)
	}
	var job api.Job
	if err := c.doJSON(ctx, "get job", http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// UploadFile is one audio file submitted for identification.
type UploadFile struct {
	Name    string
	Content io.Reader
	Options api.UploadOptions
}

// Upload submits audio as multipart form data and returns the new job id.
func (c *Client) Upload(ctx context.Context, file UploadFile) (*api.UploadResponse, error) {
	if file.Content == nil {
		return nil, services.Wrap(services.ErrValidation, componentName, "upload", "file content is required", nil)
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(file.Name))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, componentName, "upload", "build form", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, services.Wrap(services.ErrValidation, componentName, "upload", "read file", err)
	}
	fields := []struct {
		name  string
		value bool
	}{
		{"secondary_provider", file.Options.SecondaryProvider},
		{"store_fingerprint", file.Options.StoreFingerprint},
		{"metadata_only", file.Options.MetadataOnly},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.name, strconv.FormatBool(field.value)); err != nil {
			return nil, services.Wrap(services.ErrValidation, componentName, "upload", "build form", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, services.Wrap(services.ErrValidation, componentName, "upload", "build form", err)
	}

	var payload api.UploadResponse
	err = c.do(ctx, "upload", request{
		method:      http.MethodPost,
		path:        "/identify/upload",
		body:        &body,
		contentType: writer.FormDataContentType(),
		timeout:     c.uploadTimeout,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return &payload, nil
}
