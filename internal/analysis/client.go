// Package analysis is the HTTP client for a remote analysis engine. It
// uploads the selected file as the sole request body content to a fixed
// endpoint and decodes the returned AnalysisResult.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"edadash/internal"
	"edadash/internal/errors"
	"edadash/models"
)

// ErrBusy is returned while a prior upload is still in flight. The caller
// surfaces it as a notice; no second request is issued.
var ErrBusy = errors.New(errors.CodeUploadBusy, "an upload is already in progress")

// Client talks to the remote analysis engine.
//
// At most one upload is in flight at a time: the gate is acquired before
// the request is issued and released on every exit path, so the triggering
// control is always re-enabled, failure included. Every request carries an
// explicit timeout so a stalled engine cannot hold the gate forever.
type Client struct {
	endpoint string
	http     *http.Client
	gate     chan struct{}
	log      *internal.Logger
}

// NewClient creates a client for the engine at endpoint. timeout bounds the
// whole upload round trip.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		gate:     make(chan struct{}, 1),
		log:      internal.DefaultLogger,
	}
}

// Analyze sends the file and returns the decoded analysis result. The
// response error field is checked before any other field is read.
func (c *Client) Analyze(ctx context.Context, filename string, file io.Reader) (*models.AnalysisResult, error) {
	select {
	case c.gate <- struct{}{}:
	default:
		return nil, ErrBusy
	}
	defer func() { <-c.gate }()

	body, contentType, err := encodeUpload(filename, file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WithCode(errors.CodeTransportError, fmt.Errorf("engine request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithCode(errors.CodeTransportError, fmt.Errorf("failed to read engine response: %w", err))
	}
	c.log.Debug("engine responded %d in %s (%d bytes)", resp.StatusCode, time.Since(start), len(data))

	if resp.StatusCode != http.StatusOK {
		// The engine reports failures in-band where it can.
		if _, derr := models.DecodeResult(data); derr != nil {
			return nil, errors.WithCode(errors.CodeTransportError, derr)
		}
		return nil, errors.New(errors.CodeTransportError, fmt.Sprintf("engine returned status %d", resp.StatusCode))
	}

	result, err := models.DecodeResult(data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// encodeUpload builds the multipart body: the file is the only part.
func encodeUpload(filename string, file io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to encode upload")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode upload")
	}
	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode upload")
	}
	return &buf, writer.FormDataContentType(), nil
}
