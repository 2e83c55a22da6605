// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends a chat request and returns the raw reply body.
// The body is plain text; it may end with the metrics footer. The caller must
// close it. Cancelling ctx aborts the transfer and makes pending reads fail.
func (c *Client) ChatStream(ctx context.Context, chatReq ChatRequest) (io.ReadCloser, error) {
	chatReq.Stream = true
	if chatReq.Messages == nil {
		chatReq.Messages = []Message{}
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(c.streamClient, req, "chat request")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// =============================================================================
// STREAMING UPLOAD
// =============================================================================

// Upload posts files as one multipart request and returns the progress
// stream (newline-delimited JSON). The caller must close it.
//
// The multipart body is produced on the fly through a pipe so large files
// are never held in memory.
func (c *Client) Upload(ctx context.Context, up UploadRequest) (io.ReadCloser, error) {
	if len(up.Files) == 0 {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "no files to upload"}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		pw.CloseWithError(writeUploadForm(mw, up))
	}()

	resp, err := c.send(c.streamClient, req, "upload")
	if err != nil {
		pr.Close()
		return nil, err
	}
	return resp.Body, nil
}

func writeUploadForm(mw *multipart.Writer, up UploadRequest) error {
	if err := mw.WriteField("collection_name", up.Collection); err != nil {
		return err
	}
	if err := mw.WriteField("summarize", strconv.FormatBool(up.Summarize)); err != nil {
		return err
	}
	for _, f := range up.Files {
		if err := writeFilePart(mw, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, f UploadFile) error {
	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}

	src := f.Content
	if src == nil {
		file, err := os.Open(f.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Path, err)
		}
		defer file.Close()
		src = file
	}

	part, err := mw.CreateFormFile("files", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
