// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the document chat server.
//
// The server exposes a small JSON API plus two streaming endpoints: chat
// replies arrive as raw text and upload progress arrives as newline-delimited
// JSON. Streaming methods hand back the response body so callers can consume
// it incrementally and cancel mid-stream; everything else decodes into the
// types in types.go.
//
// # Key Types
//
//   - Client: rate-limited HTTP client for every server endpoint
//   - ClientError: typed error with ErrorType and optional HTTP status
//   - ChatRequest / Message: chat payload
//   - UploadRequest / UploadFile: multipart upload payload
//   - Notification: background task notification
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: url})
//	body, err := client.ChatStream(ctx, api.ChatRequest{Messages: msgs})
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
package api
