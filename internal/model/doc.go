// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: one chat message with role, content and a local-only annotation
//   - Role: message role enumeration (user, assistant)
//   - Transcript: ordered, append-only message list of the open conversation
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.NewUserMessage("What does the report say about Q3?"))
//	req := api.ChatRequest{Messages: t.APIMessages()}
package model
