// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of the open conversation.
//
// A Manager is the one place that knows the current server session id, the
// transcript, the active chat stream, the selected collection and the files
// staged for upload. It is created when the client starts, replaced in place
// by Load and NewChat, and disposed with Close.
//
// # Key Types
//
//   - Manager: conversation context object
//   - Config: collection, renderer and upload settings
//
// # Usage
//
//	mgr := session.NewManager(client, session.Config{Collection: "reports"})
//	defer mgr.Close()
//
//	s, err := mgr.Send(ctx, "What changed in Q3?", view.Update)
//	if errors.Is(err, session.ErrBusy) {
//	    // a reply is still streaming
//	}
//	res := s.Wait()
package session
