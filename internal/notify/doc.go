// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify mirrors the server's notification list and polls it while
// background tasks are running.
//
// The Poller keeps a local copy of the notifications. Every Refresh replaces
// the copy wholesale and reconciles the poll timer: a timer runs exactly when
// at least one notification is still processing. Reconciliation is
// idempotent, so there is never more than one timer.
//
// Marking a notification read is optimistic: the local copy changes first and
// the acknowledgement is sent afterwards. A failed acknowledgement is logged
// and the local state is kept; the next refresh brings the server's view back.
//
// # Usage
//
//	p := notify.NewPoller(notify.Options{
//	    Client:   client,
//	    OnChange: func(s notify.Snapshot) { badge.Set(s.Unread) },
//	})
//	defer p.Close()
//	_ = p.Refresh(ctx)
package notify
