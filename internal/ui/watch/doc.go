// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch is the full-screen notification view behind
// "docchat notifications watch".
//
// The model only renders. Snapshots arrive as SnapshotMsg values sent by the
// poller's change callback, and key presses call back into the poller
// through the Notifier interface.
//
//	var prog *tea.Program
//	poller := notify.NewPoller(notify.Options{
//	    Client:   client,
//	    OnChange: func(s notify.Snapshot) { prog.Send(watch.SnapshotMsg(s)) },
//	})
//	prog = watch.NewProgram(ctx, watch.New(poller, watch.Options{}))
package watch
