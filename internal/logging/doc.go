// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by all docchat components.
//
// Components take a *zap.Logger in their options and fall back to a no-op
// logger, so only the command layer decides where logs go. By default they
// go to ~/.docchat/docchat.log to keep the chat screen clean.
package logging
