// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for docchat terminal output.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - assistant replies and selections
  - Cyan - user turns, commands, info
  - Emerald - completed uploads and summaries
  - Amber - in-progress work, interrupted replies
  - Rose - errors

# Theme System (theme.go)

	theme := styles.NewTheme()
	fmt.Println(theme.Footer.Render("Time: 1.2s"))

NewTheme detects the color profile with termenv. NoColor yields plain
styles, so output piped to a file carries no escape sequences.

# Progress (progress.go)

RenderProgressBar draws an ASCII bar for upload and summary progress.
SpinnerFrames is used for the waiting indicator while a reply has not
produced its first chunk.
*/
package styles
