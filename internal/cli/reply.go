// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/render"
)

// replyPrinter writes one assistant reply to a terminal or pipe.
//
// In streaming mode the new suffix of every update is written as it
// arrives, and the footer, note or error follows once the reply ends. In
// rendered mode nothing is written until the reply ends; the whole body is
// then passed through the renderer and printed in one piece.
type replyPrinter struct {
	w        io.Writer
	format   *render.Formatter
	renderer chat.Renderer
	stream   bool

	// showErrors prints a failed reply's error after the body
	showErrors bool

	printed string
	last    chat.Update
}

func newReplyPrinter(w io.Writer, format *render.Formatter, renderer chat.Renderer, stream bool) *replyPrinter {
	return &replyPrinter{w: w, format: format, renderer: renderer, stream: stream, showErrors: true}
}

// Update is passed to the session as its update callback.
func (p *replyPrinter) Update(u chat.Update) {
	p.last = u
	if p.stream {
		p.streamUpdate(u)
		return
	}
	if !u.Status.IsTerminal() {
		return
	}
	if p.renderer != nil && u.Text != "" {
		u.Body = p.renderer.Render(u.Text)
	}
	if !p.showErrors {
		u.Err = nil
	}
	if out := p.format.Reply(u); out != "" {
		fmt.Fprintln(p.w, out)
	}
}

func (p *replyPrinter) streamUpdate(u chat.Update) {
	// Active texts only grow. The terminal text may be trimmed, in which
	// case nothing new is written.
	if strings.HasPrefix(u.Text, p.printed) && len(u.Text) > len(p.printed) {
		fmt.Fprint(p.w, u.Text[len(p.printed):])
		p.printed = u.Text
	}
	if !u.Status.IsTerminal() {
		return
	}
	if p.printed != "" {
		fmt.Fprintln(p.w)
	}
	if !p.showErrors {
		u.Err = nil
	}
	if tail := p.format.Tail(u); tail != "" {
		if p.printed != "" {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintln(p.w, tail)
	}
}

// Last returns the most recent update.
func (p *replyPrinter) Last() chat.Update {
	return p.last
}
