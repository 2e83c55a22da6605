// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package framing

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

// reference splits the whole stream on newlines, trimmed, empty dropped.
func reference(stream string) []string {
	var out []string
	for _, part := range strings.Split(stream, "\n") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func feedAll(chunks [][]byte) []string {
	f := NewFramer()
	var out []string
	for _, c := range chunks {
		out = append(out, f.Feed(c)...)
	}
	return append(out, f.Finish()...)
}

// chunkEvery cuts b into pieces of at most n bytes.
func chunkEvery(b []byte, n int) [][]byte {
	var chunks [][]byte
	for len(b) > 0 {
		k := n
		if k > len(b) {
			k = len(b)
		}
		chunks = append(chunks, b[:k])
		b = b[k:]
	}
	return chunks
}

// slowReader hands out at most n bytes per Read.
type slowReader struct {
	data []byte
	n    int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	k := r.n
	if k > len(p) {
		k = len(p)
	}
	if k > len(r.data) {
		k = len(r.data)
	}
	copy(p, r.data[:k])
	r.data = r.data[k:]
	return k, nil
}

// =============================================================================
// FRAMER TESTS
// =============================================================================

func TestFramer_Feed(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{"single line", []string{"{\"a\":1}\n"}, []string{`{"a":1}`}},
		{"line split in two", []string{`{"status":"emb`, "edding\"}\n"}, []string{`{"status":"embedding"}`}},
		{"two lines one chunk", []string{"a\nb\n"}, []string{"a", "b"}},
		{"blank lines skipped", []string{"\n\n  \na\n\n"}, []string{"a"}},
		{"no trailing newline", []string{"a\nb"}, []string{"a", "b"}},
		{"crlf trimmed", []string{"a\r\n", "b\r\n"}, []string{"a", "b"}},
		{"empty chunks", []string{"", "a", "", "\n"}, []string{"a"}},
		{"nothing", nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks := make([][]byte, len(tc.chunks))
			for i, c := range tc.chunks {
				chunks[i] = []byte(c)
			}
			got := feedAll(chunks)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFramer_ChunkSplitProperty(t *testing.T) {
	streams := []string{
		"{\"status\":\"loading\"}\n{\"status\":\"embedding\",\"progress\":40}\n{\"status\":\"completed\"}\n",
		"héllo wörld\n日本語のテキスト\n\n  emoji 🎉 line  \ntail-without-newline",
		"\n\n\n",
		"x",
	}

	for _, stream := range streams {
		want := reference(stream)
		for size := 1; size <= len(stream)+1; size++ {
			got := feedAll(chunkEvery([]byte(stream), size))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("chunk size %d: lines mismatch (-want +got):\n%s", size, diff)
			}
		}
	}
}

func TestFramer_MultibyteAcrossChunks(t *testing.T) {
	data := []byte("résumé\n")
	// Cut between the two bytes of 'é'.
	got := feedAll([][]byte{data[:2], data[2:]})
	assert.Equal(t, []string{"résumé"}, got)
}

func TestFramer_FinishResets(t *testing.T) {
	f := NewFramer()
	assert.Empty(t, f.Feed([]byte("partial")))
	assert.Equal(t, len("partial"), f.Pending())

	assert.Equal(t, []string{"partial"}, f.Finish())
	assert.Equal(t, 0, f.Pending())
	assert.Nil(t, f.Finish())
}

// =============================================================================
// DECODE TESTS
// =============================================================================

func TestDecode(t *testing.T) {
	var v struct {
		Status string `json:"status"`
	}
	require.NoError(t, Decode(`{"status":"saving"}`, &v))
	assert.Equal(t, "saving", v.Status)

	err := Decode(`{"status":`, &v)
	require.Error(t, err)
	assert.True(t, IsFramingError(err))

	var fe *FramingError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, `{"status":`, fe.Line)
}

// =============================================================================
// SCAN TESTS
// =============================================================================

func TestScan(t *testing.T) {
	stream := "one\ntwo\nthr" + "ee\n\nfour"
	r := &slowReader{data: []byte(stream), n: 3}

	var got []string
	err := Scan(context.Background(), r, func(line string) error {
		got = append(got, line)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestScan_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	r := strings.NewReader("a\nb\nc\n")

	var got []string
	err := Scan(context.Background(), r, func(line string) error {
		got = append(got, line)
		if line == "b" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Scan(ctx, strings.NewReader("a\n"), func(string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestScan_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("a\npart"), &errReader{err: boom})

	var got []string
	err := Scan(context.Background(), r, func(line string) error {
		got = append(got, line)
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, got)
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
