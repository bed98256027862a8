package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortMessage(t *testing.T) {
	chunks := SplitMessage("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitMessageExactLimit(t *testing.T) {
	content := strings.Repeat("a", MaxMessageLength)
	chunks := SplitMessage(content)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0])
}

func TestSplitMessageEmpty(t *testing.T) {
	chunks := SplitMessage("")
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0])
}

func TestSplitMessagePrefersNewlineBoundaries(t *testing.T) {
	lineA := strings.Repeat("a", 1500)
	lineB := strings.Repeat("b", 1500)
	content := lineA + "\n" + lineB

	chunks := SplitMessage(content)

	require.Len(t, chunks, 2)
	assert.Equal(t, lineA, chunks[0])
	assert.Equal(t, lineB, chunks[1])
}

func TestSplitMessageWordyContentPreserved(t *testing.T) {
	// Build a ~4500 char message out of normal words and verify every
	// chunk respects the limit and the full text survives reassembly.
	var sb strings.Builder
	for sb.Len() < 4500 {
		sb.WriteString("the quick brown fox jumps over the lazy dog ")
	}
	content := strings.TrimSpace(sb.String())

	chunks := SplitMessage(content)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), MaxMessageLength, "chunk %d over limit", i)
		assert.NotEmpty(t, chunk)
	}

	reassembled := strings.Join(chunks, " ")
	assert.Equal(t,
		strings.Fields(content),
		strings.Fields(reassembled),
		"no words lost or reordered across chunks")
}

func TestSplitMessageOversizedSingleWord(t *testing.T) {
	content := strings.Repeat("x", MaxMessageLength+500)

	chunks := SplitMessage(content)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), MaxMessageLength, "chunk %d over limit", i)
	}
}

func TestSplitMessageManyLines(t *testing.T) {
	line := strings.Repeat("z", 600)
	content := strings.Join([]string{line, line, line, line, line}, "\n")

	chunks := SplitMessage(content)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), MaxMessageLength)
	}
	// Lines are only regrouped, never altered.
	var got []string
	for _, chunk := range chunks {
		got = append(got, strings.Split(chunk, "\n")...)
	}
	assert.Equal(t, []string{line, line, line, line, line}, got)
}
