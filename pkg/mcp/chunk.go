package mcp

import (
	"strings"
)

// MaxMessageLength is Discord's per-message content limit.
const MaxMessageLength = 2000

// SplitMessage splits outgoing content into chunks of at most
// MaxMessageLength characters: newline boundaries first, then word
// boundaries within an over-long line. A single word that still exceeds
// the limit is truncated. Content within the limit is returned unchanged
// as one chunk.
func SplitMessage(content string) []string {
	if len(content) <= MaxMessageLength {
		return []string{content}
	}

	var chunks []string
	current := ""

	for _, line := range strings.Split(content, "\n") {
		if len(line) > MaxMessageLength {
			currentLine := ""
			for _, word := range strings.Split(line, " ") {
				if len(currentLine)+1+len(word) <= MaxMessageLength {
					if currentLine == "" {
						currentLine = word
					} else {
						currentLine += " " + word
					}
					continue
				}
				// A single word over the limit is truncated.
				if len(word) > MaxMessageLength {
					word = word[:MaxMessageLength]
				}
				if currentLine != "" {
					chunks, current = appendPiece(chunks, current, currentLine)
				}
				currentLine = word
			}
			if currentLine != "" {
				chunks, current = appendPiece(chunks, current, currentLine)
			}
			continue
		}

		chunks, current = appendPiece(chunks, current, line)
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// appendPiece joins a piece onto the chunk under construction with a
// newline, flushing the chunk first when the piece no longer fits.
func appendPiece(chunks []string, current, piece string) ([]string, string) {
	if current == "" {
		return chunks, piece
	}
	if len(current)+1+len(piece) <= MaxMessageLength {
		return chunks, current + "\n" + piece
	}
	return append(chunks, current), piece
}
