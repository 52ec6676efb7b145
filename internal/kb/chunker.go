package kb

import (
	"fmt"
	"strings"
)

// SplitWords splits text on whitespace into overlapping word windows.
// Each window holds chunkSize words and the next window starts
// chunkSize-overlap words after the previous one, so consecutive windows
// share overlap words. The final window may be shorter than chunkSize.
func SplitWords(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be greater than zero", ErrInvalidChunking)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be zero or greater", ErrInvalidChunking)
	}
	if overlap >= chunkSize {
		// A step of zero or less would never advance.
		return nil, fmt.Errorf("%w: overlap must be smaller than chunk size", ErrInvalidChunking)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
