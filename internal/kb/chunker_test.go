package kb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitWords_ChunkCount(t *testing.T) {
	tests := []struct {
		words     int
		chunkSize int
		overlap   int
	}{
		{250, 100, 20},
		{100, 100, 20},
		{101, 100, 20},
		{1, 100, 20},
		{5, 2, 1},
		{99, 10, 0},
		{1000, 64, 16},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.words, tt.chunkSize, tt.overlap), func(t *testing.T) {
			chunks, err := SplitWords(genWords(tt.words), tt.chunkSize, tt.overlap)
			require.NoError(t, err)

			step := tt.chunkSize - tt.overlap
			numerator := tt.words - tt.overlap
			if numerator < 1 {
				numerator = 1
			}
			want := (numerator + step - 1) / step
			assert.Len(t, chunks, want)
		})
	}
}

func TestSplitWords_OverlapRepeats(t *testing.T) {
	const chunkSize, overlap = 10, 4
	chunks, err := SplitWords(genWords(47), chunkSize, overlap)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		assert.Equal(t, prev[len(prev)-overlap:], cur[:overlap],
			"chunk %d should start with the last %d words of chunk %d", i, overlap, i-1)
	}
}

// A 250-word document with chunk size 100 and overlap 20 yields windows
// at word offsets 0, 80 and 160, the last one 90 words long.
func TestSplitWords_Offsets(t *testing.T) {
	chunks, err := SplitWords(genWords(250), 100, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "w0", strings.Fields(chunks[0])[0])
	assert.Equal(t, "w80", strings.Fields(chunks[1])[0])
	assert.Equal(t, "w160", strings.Fields(chunks[2])[0])
	assert.Len(t, strings.Fields(chunks[0]), 100)
	assert.Len(t, strings.Fields(chunks[2]), 90)
}

func TestSplitWords_Reconstruction(t *testing.T) {
	const chunkSize, overlap = 7, 3
	text := genWords(33)
	chunks, err := SplitWords(text, chunkSize, overlap)
	require.NoError(t, err)

	// Dropping the repeated overlap from every chunk after the first
	// reproduces the source word sequence.
	words := strings.Fields(chunks[0])
	for _, chunk := range chunks[1:] {
		words = append(words, strings.Fields(chunk)[overlap:]...)
	}
	assert.Equal(t, strings.Fields(text), words)
}

func TestSplitWords_InvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk size", 10, 10},
		{"overlap exceeds chunk size", 10, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitWords("some text here", tt.chunkSize, tt.overlap)
			assert.ErrorIs(t, err, ErrInvalidChunking)
		})
	}
}

func TestSplitWords_EmptyText(t *testing.T) {
	chunks, err := SplitWords("   \n\t ", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
