package vector

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomLegalText(r *rand.Rand, lines int) string {
	words := []string{"Art.", "licitação", "contrato", "§", "inciso", "administração", "pública", "é", "vedado", "Lei", "14.133", "ção"}
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		n := 1 + r.Intn(25)
		for j := 0; j < n; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(words[r.Intn(len(words))])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func assertSegmentation(t *testing.T, text string, cfg ChunkConfig, chunks []Chunk) {
	t.Helper()
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), cfg.ChunkSize, "chunk %d too long", i)

		runes := []rune(c.Content)
		if i == 0 {
			rebuilt.WriteString(c.Content)
			continue
		}
		prev := []rune(chunks[i-1].Content)
		require.GreaterOrEqual(t, len(prev), cfg.ChunkOverlap)
		require.Greater(t, len(runes), cfg.ChunkOverlap, "chunk %d adds no new content", i)
		assert.Equal(t, string(prev[len(prev)-cfg.ChunkOverlap:]), string(runes[:cfg.ChunkOverlap]),
			"chunks %d and %d must share exactly the overlap", i-1, i)
		rebuilt.WriteString(string(runes[cfg.ChunkOverlap:]))
	}
	assert.Equal(t, text, rebuilt.String(), "union of chunks must cover the text")
}

func TestChunkDocument_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	configs := []ChunkConfig{
		{ChunkSize: 1250, ChunkOverlap: 100, Separator: "\n"},
		{ChunkSize: 80, ChunkOverlap: 10, Separator: "\n"},
		{ChunkSize: 50, ChunkOverlap: 0, Separator: "\n"},
		{ChunkSize: 30, ChunkOverlap: 29, Separator: "\n"},
		{ChunkSize: 64, ChunkOverlap: 16, Separator: ""},
	}

	for _, cfg := range configs {
		for i := 0; i < 20; i++ {
			text := randomLegalText(r, 1+r.Intn(60))
			chunks, err := ChunkDocument(text, cfg)
			require.NoError(t, err)
			assertSegmentation(t, text, cfg, chunks)
		}
	}
}

func TestChunkDocument_PrefersNewlineBoundaries(t *testing.T) {
	text := "Art. 1º Esta Lei estabelece normas gerais.\nArt. 2º Esta Lei aplica-se a alienação.\nArt. 3º Não se subordinam ao regime desta Lei.\n"
	cfg := ChunkConfig{ChunkSize: 60, ChunkOverlap: 5, Separator: "\n"}

	chunks, err := ChunkDocument(text, cfg)
	require.NoError(t, err)
	assertSegmentation(t, text, cfg, chunks)

	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c.Content, "\n"), "chunk %q should end at a line break", c.Content)
	}
}

func TestChunkDocument_LongLineIsCutHard(t *testing.T) {
	text := strings.Repeat("x", 95)
	cfg := ChunkConfig{ChunkSize: 40, ChunkOverlap: 10, Separator: "\n"}

	chunks, err := ChunkDocument(text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 40)
	assert.Len(t, chunks[1].Content, 40)
	assert.Len(t, chunks[2].Content, 35)
	assertSegmentation(t, text, cfg, chunks)
}

func TestChunkDocument_ShortAndEmpty(t *testing.T) {
	cfg := ChunkConfig{ChunkSize: 100, ChunkOverlap: 10, Separator: "\n"}

	chunks, err := ChunkDocument("Lei nº 14.133", cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Lei nº 14.133", chunks[0].Content)

	chunks, err = ChunkDocument("  \n\t ", cfg)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkDocument_InvalidConfig(t *testing.T) {
	for _, cfg := range []ChunkConfig{
		{ChunkSize: 10, ChunkOverlap: 10},
		{ChunkSize: 10, ChunkOverlap: 11},
		{ChunkSize: 10, ChunkOverlap: -1},
		{ChunkSize: 0, ChunkOverlap: 0},
	} {
		_, err := ChunkDocument("some text", cfg)
		assert.ErrorIs(t, err, ErrInvalidChunkConfig)
	}
}

func TestSplitter_Transform(t *testing.T) {
	s, err := NewSplitter(ChunkConfig{ChunkSize: 20, ChunkOverlap: 4, Separator: "\n"})
	require.NoError(t, err)

	src := []*schema.Document{{
		ID:       "lei",
		Content:  "linha um\nlinha dois\nlinha três\n",
		MetaData: map[string]any{MetaSource: "L14133.pdf"},
	}}

	out, err := s.Transform(context.Background(), src)
	require.NoError(t, err)
	require.Greater(t, len(out), 1)

	for i, doc := range out {
		assert.Equal(t, "L14133.pdf", doc.MetaData[MetaSource])
		assert.Equal(t, i, doc.MetaData[MetaChunkIndex])
		assert.Equal(t, len(out), doc.MetaData[MetaChunkCount])
	}
	_, hasIndex := src[0].MetaData[MetaChunkIndex]
	assert.False(t, hasIndex, "source metadata must not be mutated")

	_, err = NewSplitter(ChunkConfig{ChunkSize: 5, ChunkOverlap: 5})
	assert.ErrorIs(t, err, ErrInvalidChunkConfig)
}
