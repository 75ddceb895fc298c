package vector

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingService_EmbedBatchKeepsPositions(t *testing.T) {
	svc := NewEmbeddingService(&hashEmbedder{})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"lei", "", "contrato"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Len(t, vectors[0], fakeDim)
	assert.Nil(t, vectors[1])
	assert.Len(t, vectors[2], fakeDim)
}

func TestEmbeddingService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewEmbeddingService(&hashEmbedder{})

	_, err := svc.Embed(ctx, "")
	assert.Error(t, err)
	_, err = svc.EmbedBatch(ctx, nil)
	assert.Error(t, err)
	_, err = svc.EmbedBatch(ctx, []string{"", ""})
	assert.Error(t, err)

	down := NewEmbeddingService(&hashEmbedder{err: errEmbedderDown})
	_, err = down.Embed(ctx, "lei")
	assert.ErrorIs(t, err, errEmbedderDown)
}

func TestEmbeddingService_EmbedBatchSplitsRequests(t *testing.T) {
	emb := &hashEmbedder{}
	svc := NewEmbeddingService(emb)

	texts := make([]string, 2*maxEmbedBatch+2)
	for i := range texts {
		texts[i] = fmt.Sprintf("art %d", i)
	}
	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, len(texts))
	assert.Equal(t, 3, emb.calls)
}

func TestEmbeddingService_ErrorWrappedOnce(t *testing.T) {
	svc := NewEmbeddingService(&hashEmbedder{err: errEmbedderDown})
	_, err := svc.EmbedBatch(context.Background(), []string{"lei"})
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to generate embeddings"))

	store, err := OpenLocalStore(t.TempDir(), &hashEmbedder{err: errEmbedderDown})
	require.NoError(t, err)
	err = store.AddBatch(context.Background(), seedDocs("a.pdf"))
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to generate embeddings"))
}
