package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const framedLicitacao = "You are an expert in legislation. Answer in portuguese the following question with step-by-step details:\n\nQuestion: O que diz a lei de licitações?"

func TestLegislationAnswerer_StuffsRetrievedSegments(t *testing.T) {
	segments := []*schema.Document{
		{ID: "1", Content: "Art. 28. São modalidades de licitação: pregão, concorrência, concurso, leilão e diálogo competitivo."},
		{ID: "2", Content: "Art. 11. O processo licitatório tem por objetivos assegurar a seleção da proposta apta a gerar o resultado mais vantajoso."},
	}

	ret := &mockRetriever{}
	ret.On("Retrieve", mock.Anything, framedLicitacao, DefaultTopK).Return(segments, nil).Once()

	chat := &mockChatModel{}
	chat.On("Generate", mock.Anything, mock.MatchedBy(func(msgs []*schema.Message) bool {
		if len(msgs) != 2 || msgs[0].Role != schema.System || msgs[1].Role != schema.User {
			return false
		}
		return strings.Contains(msgs[0].Content, segments[0].Content+"\n\n"+segments[1].Content) &&
			msgs[1].Content == framedLicitacao
	})).Return(schema.AssistantMessage("A Lei 14.133 estabelece normas gerais de licitação.", nil), nil).Once()

	var diag bytes.Buffer
	a, err := NewLegislationAnswerer(&LegislationConfig{ChatModel: chat, Retriever: ret, Diagnostics: &diag})
	require.NoError(t, err)

	out, err := a.Answer(context.Background(), "O que diz a lei de licitações?")
	require.NoError(t, err)
	assert.Equal(t, "A Lei 14.133 estabelece normas gerais de licitação.", out)
	assert.Equal(t, "Documentos recuperados:\n"+segments[0].Content+"\n"+segments[1].Content+"\n", diag.String())

	ret.AssertExpectations(t)
	chat.AssertExpectations(t)
}

func TestLegislationAnswerer_CustomTopKAndEmptyIndex(t *testing.T) {
	ret := &mockRetriever{}
	ret.On("Retrieve", mock.Anything, mock.Anything, 2).Return([]*schema.Document{}, nil).Once()

	chat := &mockChatModel{}
	chat.On("Generate", mock.Anything, mock.Anything).Return(schema.AssistantMessage("Não sei.", nil), nil).Once()

	var diag bytes.Buffer
	a, err := NewLegislationAnswerer(&LegislationConfig{ChatModel: chat, Retriever: ret, TopK: 2, Diagnostics: &diag})
	require.NoError(t, err)

	out, err := a.Answer(context.Background(), "O que diz a lei de licitações?")
	require.NoError(t, err)
	assert.Equal(t, "Não sei.", out)
	assert.Equal(t, "Documentos recuperados:\n", diag.String())
	ret.AssertExpectations(t)
}

func TestLegislationAnswerer_Failures(t *testing.T) {
	errIndex := errors.New("index unavailable")
	ret := &mockRetriever{}
	ret.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).Return(nil, errIndex).Once()
	chat := &mockChatModel{}

	a, err := NewLegislationAnswerer(&LegislationConfig{ChatModel: chat, Retriever: ret})
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "O que diz a lei de licitações?")
	assert.ErrorIs(t, err, errIndex)
	chat.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	_, err = NewLegislationAnswerer(&LegislationConfig{ChatModel: chat})
	assert.Error(t, err)
	_, err = NewLegislationAnswerer(&LegislationConfig{Retriever: ret})
	assert.Error(t, err)
}

func TestGenericAnswerer_Answer(t *testing.T) {
	chat := &mockChatModel{}
	chat.On("Generate", mock.Anything, mock.MatchedBy(func(msgs []*schema.Message) bool {
		return len(msgs) == 1 && msgs[0].Content == "Give a general and concise answer to the question: qual a capital da França"
	})).Return(schema.AssistantMessage("Paris.", nil), nil).Once()

	a, err := NewGenericAnswerer(chat)
	require.NoError(t, err)

	out, err := a.Answer(context.Background(), "qual a capital da França")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)
	chat.AssertExpectations(t)

	_, err = NewGenericAnswerer(nil)
	assert.Error(t, err)
}
