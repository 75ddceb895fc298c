package agent

import (
	"context"
	"errors"
	"testing"

	"legisqa/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type classifierFunc func(ctx context.Context, input string) (llm.Decision, string, error)

func (f classifierFunc) Classify(ctx context.Context, input string) (llm.Decision, string, error) {
	return f(ctx, input)
}

func fixedDecision(label string) classifierFunc {
	return func(ctx context.Context, input string) (llm.Decision, string, error) {
		d, l := llm.ParseDecision(label)
		return d, l, nil
	}
}

func newTestRouter(t *testing.T, c QuestionClassifier, leg, gen *mockAnswerer) *Router {
	t.Helper()
	r, err := NewRouter(context.Background(), &RouterConfig{Classifier: c, Legislation: leg, Generic: gen})
	require.NoError(t, err)
	return r
}

func TestRouter_Route(t *testing.T) {
	tests := map[string]struct {
		input           string
		label           string
		setExpectations func(leg, gen *mockAnswerer)
		wantOutput      string
		wantDecision    llm.Decision
	}{
		"legislation-question": {
			input: "O que diz a lei de licitações?",
			label: "legislation",
			setExpectations: func(leg, gen *mockAnswerer) {
				leg.On("Answer", mock.Anything, "O que diz a lei de licitações?").
					Return("A Lei 14.133 disciplina licitações e contratos.", nil).
					Once()
			},
			wantOutput:   "A Lei 14.133 disciplina licitações e contratos.",
			wantDecision: llm.DecisionLegislation,
		},
		"general-question": {
			input: "qual a capital da França",
			label: "general",
			setExpectations: func(leg, gen *mockAnswerer) {
				gen.On("Answer", mock.Anything, "qual a capital da França").
					Return("Paris.", nil).
					Once()
			},
			wantOutput:   "Paris.",
			wantDecision: llm.DecisionGeneral,
		},
		"label-normalized": {
			input: "qual a capital da França",
			label: " GENERAL ",
			setExpectations: func(leg, gen *mockAnswerer) {
				gen.On("Answer", mock.Anything, mock.Anything).Return("Paris.", nil).Once()
			},
			wantOutput:   "Paris.",
			wantDecision: llm.DecisionGeneral,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			leg, gen := &mockAnswerer{}, &mockAnswerer{}
			tt.setExpectations(leg, gen)
			r := newTestRouter(t, fixedDecision(tt.label), leg, gen)

			turn, err := r.Route(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.input, turn.Input)
			assert.Equal(t, tt.wantOutput, turn.Output)
			assert.Equal(t, tt.wantDecision, turn.Decision)

			leg.AssertExpectations(t)
			gen.AssertExpectations(t)
			if tt.wantDecision == llm.DecisionLegislation {
				gen.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
			} else {
				leg.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRouter_UnrecognizedDecisionInvokesNeitherAnswerer(t *testing.T) {
	leg, gen := &mockAnswerer{}, &mockAnswerer{}
	r := newTestRouter(t, fixedDecision("maybe"), leg, gen)

	turn, err := r.Route(context.Background(), "O que diz a lei de licitações?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedDecision)

	var cerr *ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "maybe", cerr.Label)
	assert.Empty(t, turn.Output)

	leg.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	gen.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
}

func TestRouter_PropagatesFailures(t *testing.T) {
	errModel := errors.New("model unreachable")

	t.Run("classifier", func(t *testing.T) {
		leg, gen := &mockAnswerer{}, &mockAnswerer{}
		failing := classifierFunc(func(ctx context.Context, input string) (llm.Decision, string, error) {
			return llm.DecisionUnrecognized, "", errModel
		})
		r := newTestRouter(t, failing, leg, gen)

		_, err := r.Route(context.Background(), "qual a capital da França")
		assert.ErrorIs(t, err, errModel)
		assert.NotErrorIs(t, err, ErrUnrecognizedDecision)
	})

	t.Run("answerer", func(t *testing.T) {
		leg, gen := &mockAnswerer{}, &mockAnswerer{}
		gen.On("Answer", mock.Anything, mock.Anything).Return("", errModel).Once()
		r := newTestRouter(t, fixedDecision("general"), leg, gen)

		_, err := r.Route(context.Background(), "qual a capital da França")
		assert.ErrorIs(t, err, errModel)
	})
}

func TestRouter_IsStatelessAcrossCalls(t *testing.T) {
	leg, gen := &mockAnswerer{}, &mockAnswerer{}
	leg.On("Answer", mock.Anything, "lei 1").Return("resposta 1", nil).Once()
	leg.On("Answer", mock.Anything, "lei 2").Return("resposta 2", nil).Once()
	r := newTestRouter(t, fixedDecision("legislation"), leg, gen)

	first, err := r.Route(context.Background(), "lei 1")
	require.NoError(t, err)
	second, err := r.Route(context.Background(), "lei 2")
	require.NoError(t, err)

	assert.Equal(t, "resposta 1", first.Output)
	assert.Equal(t, "resposta 2", second.Output)
	assert.NotSame(t, first, second)
}

func TestNewRouter_Validation(t *testing.T) {
	_, err := NewRouter(context.Background(), nil)
	assert.Error(t, err)
	_, err = NewRouter(context.Background(), &RouterConfig{Classifier: fixedDecision("general")})
	assert.Error(t, err)
}
