package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"legisqa/llm"

	"github.com/cloudwego/eino/compose"
)

// Graph node names.
const (
	NodeAnalyze      = "analyze"
	NodeLegislation  = "legislation_agent"
	NodeGeneric      = "generic_agent"
	NodeUnrecognized = "unrecognized"
)

// ErrUnrecognizedDecision is matched by every *ClassificationError.
var ErrUnrecognizedDecision = errors.New("unrecognized classifier decision")

// ClassificationError reports a classifier reply that maps to no answerer.
type ClassificationError struct {
	Label string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnrecognizedDecision, e.Label)
}

func (e *ClassificationError) Unwrap() error {
	return ErrUnrecognizedDecision
}

// QuestionClassifier picks the answering strategy for a question.
type QuestionClassifier interface {
	Classify(ctx context.Context, input string) (llm.Decision, string, error)
}

// Answerer produces the final answer text for a question.
type Answerer interface {
	Answer(ctx context.Context, input string) (string, error)
}

// RouterConfig holds the components wired into the routing graph.
type RouterConfig struct {
	Classifier  QuestionClassifier
	Legislation Answerer
	Generic     Answerer
	Logger      *slog.Logger
}

// Router classifies a question and dispatches it to exactly one answerer.
// The graph is compiled once; Route keeps no state between calls.
type Router struct {
	runnable compose.Runnable[string, *llm.Turn]
	log      *slog.Logger
}

// NewRouter builds and compiles the routing graph:
//
//	START -> analyze -> {legislation_agent | generic_agent | unrecognized} -> END
func NewRouter(ctx context.Context, config *RouterConfig) (*Router, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}
	if config.Classifier == nil || config.Legislation == nil || config.Generic == nil {
		return nil, errors.New("router: classifier and both answerers are required")
	}

	g := compose.NewGraph[string, *llm.Turn]()

	analyze := func(ctx context.Context, input string) (*llm.Turn, error) {
		decision, label, err := config.Classifier.Classify(ctx, input)
		if err != nil {
			return nil, err
		}
		return &llm.Turn{Input: input, Decision: decision, Label: label}, nil
	}
	answerWith := func(a Answerer) func(context.Context, *llm.Turn) (*llm.Turn, error) {
		return func(ctx context.Context, turn *llm.Turn) (*llm.Turn, error) {
			out, err := a.Answer(ctx, turn.Input)
			if err != nil {
				return nil, err
			}
			turn.Output = out
			return turn, nil
		}
	}
	passThrough := func(ctx context.Context, turn *llm.Turn) (*llm.Turn, error) {
		return turn, nil
	}

	if err := g.AddLambdaNode(NodeAnalyze, compose.InvokableLambda(analyze)); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(NodeLegislation, compose.InvokableLambda(answerWith(config.Legislation))); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(NodeGeneric, compose.InvokableLambda(answerWith(config.Generic))); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(NodeUnrecognized, compose.InvokableLambda(passThrough)); err != nil {
		return nil, err
	}

	branch := compose.NewGraphBranch(func(ctx context.Context, turn *llm.Turn) (string, error) {
		return nodeFor(turn.Decision), nil
	}, map[string]bool{
		NodeLegislation:  true,
		NodeGeneric:      true,
		NodeUnrecognized: true,
	})

	if err := g.AddEdge(compose.START, NodeAnalyze); err != nil {
		return nil, err
	}
	if err := g.AddBranch(NodeAnalyze, branch); err != nil {
		return nil, err
	}
	for _, node := range []string{NodeLegislation, NodeGeneric, NodeUnrecognized} {
		if err := g.AddEdge(node, compose.END); err != nil {
			return nil, err
		}
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("question_router"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return &Router{runnable: runnable, log: orNopLogger(config.Logger)}, nil
}

func nodeFor(d llm.Decision) string {
	switch d {
	case llm.DecisionLegislation:
		return NodeLegislation
	case llm.DecisionGeneral:
		return NodeGeneric
	default:
		return NodeUnrecognized
	}
}

// Route answers input. A classifier reply that maps to no strategy yields a
// *ClassificationError; answerer and model failures are returned as is.
func (r *Router) Route(ctx context.Context, input string) (*llm.Turn, error) {
	turn, err := r.runnable.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	if turn.Decision == llm.DecisionUnrecognized {
		return turn, &ClassificationError{Label: turn.Label}
	}
	r.log.Debug("question routed", "decision", turn.Decision.String())
	return turn, nil
}
