package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/mock"
)

type mockChatModel struct {
	mock.Mock
}

func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	args := m.Called(ctx, input)
	msg, _ := args.Get(0).(*schema.Message)
	return msg, args.Error(1)
}

func (m *mockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

type mockRetriever struct {
	mock.Mock
}

// Retrieve records the effective top-k as the third argument.
func (m *mockRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := 0
	if o := retriever.GetCommonOptions(&retriever.Options{}, opts...); o.TopK != nil {
		topK = *o.TopK
	}
	args := m.Called(ctx, query, topK)
	docs, _ := args.Get(0).([]*schema.Document)
	return docs, args.Error(1)
}

type mockAnswerer struct {
	mock.Mock
}

func (m *mockAnswerer) Answer(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// contentContains matches a message slice whose last message contains s.
func contentContains(s string) interface{} {
	return mock.MatchedBy(func(msgs []*schema.Message) bool {
		if len(msgs) == 0 {
			return false
		}
		return strings.Contains(msgs[len(msgs)-1].Content, s)
	})
}
