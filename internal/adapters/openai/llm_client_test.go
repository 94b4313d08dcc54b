package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-guard/internal/adapters/llm"
)

type fakeChat struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestCompleteBuildsJSONRequest(t *testing.T) {
	fake := &fakeChat{resp: openai.ChatCompletionResponse{
		ID: "chatcmpl-1",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: `{"risk_score": 10}`}},
		},
	}}
	client := NewOpenAIClient(fake, "gpt-4o-mini", 300, 0, 0.9, zaptest.NewLogger(t))

	text, err := client.Complete(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, `{"risk_score": 10}`, text)

	assert.Equal(t, "gpt-4o-mini", fake.req.Model)
	assert.Equal(t, 300, fake.req.MaxTokens)
	require.Len(t, fake.req.Messages, 2)
	assert.Equal(t, llm.SystemPrompt, fake.req.Messages[0].Content)
	assert.Equal(t, "analyze this", fake.req.Messages[1].Content)
	require.NotNil(t, fake.req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, fake.req.ResponseFormat.Type)
}

func TestCompleteErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewOpenAIClient(&fakeChat{err: errors.New("429")}, "m", 1, 0, 1, logger).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "429")

	_, err = NewOpenAIClient(&fakeChat{}, "m", 1, 0, 1, logger).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "empty response")
}
