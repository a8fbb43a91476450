package llm

import "context"

// EchoProvider answers with the last user message. It backs tests and
// the degraded mode where no upstream is reachable.
type EchoProvider struct{}

func (EchoProvider) Name() string { return "echo" }

func (EchoProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Content: lastUserContent(req.Messages), Model: "echo"}, nil
}

func (EchoProvider) StreamComplete(_ context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	chunks := make(chan StreamChunk, 2)
	chunks <- StreamChunk{Delta: lastUserContent(req.Messages)}
	chunks <- StreamChunk{FinishReason: "stop"}
	close(chunks)
	return chunks, nil
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}
