package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// stubChat implements driving.ChatService with canned responses.
type stubChat struct {
	tokens []string
	answer *domain.Answer
	err    error
}

func (s *stubChat) Answer(context.Context, string, string, int) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, token := range s.tokens {
			out <- token
		}
		if s.err != nil {
			errs <- s.err
		}
	}()
	return out, errs
}

func (s *stubChat) AnswerSync(context.Context, string, string) (*domain.Answer, error) {
	return s.answer, s.err
}

func (s *stubChat) ClearChat(string) bool { return true }

func captureCommand() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func TestRunAsk_StreamsAnswerAndSources(t *testing.T) {
	prev := chatService
	defer func() { chatService = prev }()
	chatService = &stubChat{tokens: []string{
		"The login flow ",
		"lives in auth.ts.",
		domain.SourcesDelimiter + `[{"fileName":"src/auth.ts","similarity":0.91,` +
			`"relevantSegments":[{"lineStart":4,"lineEnd":9,"segment":"function login() {"}]}]`,
	}}

	cmd, buf := captureCommand()
	require.NoError(t, runAsk(cmd, []string{"proj", "how does login work?"}))

	out := buf.String()
	assert.Contains(t, out, "The login flow lives in auth.ts.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "src/auth.ts (0.91)")
	assert.Contains(t, out, "lines 4-9: function login() {")
}

func TestRunAsk_NotConfigured(t *testing.T) {
	prev := chatService
	defer func() { chatService = prev }()
	chatService = nil

	cmd, _ := captureCommand()
	err := runAsk(cmd, []string{"proj", "question"})
	assert.ErrorContains(t, err, "not configured")
}

func TestRunAskSync(t *testing.T) {
	prev := chatService
	defer func() { chatService = prev }()
	chatService = &stubChat{answer: &domain.Answer{
		Answer: "The login flow lives in auth.ts.",
		Sources: []domain.AnswerSource{
			{FileName: "src/auth.ts", Similarity: 0.91},
		},
	}}

	cmd, buf := captureCommand()
	require.NoError(t, runAskSync(cmd, "proj", "how does login work?"))

	out := buf.String()
	assert.Contains(t, out, "The login flow lives in auth.ts.")
	assert.Contains(t, out, "src/auth.ts (0.91)")
}

func TestPrintSources_BadPayload(t *testing.T) {
	cmd, _ := captureCommand()
	assert.Error(t, printSources(cmd, "not json"))
}

func TestPrintSources_Empty(t *testing.T) {
	cmd, buf := captureCommand()
	require.NoError(t, printSources(cmd, "[]"))
	assert.Empty(t, buf.String())
}
