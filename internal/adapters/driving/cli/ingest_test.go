package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-ai/codeatlas/internal/connectors/github"
	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// stubIngestor implements driving.Ingestor with canned responses.
type stubIngestor struct {
	report  domain.IngestReport
	initErr error
}

func (s *stubIngestor) Register(context.Context, string, string) error { return nil }

func (s *stubIngestor) Initialize(context.Context, string) (domain.IngestReport, error) {
	return s.report, s.initErr
}

func (s *stubIngestor) Status(context.Context, string) (domain.ProjectStatus, error) {
	return domain.ProjectStatus{}, nil
}

func TestRunIngest_ReportsCounts(t *testing.T) {
	prev := ingestor
	defer func() { ingestor = prev }()
	ingestor = &stubIngestor{report: domain.IngestReport{
		Success:         true,
		Message:         "Repository initialized for querying",
		NewEmbeddings:   2,
		EmbeddingsCount: 5,
	}}
	ingestRepo = "acme/demo"

	cmd, buf := captureCommand()
	require.NoError(t, runIngest(cmd, []string{"proj"}))

	out := buf.String()
	assert.Contains(t, out, "Repository initialized for querying")
	assert.Contains(t, out, "embeddings: 5 (2 new)")
}

func TestRunIngest_UnauthorizedGuidance(t *testing.T) {
	prev := ingestor
	defer func() { ingestor = prev }()
	ingestor = &stubIngestor{initErr: &github.APIError{StatusCode: 401, Message: "Bad credentials"}}
	ingestRepo = "acme/demo"

	cmd, _ := captureCommand()
	err := runIngest(cmd, []string{"proj"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "Bad credentials")
	assert.ErrorContains(t, err, "config set github.token")
}

func TestRunIngest_NotFoundGuidance(t *testing.T) {
	prev := ingestor
	defer func() { ingestor = prev }()
	ingestor = &stubIngestor{initErr: &github.APIError{StatusCode: 404, Message: "Not Found"}}
	ingestRepo = "acme/ghost"

	cmd, _ := captureCommand()
	err := runIngest(cmd, []string{"proj"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "check the repository owner/name")
}
