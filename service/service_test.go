package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"gemini-proxy/config"
	"gemini-proxy/gemini"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	enabled bool
	calls   int
	last    gemini.GenerateContentRequest
	resp    *gemini.GenerateContentResponse
	err     error
}

func (f *fakeGenerator) Enabled() bool { return f.enabled }

func (f *fakeGenerator) GenerateContent(ctx context.Context, body gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	f.calls++
	f.last = body
	return f.resp, f.err
}

func textResponse(texts ...string) *gemini.GenerateContentResponse {
	parts := make([]gemini.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, gemini.Part{Text: t})
	}
	return &gemini.GenerateContentResponse{
		Candidates: []gemini.Candidate{{Content: gemini.Content{Parts: parts}}},
	}
}

func newTestService(gen *fakeGenerator) *Service {
	cfg := config.Defaults()
	cfg.SystemInstruction = "INSTRUCTION"
	return NewService(cfg, gen)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	gen := &fakeGenerator{enabled: false}
	svc := newTestService(gen)

	resp := svc.Generate(context.Background(), Request{Prompt: "hello"})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, MsgMissingAPIKey, resp.Error)
	assert.Equal(t, 0, gen.calls, "upstream must not be called without a credential")
}

func TestGenerate_MissingAPIKeyTakesPrecedenceOverValidation(t *testing.T) {
	gen := &fakeGenerator{enabled: false}
	svc := newTestService(gen)

	resp := svc.Generate(context.Background(), Request{})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, MsgMissingAPIKey, resp.Error)
}

func TestGenerate_MissingInput(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
	}{
		{name: "Empty request", req: Request{}},
		{name: "Mime only", req: Request{ImageMime: "image/png"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{enabled: true}
			svc := newTestService(gen)

			resp := svc.Generate(context.Background(), tc.req)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, MsgMissingInput, resp.Error)
			assert.Equal(t, 0, gen.calls)
		})
	}
}

func TestGenerate_JoinsCandidateParts(t *testing.T) {
	gen := &fakeGenerator{enabled: true, resp: textResponse("A", "B")}
	svc := newTestService(gen)

	resp := svc.Generate(context.Background(), Request{Prompt: "question"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A\nB", resp.Text)
	assert.Empty(t, resp.Error)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_Placeholder(t *testing.T) {
	testCases := []struct {
		name string
		resp *gemini.GenerateContentResponse
	}{
		{name: "No candidates", resp: &gemini.GenerateContentResponse{}},
		{name: "No parts", resp: textResponse()},
		{name: "Only empty text", resp: textResponse("")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{enabled: true, resp: tc.resp}
			svc := newTestService(gen)

			resp := svc.Generate(context.Background(), Request{Prompt: "question"})

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, config.Defaults().NoResponseText, resp.Text)
		})
	}
}

func TestGenerate_UpstreamErrors(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
		upstreamStatus int
	}{
		{
			name:           "Quota exhausted",
			err:            &gemini.Error{Kind: gemini.KindQuota, StatusCode: 429, Message: "Resource has been exhausted"},
			expectedStatus: http.StatusTooManyRequests,
			expectedError:  MsgQuotaExceeded,
		},
		{
			name:           "Upstream busy with message",
			err:            &gemini.Error{Kind: gemini.KindUpstream, StatusCode: 503, Message: "busy"},
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "busy",
			upstreamStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "Upstream error without message",
			err:            &gemini.Error{Kind: gemini.KindUpstream, StatusCode: 400},
			expectedStatus: http.StatusBadRequest,
			expectedError:  MsgUpstreamError,
			upstreamStatus: http.StatusBadRequest,
		},
		{
			name:           "Transport failure",
			err:            &gemini.Error{Kind: gemini.KindTransport, Err: errors.New("connection refused")},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  MsgInternalError,
		},
		{
			name:           "Malformed success body",
			err:            &gemini.Error{Kind: gemini.KindDecode, StatusCode: 200, Err: errors.New("unexpected EOF")},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  MsgInternalError,
		},
		{
			name:           "Unknown error type",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  MsgInternalError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{enabled: true, err: tc.err}
			svc := newTestService(gen)

			resp := svc.Generate(context.Background(), Request{Prompt: "question"})

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assert.Equal(t, tc.expectedError, resp.Error)
			assert.Equal(t, tc.upstreamStatus, resp.UpstreamStatus)
			assert.Empty(t, resp.Text)
		})
	}
}

func TestBuildPayload(t *testing.T) {
	svc := newTestService(&fakeGenerator{enabled: true})

	t.Run("Prompt only", func(t *testing.T) {
		payload := svc.BuildPayload(Request{Prompt: "what is this?"})

		require.Len(t, payload.Contents, 1)
		assert.Equal(t, "user", payload.Contents[0].Role)
		require.Len(t, payload.Contents[0].Parts, 1)
		assert.Equal(t, "INSTRUCTION\n\nwhat is this?", payload.Contents[0].Parts[0].Text)
		assert.Nil(t, payload.Contents[0].Parts[0].InlineData)
		assert.Equal(t, 0.4, payload.GenerationConfig.Temperature)
		assert.Equal(t, 1200, payload.GenerationConfig.MaxOutputTokens)
	})

	t.Run("Image only puts the image before the instruction", func(t *testing.T) {
		payload := svc.BuildPayload(Request{ImageBase64: "aGVsbG8=", ImageMime: "image/jpeg"})

		parts := payload.Contents[0].Parts
		require.Len(t, parts, 2)
		require.NotNil(t, parts[0].InlineData)
		assert.Equal(t, "image/jpeg", parts[0].InlineData.MimeType)
		assert.Equal(t, "aGVsbG8=", parts[0].InlineData.Data)
		assert.Empty(t, parts[0].Text)
		assert.Equal(t, "INSTRUCTION", parts[1].Text)
		assert.Nil(t, parts[1].InlineData)
	})

	t.Run("Image without mime type is dropped", func(t *testing.T) {
		payload := svc.BuildPayload(Request{Prompt: "p", ImageBase64: "aGVsbG8="})

		parts := payload.Contents[0].Parts
		require.Len(t, parts, 1)
		assert.Nil(t, parts[0].InlineData)
		assert.Equal(t, "INSTRUCTION\n\np", parts[0].Text)
	})
}

func TestGenerate_SendsBuiltPayload(t *testing.T) {
	gen := &fakeGenerator{enabled: true, resp: textResponse("ok")}
	svc := newTestService(gen)

	svc.Generate(context.Background(), Request{Prompt: "p", ImageBase64: "ZGF0YQ==", ImageMime: "image/png"})

	require.Equal(t, 1, gen.calls)
	assert.Equal(t, svc.BuildPayload(Request{Prompt: "p", ImageBase64: "ZGF0YQ==", ImageMime: "image/png"}), gen.last)
}
