package service

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"gemini-proxy/config"
	"gemini-proxy/gemini"
	"gemini-proxy/metrics"

	"github.com/apex/log"
)

// Client-facing messages. The front-end displays them verbatim.
const (
	MsgMissingAPIKey = "GEMINI_API_KEY non configurata"
	MsgMissingInput  = "prompt o immagine mancante"
	MsgQuotaExceeded = "Quota Gemini esaurita o a 0 per questo modello. Controlla i rate limits in AI Studio o cambia modello."
	MsgUpstreamError = "Errore Gemini"
	MsgInternalError = "Errore interno server"
)

// Result labels used for metrics.
const (
	resultOK            = "ok"
	resultBadRequest    = "bad_request"
	resultConfigError   = "config_error"
	resultQuota         = "quota"
	resultUpstreamError = "upstream_error"
	resultInternalError = "internal_error"
)

// Request is the inbound relay request. Every field is optional, but at least
// one of Prompt or ImageBase64 must be set.
type Request struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"imageBase64"`
	ImageMime   string `json:"imageMime"`
}

// Response is the client-facing outcome of a relay request.
// Exactly one of Text or Error is set.
type Response struct {
	StatusCode int
	Text       string
	Error      string
	// UpstreamStatus is echoed to the client for generic upstream failures.
	UpstreamStatus int
}

// Service relays prompts to Gemini and maps the outcome to a client response.
type Service struct {
	client      Generator
	instruction string
	placeholder string
	generation  gemini.GenerationConfig
}

func NewService(cfg *config.Config, client Generator) *Service {
	return &Service{
		client:      client,
		instruction: cfg.SystemInstruction,
		placeholder: cfg.NoResponseText,
		generation: gemini.GenerationConfig{
			Temperature:     cfg.GeminiTemperature,
			MaxOutputTokens: cfg.GeminiMaxOutputTokens,
		},
	}
}

// BuildPayload assembles the upstream request: the inline image part first
// (only when both data and MIME type are present), then the instruction and prompt.
func (s *Service) BuildPayload(req Request) gemini.GenerateContentRequest {
	parts := make([]gemini.Part, 0, 2)
	if req.ImageBase64 != "" && req.ImageMime != "" {
		parts = append(parts, gemini.Part{
			InlineData: &gemini.InlineData{
				MimeType: req.ImageMime,
				Data:     req.ImageBase64,
			},
		})
	}

	text := s.instruction
	if req.Prompt != "" {
		text += "\n\n" + req.Prompt
	}
	parts = append(parts, gemini.Part{Text: text})

	return gemini.GenerateContentRequest{
		Contents: []gemini.Content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
		GenerationConfig: s.generation,
	}
}

// Generate handles a single relay request.
func (s *Service) Generate(ctx context.Context, req Request) Response {
	logger := log.FromContext(ctx)

	if s.client == nil || !s.client.Enabled() {
		logger.Error("GEMINI_API_KEY is not configured")
		return s.fail(resultConfigError, http.StatusInternalServerError, MsgMissingAPIKey)
	}

	if req.Prompt == "" && req.ImageBase64 == "" {
		return s.fail(resultBadRequest, http.StatusBadRequest, MsgMissingInput)
	}

	payload := s.BuildPayload(req)

	started := time.Now()
	resp, err := s.client.GenerateContent(ctx, payload)
	if err != nil {
		result, out := s.mapError(logger, err)
		metrics.UpstreamDurationSeconds.WithLabelValues(result).Observe(time.Since(started).Seconds())
		metrics.RequestsTotal.WithLabelValues(result).Inc()
		return out
	}
	metrics.UpstreamDurationSeconds.WithLabelValues(resultOK).Observe(time.Since(started).Seconds())

	text := resp.Text()
	if text == "" {
		text = s.placeholder
	}

	fields := log.Fields{
		"text":          text,
		"length":        utf8.RuneCountInString(text),
		"finish_reason": resp.FinishReason(),
		"took":          time.Since(started).String(),
	}
	if resp.UsageMetadata != nil {
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	logger.WithFields(fields).Info("gemini response")

	metrics.RequestsTotal.WithLabelValues(resultOK).Inc()
	return Response{StatusCode: http.StatusOK, Text: text}
}

// mapError converts an upstream failure into a client response and its metrics label.
func (s *Service) mapError(logger log.Interface, err error) (string, Response) {
	var gerr *gemini.Error
	if !errors.As(err, &gerr) {
		logger.WithError(err).Error("unexpected error calling gemini")
		return resultInternalError, Response{StatusCode: http.StatusInternalServerError, Error: MsgInternalError}
	}

	entry := logger.WithFields(log.Fields{
		"kind":   gerr.Kind.String(),
		"status": gerr.StatusCode,
		"body":   gerr.Body,
	})

	switch gerr.Kind {
	case gemini.KindQuota:
		entry.Error("gemini quota exhausted")
		return resultQuota, Response{StatusCode: http.StatusTooManyRequests, Error: MsgQuotaExceeded}
	case gemini.KindUpstream:
		entry.Error("gemini api error")
		msg := gerr.Message
		if msg == "" {
			msg = MsgUpstreamError
		}
		return resultUpstreamError, Response{
			StatusCode:     gerr.StatusCode,
			Error:          msg,
			UpstreamStatus: gerr.StatusCode,
		}
	case gemini.KindTransport, gemini.KindDecode:
		entry.WithError(err).Error("gemini call failed")
		return resultInternalError, Response{StatusCode: http.StatusInternalServerError, Error: MsgInternalError}
	default:
		entry.WithError(err).Error("unknown gemini error kind")
		return resultInternalError, Response{StatusCode: http.StatusInternalServerError, Error: MsgInternalError}
	}
}

func (s *Service) fail(result string, status int, msg string) Response {
	metrics.RequestsTotal.WithLabelValues(result).Inc()
	return Response{StatusCode: status, Error: msg}
}
