package gemini

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed generateContent call.
type ErrorKind int

const (
	// KindTransport: the request could not be built, sent or its body read.
	KindTransport ErrorKind = iota
	// KindDecode: the upstream answered 2xx with a body that is not a valid response.
	KindDecode
	// KindQuota: the upstream answered 429.
	KindQuota
	// KindUpstream: the upstream answered any other non-2xx status.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindQuota:
		return "quota"
	case KindUpstream:
		return "upstream"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by Client.GenerateContent for every failure.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	// Message is the upstream error.message, when the body carried one.
	Message string
	// Body is a truncated copy of the upstream body, for logs only.
	Body string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindQuota, KindUpstream:
		if e.Message != "" {
			return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("gemini http %d", e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("gemini %s error: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("gemini %s error", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

const maxLoggedBody = 2048

func newStatusError(status int, body []byte) *Error {
	kind := KindUpstream
	if status == http.StatusTooManyRequests {
		kind = KindQuota
	}

	var message string
	if gjson.ValidBytes(body) {
		message = strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
	}

	logged := string(body)
	if len(logged) > maxLoggedBody {
		logged = logged[:maxLoggedBody]
	}

	return &Error{
		Kind:       kind,
		StatusCode: status,
		Message:    message,
		Body:       strings.TrimSpace(logged),
	}
}
