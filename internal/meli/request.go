package meli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const formMediaType = "application/x-www-form-urlencoded"

// Request describes one API call. Path is relative to the environment's
// base host and may carry a query string.
type Request struct {
	Method string
	Path   string
	Header http.Header
	// Body is JSON encoded unless it is []byte, string or io.Reader (sent
	// as-is) or url.Values (form encoded).
	Body any
}

// RequestOption customizes a single Request.
type RequestOption func(*Request)

// WithRequestHeader sets a header on one request, overriding defaults.
func WithRequestHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// WithQuery appends query parameters to the request path.
func WithQuery(q url.Values) RequestOption {
	return func(r *Request) {
		if len(q) == 0 {
			return
		}
		sep := "?"
		if strings.Contains(r.Path, "?") {
			sep = "&"
		}
		r.Path += sep + q.Encode()
	}
}

// NewRequest builds a Request and applies opts.
func NewRequest(method, path string, body any, opts ...RequestOption) *Request {
	r := &Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Response is a buffered API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode parses the JSON body into dst. A nil dst or empty body is a no-op.
func (r *Response) Decode(dst any) error {
	if dst == nil || len(r.Body) == 0 {
		return nil
	}
	if raw, ok := dst.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], r.Body...)
		return nil
	}
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// encodeBody turns a request body into a reader and, when the encoding
// implies one, a content type.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case string:
		return strings.NewReader(b), "", nil
	case url.Values:
		return strings.NewReader(b.Encode()), formMediaType, nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}
		return bytes.NewReader(data), jsonMediaType, nil
	}
}
