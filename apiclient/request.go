package apiclient

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/clingclang/clingclang/authmodel"
	"github.com/pkg/errors"
)

// Request is a captured outbound call. The body is held as bytes so the same
// request can be sent again after a refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewJSONRequest builds a request whose body is the JSON encoding of body. A
// nil body sends no payload.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	req := &Request{Method: method, Path: path, Header: http.Header{}}
	if body == nil {
		return req, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient NewJSONRequest] marshal body")
	}
	req.Body = data
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "[apiclient Response.DecodeJSON]")
	}
	return nil
}

// message reads the body's message and code fields, if the body is JSON.
func (r *Response) message() authmodel.MessageResponse {
	var body authmodel.MessageResponse
	_ = json.Unmarshal(r.Body, &body)
	return body
}

// authExpired is the refresh trigger: 401 with the exact expired-authorization
// message, or the machine-readable code newer servers send alongside it.
func (r *Response) authExpired() bool {
	if r.StatusCode != http.StatusUnauthorized {
		return false
	}
	body := r.message()
	return body.Message == authmodel.MessageAuthExpired || body.Code == authmodel.CodeAuthTokenExpired
}
