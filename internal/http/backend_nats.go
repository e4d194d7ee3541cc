package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ivelum/cub-client/internal/constants"
	"github.com/nats-io/nats.go"
)

// ErrMalformedReply is returned when a NATS reply is not a response envelope.
var ErrMalformedReply = errors.New("malformed NATS reply")

// NATSRequester is the part of *nats.Conn the NATS backend uses.
type NATSRequester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	Drain() error
}

// natsRequest is the envelope published for every attempt. Body is carried
// base64-encoded by encoding/json.
type natsRequest struct {
	Method string      `json:"method"`
	URL    string      `json:"url"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
}

// natsReply is the envelope a gateway answers with.
type natsReply struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
}

// NATSBackend tunnels attempts through a NATS request/reply gateway that
// forwards them to the Cub API.
type NATSBackend struct {
	conn    NATSRequester
	subject string
}

// NewNATSBackend creates a backend publishing on subject over conn.
func NewNATSBackend(conn NATSRequester, subject string) *NATSBackend {
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	return &NATSBackend{conn: conn, subject: subject}
}

// DialNATSBackend connects to the NATS server at url.
func DialNATSBackend(url, subject string, opts ...nats.Option) (*NATSBackend, error) {
	opts = append([]nats.Option{nats.Name(constants.DefaultUserAgent)}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return NewNATSBackend(conn, subject), nil
}

// Name implements Backend.
func (b *NATSBackend) Name() string {
	return "nats"
}

// Subject returns the request subject.
func (b *NATSBackend) Subject() string {
	return b.subject
}

// Send implements Backend. Every request error, including a missing
// responder, counts as a connection failure.
func (b *NATSBackend) Send(ctx context.Context, req *BackendRequest) (*BackendResponse, error) {
	data, err := json.Marshal(natsRequest{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
		Body:   req.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding NATS request: %w", err)
	}

	msg, err := b.conn.RequestWithContext(ctx, b.subject, data)
	if err != nil {
		return nil, ConnectionFailure(err)
	}

	var reply natsReply

	err = json.Unmarshal(msg.Data, &reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	if reply.Status == 0 {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedReply)
	}

	if reply.Header == nil {
		reply.Header = http.Header{}
	}

	return &BackendResponse{
		StatusCode: reply.Status,
		Header:     reply.Header,
		Body:       reply.Body,
	}, nil
}

// Close drains the connection.
func (b *NATSBackend) Close() error {
	err := b.conn.Drain()
	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
