package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/ivelum/cub-client/pkg/cub"
)

// RestyBackend performs attempts with resty. Its own retry mechanism is
// disabled.
type RestyBackend struct {
	client *resty.Client
}

// NewRestyBackend creates a resty backend on top of httpClient. A nil
// httpClient gets resty's default.
func NewRestyBackend(httpClient *http.Client, logger cub.Logger) *RestyBackend {
	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}

	if logger == nil {
		logger = cub.NoopLogger{}
	}

	client.SetRetryCount(0).
		SetLogger(restyLogger{logger: logger}).
		SetDoNotParseResponse(false)

	return &RestyBackend{client: client}
}

// Name implements Backend.
func (b *RestyBackend) Name() string {
	return "resty"
}

// Send implements Backend.
func (b *RestyBackend) Send(ctx context.Context, req *BackendRequest) (*BackendResponse, error) {
	request := b.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(req.Header)

	if req.Body != nil {
		request.SetBody(req.Body)
	}

	resp, err := request.Execute(req.Method, req.URL)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return &BackendResponse{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// Close releases idle connections.
func (b *RestyBackend) Close() error {
	b.client.GetClient().CloseIdleConnections()

	return nil
}

// restyLogger adapts cub.Logger to resty's printf-style logger.
type restyLogger struct {
	logger cub.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), nil)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), nil)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), nil)
}
