package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ivelum/cub-client/internal/http"
	"github.com/ivelum/cub-client/pkg/cub"
)

// ResourceClient implements cub.ResourceClient for one object kind served
// under path.
type ResourceClient[T cub.Model] struct {
	httpClient *http.Client
	decoder    *cub.Decoder
	kind       string
	path       string
}

// NewResourceClient creates a new resource client.
func NewResourceClient[T cub.Model](httpClient *http.Client, decoder *cub.Decoder, kind, path string) *ResourceClient[T] {
	return &ResourceClient[T]{
		httpClient: httpClient,
		decoder:    decoder,
		kind:       kind,
		path:       path,
	}
}

// List implements cub.ResourceClient.List.
func (c *ResourceClient[T]) List(ctx context.Context, filters cub.Params) ([]T, error) {
	resp, err := c.httpClient.Get(ctx, c.path, paramsOrNil(filters))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.kind, err)
	}

	err = checkResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.kind, err)
	}

	items, err := cub.DecodeListAs[T](c.decoder, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list: %w", c.kind, err)
	}

	return items, nil
}

// Get implements cub.ResourceClient.Get.
func (c *ResourceClient[T]) Get(ctx context.Context, id string, params cub.Params) (T, error) {
	var zero T

	if id == "" {
		return zero, fmt.Errorf("getting %s: %w", c.kind, cub.ErrMissingIdentifier)
	}

	resp, err := c.httpClient.Get(ctx, c.path+"/"+url.PathEscape(id), paramsOrNil(params))
	if err != nil {
		return zero, fmt.Errorf("getting %s %s: %w", c.kind, id, err)
	}

	return decodeOne[T](c.decoder, resp, "getting "+c.kind+" "+id)
}

// Create implements cub.ResourceClient.Create.
func (c *ResourceClient[T]) Create(ctx context.Context, fields cub.Params) (T, error) {
	var zero T

	resp, err := c.httpClient.Post(ctx, c.path, paramsOrNil(fields))
	if err != nil {
		return zero, fmt.Errorf("creating %s: %w", c.kind, err)
	}

	return decodeOne[T](c.decoder, resp, "creating "+c.kind)
}

// Reload implements cub.ResourceClient.Reload. obj keeps its identity, so
// every holder of it sees the fresh state.
func (c *ResourceClient[T]) Reload(ctx context.Context, obj T, params cub.Params) error {
	id := obj.Base().ID()
	if id == "" {
		return fmt.Errorf("reloading %s: %w", c.kind, cub.ErrMissingIdentifier)
	}

	fresh, err := c.Get(ctx, id, params)
	if err != nil {
		return err
	}

	err = obj.Base().Replace(fresh.Base())
	if err != nil {
		return fmt.Errorf("reloading %s %s: %w", c.kind, id, err)
	}

	return nil
}

// decodeOne converts an error status into *cub.APIError and decodes a single
// object of type T otherwise.
func decodeOne[T cub.Model](decoder *cub.Decoder, resp *http.Response, action string) (T, error) {
	var zero T

	err := checkResponse(resp)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", action, err)
	}

	model, err := cub.DecodeAs[T](decoder, resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%s: parsing response: %w", action, err)
	}

	return model, nil
}

// checkResponse returns a *cub.APIError for non-2xx responses.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message, params := cub.ParseErrorMessage(resp.Body)

	return &cub.APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Params:     params,
		RequestID:  resp.RequestID,
	}
}

// paramsOrNil keeps empty Params out of the request entirely.
func paramsOrNil(params cub.Params) any {
	if len(params) == 0 {
		return nil
	}

	return params
}
