package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivelum/cub-client/pkg/cub"
)

const testAPIKey = "sk_test"

// NewTestClient creates a new test client with the given base URL.
func NewTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(context.Background(), &cub.Config{
		APIURL:   baseURL,
		APIKey:   testAPIKey,
		RetryMax: -1,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

// TestGetOperation represents a generic get operation test case.
type TestGetOperation struct {
	Name         string
	ID           string
	ExpectedPath string
	StatusCode   int
	Response     string
	WantErr      error
	ErrMessage   string
}

// RunGetTests runs a series of get operation tests.
func RunGetTests[T cub.Model](
	t *testing.T,
	tests []TestGetOperation,
	getFunc func(*Client) cub.ResourceClient[T],
	check func(*testing.T, T),
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.ExpectedPath, request.URL.Path)
				assert.Equal(t, "GET", request.Method)
				assert.Equal(t, "Bearer "+testAPIKey, request.Header.Get("Authorization"))
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.StatusCode)
				_, _ = io.WriteString(writer, testCase.Response)
			}))
			defer server.Close()

			client := NewTestClient(t, server.URL)

			result, err := getFunc(client).Get(context.Background(), testCase.ID, nil)

			if testCase.WantErr != nil {
				require.ErrorIs(t, err, testCase.WantErr)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				return
			}

			require.NoError(t, err)

			if check != nil {
				check(t, result)
			}
		})
	}
}

// TestListOperation represents a generic list operation test case.
type TestListOperation struct {
	Name          string
	Filters       cub.Params
	ExpectedPath  string
	ExpectedQuery string
	StatusCode    int
	Response      string
	ExpectedIDs   []string
	WantErr       error
}

// RunListTests runs a series of list operation tests.
func RunListTests[T cub.Model](
	t *testing.T,
	tests []TestListOperation,
	listFunc func(*Client) cub.ResourceClient[T],
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.ExpectedPath, request.URL.Path)
				assert.Equal(t, testCase.ExpectedQuery, request.URL.RawQuery)
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.StatusCode)
				_, _ = io.WriteString(writer, testCase.Response)
			}))
			defer server.Close()

			client := NewTestClient(t, server.URL)

			items, err := listFunc(client).List(context.Background(), testCase.Filters)

			if testCase.WantErr != nil {
				require.ErrorIs(t, err, testCase.WantErr)

				return
			}

			require.NoError(t, err)

			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ID())
			}

			assert.Equal(t, testCase.ExpectedIDs, ids)
		})
	}
}
