package pms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string, opts ClientOptions) *Client {
	t.Helper()
	opts.Provider = "testprovider"
	opts.BaseURL = serverURL
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return NewClient(opts)
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 maps to auth error",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, "testprovider", authErr.Provider)
				assert.False(t, Retryable(err))
			},
		},
		{
			name:   "403 maps to auth error",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
			},
		},
		{
			name:   "500 maps to remote error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var remoteErr *RemoteError
				require.ErrorAs(t, err, &remoteErr)
				assert.Equal(t, http.StatusInternalServerError, remoteErr.Status)
				assert.False(t, Retryable(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, ClientOptions{MaxRetries: -1})
			_, err := client.GetJSON(context.Background(), "/things", nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClientRetriesRateLimited(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{MaxRetries: 1})
	result, err := client.GetJSON(context.Background(), "/things", nil)
	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientRetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{MaxRetries: 1})
	_, err := client.GetJSON(context.Background(), "/things", nil)

	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientRefreshesTokenOn401(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	token := &countingToken{}
	client := newTestClient(t, server.URL, ClientOptions{Token: token, MaxRetries: -1})
	result, err := client.GetJSON(context.Background(), "/things", nil)

	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&token.invalidations))
}

type countingToken struct {
	invalidations int32
}

func (c *countingToken) Headers(ctx context.Context) (map[string]string, error) {
	return map[string]string{"Authorization": "Bearer test"}, nil
}

func (c *countingToken) Invalidate() {
	atomic.AddInt32(&c.invalidations, 1)
}

func TestClientFailFastRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{
		MaxRetries: -1,
		RateLimit:  1,
		RateWindow: time.Hour,
		FailFast:   true,
	})

	_, err := client.GetJSON(context.Background(), "/things", nil)
	require.NoError(t, err)

	_, err = client.GetJSON(context.Background(), "/things", nil)
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
}

func TestClientDecodesXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<Pull_ListOwnerProp_RS><Properties><Property><PropertyID>42</PropertyID></Property></Properties></Pull_ListOwnerProp_RS>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{})
	result, err := client.PostXML(context.Background(), "/Handler.ashx", "<Pull_ListOwnerProp_RQ/>")
	require.NoError(t, err)

	root := MapField(result, "Pull_ListOwnerProp_RS")
	require.NotNil(t, root)
	props := ListField(MapField(root, "Properties"), "Property")
	require.Len(t, props, 1)
	assert.Equal(t, "42", StringField(props[0], "PropertyID"))
}

func TestClientMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, ClientOptions{MaxRetries: -1})
	_, err := client.GetJSON(context.Background(), "/things", nil)

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.False(t, Retryable(err))
}

func TestClientUnavailableOnConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	client := newTestClient(t, server.URL, ClientOptions{MaxRetries: -1})
	_, err := client.GetJSON(context.Background(), "/things", nil)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.True(t, Retryable(err))
}
