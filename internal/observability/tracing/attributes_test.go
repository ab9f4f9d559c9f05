package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.method", "POST"),
		attribute.String("oauth.code", "abc"),
		attribute.String("refresh_token", "xyz"),
		attribute.Int("http.status_code", 200),
	)
	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, string(a.Key))
	}
	assert.ElementsMatch(t, []string{"http.method", "http.status_code"}, keys)
}

func TestSafeErrorKeepsTypeOnly(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.Equal(t, "*errors.errorString", SafeError(errors.New("secret detail")).Error())
}

func TestWrapHTTPClientPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := WrapHTTPClient(nil)
	resp, err := client.Get(srv.URL + "/v3/company/1/query")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.NotSame(t, http.DefaultClient, client)
}
