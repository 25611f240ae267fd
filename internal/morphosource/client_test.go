package morphosource

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphotools/morphoverify/internal/errors"
)

const testEndpoint = "https://registry.test/catalog/media"

// testConfig returns a client config with rate limiting disabled.
func testConfig(opts ...func(*Config)) Config {
	cfg := Config{
		APIKey:  "test-api-key",
		BaseURL: testEndpoint,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// setupHTTPMock activates httpmock and registers cleanup.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func registerResponder(t *testing.T, statusCode int, body string) {
	t.Helper()
	httpmock.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(statusCode, body))
}

// nestedMediaResponse mirrors the registry's response.media shape, with
// one-element-list fields and string-typed spacing values.
func nestedMediaResponse() string {
	return `{
  "response": {
    "media": [
      {
        "id": ["000123456"],
        "physical_object_title": ["UF:Herp:84822"],
        "x_pixel_spacing": ["0.0234"],
        "y_pixel_spacing": ["0.0234"],
        "z_pixel_spacing": ["0.0234"]
      },
      {
        "id": "000987654",
        "physical_object_title": "UF:Herp:99999",
        "x_pixel_spacing": 0.0111,
        "y_pixel_spacing": 0.0111,
        "z_pixel_spacing": 0.0111
      }
    ]
  }
}`
}

func TestClient_Search_Success(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, nestedMediaResponse())

	client, err := NewClient(testConfig())
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "000123456", matches[0].ID)
	require.NotNil(t, matches[0].Spacing.X)
	assert.InDelta(t, 0.0234, *matches[0].Spacing.X, 1e-9)
	require.NotNil(t, matches[0].Spacing.Z)
	assert.InDelta(t, 0.0234, *matches[0].Spacing.Z, 1e-9)
}

func TestClient_Search_ExactMatchIsCaseInsensitive(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, `{
  "response": {
    "media": [
      {"id": "1", "physical_object_title": " uf:herp:84822 "}
    ]
  }
}`)

	client, err := NewClient(testConfig())
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "1", matches[0].ID)
	assert.Nil(t, matches[0].Spacing.X)
}

func TestClient_Search_ResponseAsBareList(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, `{
  "response": [
    {"id": "42", "physical_object_title": "UF:Herp:84822"}
  ]
}`)

	client, err := NewClient(testConfig())
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "42", matches[0].ID)
}

func TestClient_Search_NoMatches(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, `{"response": {"media": []}}`)

	client, err := NewClient(testConfig())
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClient_Search_UnexpectedShapeIsEmpty(t *testing.T) {
	setupHTTPMock(t)

	// No media in any known location, defensively treated as no results
	registerResponder(t, http.StatusOK, `{"docs": [{"id": "1"}]}`)

	client, err := NewClient(testConfig())
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClient_Search_HTTPError(t *testing.T) {
	setupHTTPMock(t)

	tests := []struct {
		name         string
		statusCode   int
		wantCategory errors.ErrorCategory
	}{
		{"unauthorized", http.StatusUnauthorized, errors.CategoryConfiguration},
		{"forbidden", http.StatusForbidden, errors.CategoryConfiguration},
		{"too_many_requests", http.StatusTooManyRequests, errors.CategoryLimit},
		{"internal_server_error", http.StatusInternalServerError, errors.CategoryHTTP},
		{"service_unavailable", http.StatusServiceUnavailable, errors.CategoryHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			registerResponder(t, tt.statusCode, `{"error": "nope"}`)

			client, err := NewClient(testConfig())
			require.NoError(t, err)

			matches, err := client.Search(context.Background(), "UF:Herp:84822")

			require.Error(t, err)
			assert.Nil(t, matches)
			assert.True(t, errors.IsCategory(err, tt.wantCategory),
				"expected category %s, got %v", tt.wantCategory, err)
		})
	}
}

func TestClient_Search_InvalidJSON(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, `{invalid json`)

	client, err := NewClient(testConfig())
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.Error(t, err)
	assert.Nil(t, matches)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestNewClient_NoAPIKey(t *testing.T) {
	client, err := NewClient(Config{})

	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Contains(t, err.Error(), "API key")
}

// memorySink records dumps for assertions, optionally failing on purpose.
type memorySink struct {
	dumps map[string][]byte
	fail  bool
}

func (s *memorySink) Dump(name string, payload []byte) error {
	if s.fail {
		return errors.NewStd("sink unavailable")
	}
	if s.dumps == nil {
		s.dumps = make(map[string][]byte)
	}
	s.dumps[name] = payload
	return nil
}

func TestClient_Search_DumpsFirstResponses(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, `{"response": {"media": []}}`)

	sink := &memorySink{}
	client, err := NewClient(testConfig(), WithDumpSink(sink, 2))
	require.NoError(t, err)

	for _, id := range []string{"UF:Herp:1", "UF:Herp:2", "UF:Herp:3"} {
		_, err := client.Search(context.Background(), id)
		require.NoError(t, err)
	}

	// Only the first two responses are persisted, names use the slug form
	require.Len(t, sink.dumps, 2)
	assert.Contains(t, sink.dumps, "debug_response_UF_Herp_1.json")
	assert.Contains(t, sink.dumps, "debug_response_UF_Herp_2.json")
}

func TestClient_Search_DumpFailureDoesNotFailRow(t *testing.T) {
	setupHTTPMock(t)

	registerResponder(t, http.StatusOK, nestedMediaResponse())

	client, err := NewClient(testConfig(), WithDumpSink(&memorySink{fail: true}, 5))
	require.NoError(t, err)

	matches, err := client.Search(context.Background(), "UF:Herp:84822")

	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
