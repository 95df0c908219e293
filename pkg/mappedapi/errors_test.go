package mappedapi_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

func TestUnknownResourceError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `client has no resource "wow"`, (&mappedapi.UnknownResourceError{Name: "wow"}).Error())
	assert.Equal(t, `resource "dogs.shibes" has no child "wow"`,
		(&mappedapi.UnknownResourceError{Name: "wow", Path: "dogs.shibes"}).Error())
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	err := &mappedapi.ValidationError{Missing: []string{"name", "bark"}}

	assert.Equal(t, "Missing required arguments: name,bark", err.Error())
	assert.ErrorIs(t, err, mappedapi.ErrValidation)
}

func TestRequestError_Error(t *testing.T) {
	t.Parallel()

	request := &mappedapi.Request{
		Method: mappedapi.VerbGet,
		URL:    "http://localhost/dogs",
		Headers: http.Header{
			"Authorization": {"Bearer secret"},
			"Accept":        {"application/json"},
		},
		Body: []byte(`{"ignored":true}`),
	}

	tests := []struct {
		name     string
		err      *mappedapi.RequestError
		expected string
	}{
		{
			name: "get hides body",
			err: &mappedapi.RequestError{
				Request:  request,
				Response: &mappedapi.Response{StatusCode: 404, Status: "404 Not Found", Body: []byte("no dogs")},
			},
			expected: "Response: 404: Not Found\n" +
				"Request: GET http://localhost/dogs\n" +
				"Request Headers: Accept=application/json\n" +
				"Response Content:\nno dogs",
		},
		{
			name: "reason from status code",
			err: &mappedapi.RequestError{
				Response: &mappedapi.Response{StatusCode: 503},
			},
			expected: "Response: 503: Service Unavailable",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.err.Error())
			assert.NotContains(t, tt.err.Error(), "secret")
		})
	}
}

func TestRequestError_StatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, (&mappedapi.RequestError{}).StatusCode())
	assert.Equal(t, 418, (&mappedapi.RequestError{Response: &mappedapi.Response{StatusCode: 418}}).StatusCode())
}

func TestConfigurationError(t *testing.T) {
	t.Parallel()

	bare := &mappedapi.ConfigurationError{Setting: "base URL"}
	assert.Equal(t, "configuration error: base URL is not set", bare.Error())
	assert.True(t, mappedapi.IsConfiguration(bare))

	cause := errors.New("boom")
	wrapped := &mappedapi.ConfigurationError{Setting: "mapping", Err: cause}
	assert.Equal(t, "configuration error: mapping: boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, mappedapi.ErrConfiguration)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	reqErr := &mappedapi.RequestError{Response: &mappedapi.Response{StatusCode: 500}}
	wrapped := fmt.Errorf("listing dogs: %w", reqErr)

	assert.True(t, mappedapi.IsRequestError(wrapped))
	assert.False(t, mappedapi.IsValidation(wrapped))
	assert.False(t, mappedapi.IsUnknownResource(wrapped))
	assert.False(t, mappedapi.IsConfiguration(wrapped))

	extracted, ok := mappedapi.AsRequestError(wrapped)
	require.True(t, ok)
	assert.Same(t, reqErr, extracted)

	_, ok = mappedapi.AsRequestError(errors.New("plain"))
	assert.False(t, ok)

	assert.True(t, mappedapi.IsUnknownResource(&mappedapi.UnknownResourceError{Name: "wow"}))
}
