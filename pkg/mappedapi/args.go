package mappedapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/gorilla/schema"
)

// Reserved call argument names.
const (
	// ArgData is the request body, serialized as JSON.
	ArgData = "data"
	// ArgParams is the query string.
	ArgParams = "params"
)

// ErrInvalidArguments is returned when call arguments cannot be encoded.
var ErrInvalidArguments = errors.New("invalid call arguments")

var queryEncoder = newQueryEncoder()

func newQueryEncoder() *schema.Encoder {
	encoder := schema.NewEncoder()
	encoder.SetAliasTag("url")

	return encoder
}

// Args holds the named arguments of a call: "data", "params", and path ids.
type Args map[string]interface{}

// Data returns the body payload, or nil.
func (a Args) Data() interface{} {
	return a[ArgData]
}

// Params returns the query payload, or nil.
func (a Args) Params() interface{} {
	return a[ArgParams]
}

// With returns a copy of a with key set to value.
func (a Args) With(key string, value interface{}) Args {
	out := a.clone()
	out[key] = value

	return out
}

func (a Args) clone() Args {
	out := make(Args, len(a)+1)
	for key, value := range a {
		out[key] = value
	}

	return out
}

// pathIDs returns the values of the named ids present in a, in order.
// Absent ids are skipped.
func (a Args) pathIDs(names []string) []string {
	ids := make([]string, 0, len(names))

	for _, name := range names {
		value, ok := a[name]
		if !ok {
			continue
		}

		ids = append(ids, url.PathEscape(fmt.Sprint(value)))
	}

	return ids
}

// buildPath alternates base segments and ids, stopping as soon as the
// sequence whose turn it is has run out.
func buildPath(base, ids []string) string {
	if len(ids) == 0 {
		return strings.Join(base, "/")
	}

	segments := make([]string, 0, len(base)+len(ids))

	for i := 0; i < len(base); i++ {
		segments = append(segments, base[i])

		if i >= len(ids) {
			break
		}

		segments = append(segments, ids[i])
	}

	return strings.Join(segments, "/")
}

// missingArgs returns the required names absent from keys, in declaration order.
func missingArgs(required []string, keys map[string]struct{}) []string {
	var missing []string

	for _, name := range required {
		if _, ok := keys[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}

func queryKeys(query url.Values) map[string]struct{} {
	keys := make(map[string]struct{}, len(query))
	for key := range query {
		keys[key] = struct{}{}
	}

	return keys
}

// dataKeys returns the top-level keys of a body payload. Non-object
// payloads have no keys.
func dataKeys(data interface{}) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	switch typed := data.(type) {
	case nil:
		return keys, nil
	case map[string]interface{}:
		for key := range typed {
			keys[key] = struct{}{}
		}

		return keys, nil
	case map[string]string:
		for key := range typed {
			keys[key] = struct{}{}
		}

		return keys, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding data: %w", ErrInvalidArguments, err)
	}

	var object map[string]json.RawMessage

	err = json.Unmarshal(encoded, &object)
	if err != nil {
		return keys, nil //nolint:nilerr // arrays and scalars carry no keys
	}

	for key := range object {
		keys[key] = struct{}{}
	}

	return keys, nil
}

func encodeBody(data interface{}) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding data: %w", ErrInvalidArguments, err)
	}

	return body, nil
}

// encodeQuery converts params into url.Values. Maps, url.Values and structs
// (through gorilla/schema, "url" tags) are accepted.
func encodeQuery(params interface{}) (url.Values, error) {
	switch typed := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return cloneValues(typed), nil
	case map[string][]string:
		return cloneValues(typed), nil
	case map[string]string:
		query := make(url.Values, len(typed))
		for key, value := range typed {
			query.Set(key, value)
		}

		return query, nil
	case map[string]interface{}:
		query := make(url.Values, len(typed))
		for key, value := range typed {
			query[key] = queryValues(value)
		}

		return query, nil
	}

	value := reflect.ValueOf(params)
	if value.Kind() == reflect.Ptr && !value.IsNil() {
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: unsupported params type %T", ErrInvalidArguments, params)
	}

	query := make(url.Values)

	err := queryEncoder.Encode(value.Interface(), query)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding params: %w", ErrInvalidArguments, err)
	}

	return query, nil
}

func queryValues(value interface{}) []string {
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []interface{}:
		values := make([]string, len(typed))
		for i, item := range typed {
			values[i] = fmt.Sprint(item)
		}

		return values
	default:
		return []string{fmt.Sprint(value)}
	}
}

func cloneValues(values map[string][]string) url.Values {
	query := make(url.Values, len(values))
	for key, items := range values {
		query[key] = append([]string(nil), items...)
	}

	return query
}
