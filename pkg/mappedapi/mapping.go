package mappedapi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// verbKey marks a mapping node as a leaf.
const verbKey = "verb"

var descriptorValidator = newDescriptorValidator()

func newDescriptorValidator() *validator.Validate {
	validate := validator.New()

	// Report fields under their mapping-file names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return validate
}

// Endpoint is a leaf descriptor: an HTTP verb plus a path template.
type Endpoint struct {
	// Base holds the literal path segments.
	Base []string `json:"endpoint_base"           mapstructure:"endpoint_base" validate:"required,min=1,dive,required" yaml:"endpoint_base"`
	// IDs names the path parameters interleaved with Base.
	IDs []string `json:"endpoint_ids,omitempty"  mapstructure:"endpoint_ids"  validate:"dive,required"                yaml:"endpoint_ids,omitempty"`
	// RequiredArgs must be present in params (GET) or data (other verbs).
	RequiredArgs []string `json:"required_args,omitempty" mapstructure:"required_args" validate:"dive,required"                yaml:"required_args,omitempty"`
	Verb         Verb     `json:"verb"                    mapstructure:"verb"          validate:"required,oneof=GET POST PUT PATCH DELETE" yaml:"verb"`
}

// Template renders the path with "{id}" placeholders, e.g. "dogs/{dog_id}/shibes".
func (e *Endpoint) Template() string {
	placeholders := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		placeholders[i] = "{" + id + "}"
	}

	return buildPath(e.Base, placeholders)
}

// ValidationTarget names the argument checked against RequiredArgs.
func (e *Endpoint) ValidationTarget() string {
	if e.Verb == VerbGet {
		return ArgParams
	}

	return ArgData
}

// Node is either a nested Mapping or a leaf Endpoint, never both.
type Node struct {
	Children Mapping
	Endpoint *Endpoint
}

// IsLeaf reports whether the node is a callable endpoint.
func (n *Node) IsLeaf() bool {
	return n.Endpoint != nil
}

// Mapping is one level of the resource tree, keyed by resource or action name.
type Mapping map[string]*Node

// Names returns the child names in sorted order.
func (m Mapping) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Walk calls fn for every leaf in depth-first, name-sorted order.
func (m Mapping) Walk(fn func(path string, endpoint *Endpoint) error) error {
	return m.walk("", fn)
}

func (m Mapping) walk(prefix string, fn func(path string, endpoint *Endpoint) error) error {
	for _, name := range m.Names() {
		node := m[name]
		path := joinPath(prefix, name)

		if node.IsLeaf() {
			err := fn(path, node.Endpoint)
			if err != nil {
				return err
			}

			continue
		}

		err := node.Children.walk(path, fn)
		if err != nil {
			return err
		}
	}

	return nil
}

// LoadMappingFile reads a YAML or JSON mapping document from disk.
func LoadMappingFile(path string) (Mapping, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening mapping file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadMapping(file)
}

// LoadMapping decodes a YAML or JSON mapping document.
func LoadMapping(r io.Reader) (Mapping, error) {
	var raw map[string]interface{}

	err := yaml.NewDecoder(r).Decode(&raw)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigurationError{Setting: "mapping"}
		}

		return nil, &ConfigurationError{Setting: "mapping", Err: fmt.Errorf("decoding document: %w", err)}
	}

	return ParseMapping(raw)
}

// ParseMapping builds a Mapping from a generic decoded document. Every
// problem found in the document is reported in one ConfigurationError.
func ParseMapping(raw map[string]interface{}) (Mapping, error) {
	if len(raw) == 0 {
		return nil, &ConfigurationError{Setting: "mapping"}
	}

	var problems *multierror.Error

	mapping := parseLevel("", raw, &problems)

	err := problems.ErrorOrNil()
	if err != nil {
		return nil, &ConfigurationError{Setting: "mapping", Err: err}
	}

	return mapping, nil
}

func parseLevel(prefix string, raw map[string]interface{}, problems **multierror.Error) Mapping {
	mapping := make(Mapping, len(raw))

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		value := raw[name]
		path := joinPath(prefix, name)

		if strings.TrimSpace(name) == "" || strings.Contains(name, ".") {
			*problems = multierror.Append(*problems, fmt.Errorf("%q: invalid resource name", path))

			continue
		}

		children, ok := asStringMap(value)
		if !ok {
			*problems = multierror.Append(*problems, fmt.Errorf("%s: expected a mapping, got %T", path, value))

			continue
		}

		if _, leaf := children[verbKey]; leaf {
			endpoint, err := parseEndpoint(children)
			if err != nil {
				*problems = multierror.Append(*problems, fmt.Errorf("%s: %w", path, err))

				continue
			}

			mapping[name] = &Node{Endpoint: endpoint}

			continue
		}

		if len(children) == 0 {
			*problems = multierror.Append(*problems, fmt.Errorf("%s: nested resource has no children", path))

			continue
		}

		mapping[name] = &Node{Children: parseLevel(path, children, problems)}
	}

	return mapping
}

func parseEndpoint(raw map[string]interface{}) (*Endpoint, error) {
	var endpoint Endpoint

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	err = decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding endpoint: %w", err)
	}

	endpoint.Verb = Verb(strings.ToUpper(strings.TrimSpace(string(endpoint.Verb))))

	err = descriptorValidator.Struct(&endpoint)
	if err != nil {
		return nil, describeValidation(err)
	}

	return &endpoint, nil
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors

	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))

	for _, fieldErr := range fieldErrs {
		var msg string

		switch fieldErr.Tag() {
		case "required":
			msg = "required"
		case "min":
			msg = "must have at least " + fieldErr.Param() + " entry"
		case "oneof":
			msg = "must be one of: " + fieldErr.Param()
		default:
			msg = "failed " + fieldErr.Tag() + " validation"
		}

		messages = append(messages, fieldErr.Field()+": "+msg)
	}

	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(messages, "; "))
}

func asStringMap(value interface{}) (map[string]interface{}, bool) {
	switch typed := value.(type) {
	case map[string]interface{}:
		return typed, true
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(typed))
		for key, child := range typed {
			converted[fmt.Sprint(key)] = child
		}

		return converted, true
	default:
		return nil, false
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}
