package mappedapi

import (
	"context"
	"fmt"
	"strings"
)

// Resource is one traversal step through the mapping: either a nested
// resource that can be resolved further or a callable endpoint.
//
// A Resource is cheap and holds no mutable state; resolving the same path
// twice yields two independent, equivalent values.
type Resource struct {
	name       string
	path       string
	node       *Node
	dispatcher *dispatcher
}

func resolveIn(mapping Mapping, parent, name string, d *dispatcher) (*Resource, error) {
	node, ok := mapping[name]
	if !ok {
		return nil, &UnknownResourceError{Name: name, Path: parent}
	}

	return &Resource{
		name:       name,
		path:       joinPath(parent, name),
		node:       node,
		dispatcher: d,
	}, nil
}

func resolvePath(mapping Mapping, parent, dotted string, d *dispatcher) (*Resource, error) {
	if dotted == "" {
		return nil, ErrEmptyPath
	}

	names := strings.Split(dotted, ".")

	current, err := resolveIn(mapping, parent, names[0], d)
	if err != nil {
		return nil, err
	}

	for _, name := range names[1:] {
		current, err = current.Resolve(name)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

// Name returns the last path segment.
func (r *Resource) Name() string {
	return r.name
}

// FullPath returns the dotted path from the client root, e.g. "dogs.shibes.get".
func (r *Resource) FullPath() string {
	return r.path
}

// IsLeaf reports whether the resource is callable.
func (r *Resource) IsLeaf() bool {
	return r.node.IsLeaf()
}

// Endpoint returns a copy of the leaf descriptor, or nil for nested resources.
func (r *Resource) Endpoint() *Endpoint {
	if !r.node.IsLeaf() {
		return nil
	}

	endpoint := *r.node.Endpoint
	endpoint.Base = append([]string(nil), endpoint.Base...)
	endpoint.IDs = append([]string(nil), endpoint.IDs...)
	endpoint.RequiredArgs = append([]string(nil), endpoint.RequiredArgs...)

	return &endpoint
}

// Children returns the sorted child names; leaves have none.
func (r *Resource) Children() []string {
	if r.node.IsLeaf() {
		return nil
	}

	return r.node.Children.Names()
}

// Resolve looks up a direct child. Any name asked of a leaf is unknown.
func (r *Resource) Resolve(name string) (*Resource, error) {
	if r.node.IsLeaf() {
		return nil, &UnknownResourceError{Name: name, Path: r.path}
	}

	return resolveIn(r.node.Children, r.path, name, r.dispatcher)
}

// Path resolves a dotted sequence of names below this resource.
func (r *Resource) Path(dotted string) (*Resource, error) {
	if r.node.IsLeaf() {
		first, _, _ := strings.Cut(dotted, ".")

		return nil, &UnknownResourceError{Name: first, Path: r.path}
	}

	return resolvePath(r.node.Children, r.path, dotted, r.dispatcher)
}

// Call performs the HTTP request described by a leaf resource.
//
// Recognized arguments are "data" (JSON body), "params" (query string) and
// the names listed in the endpoint's ids. Responses with status >= 300 are
// returned as *RequestError.
func (r *Resource) Call(ctx context.Context, args Args) (*Response, error) {
	if !r.node.IsLeaf() {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, r.path)
	}

	return r.dispatcher.dispatch(ctx, r.path, r.node.Endpoint, args)
}
