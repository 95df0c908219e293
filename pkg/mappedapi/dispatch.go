package mappedapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// dispatcher holds the state shared by every Resource derived from a
// Client. It is never mutated after New.
type dispatcher struct {
	deployment Deployment
	auth       Auth
	transport  Transport
	chain      *InterceptorChain
	logger     Logger
}

func (d *dispatcher) dispatch(ctx context.Context, resource string, endpoint *Endpoint, args Args) (*Response, error) {
	args, err := d.processArgs(ctx, args)
	if err != nil {
		return nil, err
	}

	query, err := encodeQuery(args.Params())
	if err != nil {
		return nil, err
	}

	err = d.validate(endpoint, args, query)
	if err != nil {
		d.logger.Debug("Call rejected", map[string]interface{}{
			"resource": resource,
			"error":    err.Error(),
		})

		return nil, err
	}

	body, err := encodeBody(args.Data())
	if err != nil {
		return nil, err
	}

	headers, err := d.headers(ctx)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(d.deployment.BaseURL(), "/")
	if baseURL == "" {
		return nil, &ConfigurationError{Setting: "base URL"}
	}

	req := &Request{
		Resource: resource,
		Method:   endpoint.Verb,
		URL:      baseURL + "/" + buildPath(endpoint.Base, args.pathIDs(endpoint.IDs)),
		Headers:  headers,
		Query:    query,
		Body:     body,
	}

	return d.send(ctx, req)
}

func (d *dispatcher) processArgs(ctx context.Context, args Args) (Args, error) {
	args = args.clone()

	processor, ok := d.deployment.(ArgumentProcessor)
	if !ok {
		return args, nil
	}

	processed, err := processor.ProcessCallArguments(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("processing call arguments: %w", err)
	}

	if processed == nil {
		processed = Args{}
	}

	return processed, nil
}

func (d *dispatcher) validate(endpoint *Endpoint, args Args, query map[string][]string) error {
	if len(endpoint.RequiredArgs) == 0 {
		return nil
	}

	var present map[string]struct{}

	if endpoint.ValidationTarget() == ArgParams {
		present = queryKeys(query)
	} else {
		keys, err := dataKeys(args.Data())
		if err != nil {
			return err
		}

		present = keys
	}

	missing := missingArgs(endpoint.RequiredArgs, present)
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	return nil
}

func (d *dispatcher) headers(ctx context.Context) (http.Header, error) {
	values, err := d.deployment.Headers(ctx, d.auth)
	if err != nil {
		return nil, fmt.Errorf("building headers: %w", err)
	}

	headers := make(http.Header, len(values))
	for key, value := range values {
		headers.Set(key, value)
	}

	return headers, nil
}

func (d *dispatcher) send(ctx context.Context, req *Request) (*Response, error) {
	err := d.chain.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("API Request", map[string]interface{}{
		"resource": req.Resource,
		"method":   req.Method.String(),
		"url":      req.FullURL(),
	})

	resp, err := d.transport.Do(ctx, req)
	if err != nil {
		failed := &Response{Request: req, Error: err}
		d.warnHookFailure(req, d.chain.ExecuteResponseInterceptors(ctx, req, failed))

		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	if resp.Request == nil {
		resp.Request = req
	}

	hookErr := d.chain.ExecuteResponseInterceptors(ctx, req, resp)

	// A failing hook never hides the status of an unsuccessful call.
	if resp.StatusCode >= http.StatusMultipleChoices {
		reqErr := &RequestError{Request: req, Response: resp}
		if hookErr != nil {
			d.warnHookFailure(req, hookErr)

			return nil, errors.Join(reqErr, hookErr)
		}

		return nil, reqErr
	}

	if hookErr != nil {
		return nil, hookErr
	}

	return resp, nil
}

func (d *dispatcher) warnHookFailure(req *Request, err error) {
	if err == nil {
		return
	}

	d.logger.Warn("Response hook failed", map[string]interface{}{
		"resource": req.Resource,
		"method":   req.Method.String(),
		"error":    err.Error(),
	})
}
