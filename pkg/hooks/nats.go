package hooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// DefaultSubject is the subject events are published on when none is given.
const DefaultSubject = "mappedapi.calls"

// Publisher is the subset of *nats.Conn used by NATSPublisher.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// PublisherOption configures NATSPublisher.
type PublisherOption func(*publisherConfig)

type publisherConfig struct {
	onError    func(error)
	strict     bool
	onlyFailed bool
}

// WithErrorHandler receives publish failures. By default they are dropped.
func WithErrorHandler(fn func(error)) PublisherOption {
	return func(c *publisherConfig) {
		c.onError = fn
	}
}

// WithStrict makes a publish failure fail the call.
func WithStrict() PublisherOption {
	return func(c *publisherConfig) {
		c.strict = true
	}
}

// WithFailuresOnly publishes only calls that failed.
func WithFailuresOnly() PublisherOption {
	return func(c *publisherConfig) {
		c.onlyFailed = true
	}
}

// NATSPublisher returns a hook publishing a JSON CallEvent per call on subject.
func NATSPublisher(pub Publisher, subject string, opts ...PublisherOption) mappedapi.ResponseInterceptor {
	if subject == "" {
		subject = DefaultSubject
	}

	config := &publisherConfig{}
	for _, opt := range opts {
		opt(config)
	}

	return func(ctx context.Context, req *mappedapi.Request, resp *mappedapi.Response) error {
		event := NewCallEvent(req, resp)
		if config.onlyFailed && !event.Failed() {
			return nil
		}

		payload, err := json.Marshal(event)
		if err == nil {
			err = pub.Publish(subject, payload)
		}

		if err == nil {
			return nil
		}

		err = fmt.Errorf("publishing call event to %s: %w", subject, err)

		if config.onError != nil {
			config.onError(err)
		}

		if config.strict {
			return err
		}

		return nil
	}
}

// ConnectNATS connects to a NATS server for use with NATSPublisher.
func ConnectNATS(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts = append([]nats.Option{nats.Name("mappedapi")}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return conn, nil
}
