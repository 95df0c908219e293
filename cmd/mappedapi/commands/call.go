package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/venuebook/mappedapi/internal/constants"
	"github.com/venuebook/mappedapi/pkg/hooks"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
	"github.com/venuebook/mappedapi/pkg/restclient"
	"golang.org/x/term"
)

type callOptions struct {
	ids         []string
	params      []string
	data        string
	promptToken bool
	natsURL     string
	natsSubject string
}

// callResult is the structured output of a call.
type callResult struct {
	StatusCode int         `json:"status_code" yaml:"status_code"`
	Status     string      `json:"status"      yaml:"status"`
	Body       interface{} `json:"body"        yaml:"body"`
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	opts := &callOptions{}

	cmd := &cobra.Command{
		Use:   "call PATH",
		Short: "Call an endpoint",
		Long: `Resolve a dotted mapping path and call the endpoint it names.

Path ids are given with --id, query parameters with --param, and the JSON
body with --data (inline, or @file to read it from disk).`,
		Example: `  mappedapi call dogs.shibes.get --id dog_id=1
  mappedapi call dogs.shibes.post --id dog_id=1 --data '{"name":"doge"}'
  mappedapi call dogs.list --param page=2 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.ids, "id", nil, "path id as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.params, "param", nil, "query parameter as name=value (repeatable)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "JSON request body, or @file")
	cmd.Flags().BoolVar(&opts.promptToken, "prompt-token", false, "read the token from the terminal")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "publish a call event to this NATS server")
	cmd.Flags().StringVar(&opts.natsSubject, "nats-subject", hooks.DefaultSubject, "NATS subject for call events")

	return cmd
}

func runCall(cmd *cobra.Command, path string, opts *callOptions) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if config.BaseURL == "" {
		return constants.ErrNoBaseURL
	}

	if opts.promptToken {
		config.Token, err = promptToken(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	mapping, err := loadMapping(config.MappingFile)
	if err != nil {
		return err
	}

	callArgs, err := buildArgs(opts)
	if err != nil {
		return err
	}

	logger := NewLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))
	clientOpts := []restclient.Option{restclient.WithLogger(logger)}

	if opts.natsURL != "" {
		conn, err := hooks.ConnectNATS(opts.natsURL)
		if err != nil {
			return err
		}

		defer func() {
			_ = conn.Flush()
			conn.Close()
		}()

		clientOpts = append(clientOpts,
			restclient.WithRequestInterceptor(hooks.StartTimer()),
			restclient.WithResponseInterceptor(hooks.NATSPublisher(conn, opts.natsSubject,
				hooks.WithErrorHandler(func(err error) {
					logger.Warn("Call event not published", map[string]interface{}{"error": err.Error()})
				}),
			)),
		)
	}

	client, err := restclient.New(cmd.Context(), config, mapping, clientOpts...)
	if err != nil {
		return err
	}

	resource, err := client.Path(path)
	if err != nil {
		return err
	}

	if !resource.IsLeaf() {
		return fmt.Errorf("%w: %s (children: %s)", constants.ErrEndpointNotCallable, path, strings.Join(resource.Children(), ", "))
	}

	resp, err := resource.Call(cmd.Context(), callArgs)
	if err != nil {
		return err
	}

	return writeResponse(cmd.OutOrStdout(), format, resp)
}

func buildArgs(opts *callOptions) (mappedapi.Args, error) {
	ids, err := parseKeyValues(opts.ids)
	if err != nil {
		return nil, err
	}

	params, err := parseKeyValues(opts.params)
	if err != nil {
		return nil, err
	}

	data, err := parseData(opts.data)
	if err != nil {
		return nil, err
	}

	args := mappedapi.Args{}

	for name, value := range ids {
		args[name] = value
	}

	if len(params) > 0 {
		args[mappedapi.ArgParams] = params
	}

	if data != nil {
		args[mappedapi.ArgData] = data
	}

	return args, nil
}

func promptToken(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", constants.ErrNotTerminal
	}

	_, _ = fmt.Fprint(prompt, "Token: ")

	token, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return strings.TrimSpace(string(token)), nil
}

func writeResponse(w io.Writer, format string, resp *mappedapi.Response) error {
	if format == constants.FormatTable {
		body := prettyBody(resp.Body)
		if body == "" {
			_, err := fmt.Fprintln(w, resp.Status)

			return err
		}

		_, err := fmt.Fprintln(w, body)

		return err
	}

	result := callResult{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	if len(resp.Body) > 0 {
		var decoded interface{}
		if json.Unmarshal(resp.Body, &decoded) == nil {
			result.Body = decoded
		} else {
			result.Body = string(resp.Body)
		}
	}

	return writeStructured(w, format, result)
}
