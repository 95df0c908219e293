package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/venuebook/mappedapi/internal/constants"
	"github.com/venuebook/mappedapi/pkg/restclient"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect CLI configuration",
		Long:  "Inspect the configuration assembled from flags, the config file and MAPPEDAPI_* environment variables",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigCheckCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			redacted := config.Redacted()

			if format != constants.FormatTable {
				return writeStructured(cmd.OutOrStdout(), format, redacted)
			}

			return displayConfigTable(cmd, redacted)
		},
	}
}

func newConfigCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate current configuration",
		Long:  "Check that the effective configuration is complete enough to make calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = config.Validate()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")

			return err
		},
	}
}

func displayConfigTable(cmd *cobra.Command, config *restclient.Config) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Property", "Value")

	source := viper.ConfigFileUsed()
	if source == "" {
		source = "(none)"
	}

	_ = table.Append("Config File", source)
	_ = table.Append("Base URL", config.BaseURL)
	_ = table.Append("Mapping File", config.MappingFile)

	switch {
	case config.Token != "":
		_ = table.Append("Auth", config.TokenType+" "+config.Token)
	case config.ClientID != "":
		_ = table.Append("Auth", "OAuth2 client "+config.ClientID)
		_ = table.Append("Token URL", config.TokenURL)

		if len(config.Scopes) > 0 {
			_ = table.Append("Scopes", strings.Join(config.Scopes, ", "))
		}
	default:
		_ = table.Append("Auth", "(none)")
	}

	_ = table.Append("Timeout", config.Timeout.String())
	_ = table.Append("Retries", fmt.Sprintf("%d (%s - %s)", config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	_ = table.Append("User Agent", config.UserAgent)
	_ = table.Append("Debug", strconv.FormatBool(config.Debug))

	if config.RateLimit > 0 {
		_ = table.Append("Rate Limit", strconv.FormatFloat(config.RateLimit, 'f', -1, 64)+"/s")
	}

	names := make([]string, 0, len(config.Headers))
	for name := range config.Headers {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_ = table.Append("Header "+name, config.Headers[name])
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
