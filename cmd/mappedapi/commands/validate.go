package commands

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// ErrInvalidMapping is returned after validate has listed the problems.
var ErrInvalidMapping = errors.New("mapping is invalid")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [MAPPING_FILE]",
		Short: "Check a mapping file",
		Long:  "Parse a mapping file and report every problem found in it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}

			mapping, err := loadMapping(path)
			if err != nil {
				problems := mappingProblems(err)
				if len(problems) == 0 {
					return err
				}

				for _, problem := range problems {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", problem)
				}

				return fmt.Errorf("%w: %d problem(s)", ErrInvalidMapping, len(problems))
			}

			count := 0

			_ = mapping.Walk(func(string, *mappedapi.Endpoint) error {
				count++

				return nil
			})

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Mapping OK: %d endpoint(s)\n", count)

			return err
		},
	}
}

// mappingProblems extracts the individual problems of a mapping error.
func mappingProblems(err error) []error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.WrappedErrors()
	}

	return nil
}
