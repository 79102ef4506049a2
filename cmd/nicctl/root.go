package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"nicgate/internal/nic/domain"
)

// errInvalid makes the process exit 1 without an error message; the JSON
// output already explains the outcome.
var errInvalid = errors.New("invalid")

const toleranceFlag = "tolerance"

// newRootCmd creates the root command for nicctl
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nicctl",
		Short: "Decode and validate Sri Lankan NIC numbers",
		Long: `nicctl decodes gender and date of birth from legacy (9 digits + V/X)
and modern (12 digits) NIC numbers, and cross-checks them against claimed
details.

Examples:
  nicctl decode 923455123V
  nicctl validate --nic 923455123V --gender male --dob 1992-12-10
  nicctl batch --file claims.yaml --workers 8`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Int(toleranceFlag, domain.DefaultDateTolerance, "Accepted date of birth difference in days")

	rootCmd.AddCommand(
		newDecodeCmd(),
		newValidateCmd(),
		newBatchCmd(),
		newRecordsCmd(),
		newAuditCmd(),
	)
	return rootCmd
}

func validatorFromFlags(cmd *cobra.Command) (*domain.Validator, error) {
	tolerance, err := cmd.Flags().GetInt(toleranceFlag)
	if err != nil {
		return nil, err
	}
	if tolerance < 0 {
		return nil, errors.New("--tolerance must not be negative")
	}
	return domain.NewValidator(domain.WithDateTolerance(tolerance)), nil
}

func writeJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
