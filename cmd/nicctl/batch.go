package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/handler"
)

// ClaimFile is the YAML document read by the batch command.
//
//	claims:
//	  - nic: "923455123V"
//	    gender: male
//	    date_of_birth: "1992-12-10"
type ClaimFile struct {
	Claims []ClaimEntry `yaml:"claims"`
}

type ClaimEntry struct {
	NIC         string `yaml:"nic"`
	Gender      string `yaml:"gender"`
	DateOfBirth string `yaml:"date_of_birth"`
}

type batchLine struct {
	Index int    `json:"index"`
	NIC   string `json:"nic"`
	handler.ValidateResponse
}

type batchSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Validate every claim in a YAML file",
		Long: `Validate every claim in a YAML file. One JSON line per claim is written to
stdout in file order; a summary line is written to stderr.`,
		Args: cobra.NoArgs,
		RunE: runBatch,
	}
	cmd.Flags().StringP("file", "f", "", "Path to the claims file (YAML)")
	cmd.Flags().IntP("workers", "w", runtime.NumCPU(), "Number of concurrent validations")
	cmd.Flags().Bool("strict", false, "Exit 1 when any claim is invalid")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	validator, err := validatorFromFlags(cmd)
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to get file flag: %w", err)
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return fmt.Errorf("failed to get strict flag: %w", err)
	}

	file, err := loadClaimFile(path)
	if err != nil {
		return err
	}

	results, err := validateAll(cmd, validator, file.Claims, workers)
	if err != nil {
		return err
	}

	summary := batchSummary{Total: len(results)}
	out := cmd.OutOrStdout()
	for i, result := range results {
		if result.Valid() {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		line := batchLine{
			Index:            i,
			NIC:              file.Claims[i].NIC,
			ValidateResponse: handler.FromResult(&result),
		}
		if err := writeJSONLine(out, line); err != nil {
			return err
		}
	}
	if err := writeJSONLine(cmd.ErrOrStderr(), summary); err != nil {
		return err
	}

	if strict && summary.Invalid > 0 {
		return errInvalid
	}
	return nil
}

// validateAll runs the validator over claims with at most workers in flight.
// Results keep the input order.
func validateAll(cmd *cobra.Command, validator *domain.Validator, claims []ClaimEntry, workers int) ([]domain.Result, error) {
	if workers < 1 {
		return nil, errors.New("--workers must be at least 1")
	}
	results := make([]domain.Result, len(claims))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for i, c := range claims {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validator.Validate(domain.Claim{
				IdentityNumber:     c.NIC,
				ClaimedGender:      c.Gender,
				ClaimedDateOfBirth: c.DateOfBirth,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func loadClaimFile(path string) (*ClaimFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read claims file: %w", err)
	}
	var file ClaimFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse claims file: %w", err)
	}
	return &file, nil
}
