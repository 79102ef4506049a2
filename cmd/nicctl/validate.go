package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/handler"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Cross-check a NIC number against a claimed gender and date of birth",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	cmd.Flags().String("nic", "", "NIC number")
	cmd.Flags().String("gender", "", "Claimed gender (male or female)")
	cmd.Flags().String("dob", "", "Claimed date of birth (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("nic")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	validator, err := validatorFromFlags(cmd)
	if err != nil {
		return err
	}
	claim, err := claimFromFlags(cmd)
	if err != nil {
		return err
	}

	result := validator.Validate(claim)
	if err := writeJSONLine(cmd.OutOrStdout(), handler.FromResult(&result)); err != nil {
		return err
	}
	if !result.Valid() {
		return errInvalid
	}
	return nil
}

func claimFromFlags(cmd *cobra.Command) (domain.Claim, error) {
	nic, err := cmd.Flags().GetString("nic")
	if err != nil {
		return domain.Claim{}, fmt.Errorf("failed to get nic flag: %w", err)
	}
	gender, err := cmd.Flags().GetString("gender")
	if err != nil {
		return domain.Claim{}, fmt.Errorf("failed to get gender flag: %w", err)
	}
	dob, err := cmd.Flags().GetString("dob")
	if err != nil {
		return domain.Claim{}, fmt.Errorf("failed to get dob flag: %w", err)
	}
	return domain.Claim{
		IdentityNumber:     nic,
		ClaimedGender:      gender,
		ClaimedDateOfBirth: dob,
	}, nil
}
