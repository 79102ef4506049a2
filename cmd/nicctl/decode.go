package main

import (
	"github.com/spf13/cobra"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/handler"
)

type decodeOutput struct {
	Valid bool `json:"valid"`
	handler.DecodeResponse
	Reason string `json:"reason,omitempty"`
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <nic>",
		Short: "Derive gender and date of birth from a NIC number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			derived := domain.Decode(args[0])
			if !derived.Valid {
				out := decodeOutput{Reason: domain.ReasonInvalidFormat}
				out.Format = domain.FormatInvalid.String()
				if err := writeJSONLine(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				return errInvalid
			}
			return writeJSONLine(cmd.OutOrStdout(), decodeOutput{
				Valid:          true,
				DecodeResponse: handler.FromDerived(derived),
			})
		},
	}
}
