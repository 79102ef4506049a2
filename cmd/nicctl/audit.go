package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/models"
	"nicgate/internal/platform/config"
	"nicgate/internal/platform/postgres"
	audit "nicgate/pkg/platform/audit"
	auditpostgres "nicgate/pkg/platform/audit/store/postgres"
)

// auditReader is satisfied by the PostgreSQL and in-memory audit stores.
type auditReader interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type auditOpener func(ctx context.Context) (auditReader, func(), error)

func newAuditCmd() *cobra.Command {
	return newAuditCmdWith(openPostgresAudit)
}

func newAuditCmdWith(open auditOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit events stored by nicgate-server",
		Long: `List audit events from the database named by DATABASE_URL. Only servers
without Kafka brokers write audit events to PostgreSQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}
			nic, err := cmd.Flags().GetString("nic")
			if err != nil {
				return fmt.Errorf("failed to get nic flag: %w", err)
			}
			if nic != "" && domain.Classify(nic) == domain.FormatInvalid {
				return errors.New(domain.ReasonInvalidFormat)
			}
			if limit < 1 {
				return errors.New("--limit must be at least 1")
			}

			reader, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			var events []audit.Event
			if nic != "" {
				events, err = reader.ListBySubject(cmd.Context(), models.NumberKey(nic))
			} else {
				events, err = reader.ListRecent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			for _, e := range events {
				if err := writeJSONLine(cmd.OutOrStdout(), e); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of events")
	cmd.Flags().String("nic", "", "Only events for this NIC number")
	return cmd
}

func openPostgresAudit(ctx context.Context) (auditReader, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL is not set")
	}
	pool, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return auditpostgres.New(pool), pool.Close, nil
}
