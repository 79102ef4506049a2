package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"nicgate/internal/nic/models"
	"nicgate/internal/nic/service"
	"nicgate/internal/nic/store/record"
	"nicgate/internal/platform/config"
	"nicgate/internal/platform/postgres"
)

// recordOpener returns the record store to read from and a release func.
type recordOpener func(ctx context.Context) (service.RecordStore, func(), error)

func newRecordsCmd() *cobra.Command {
	return newRecordsCmdWith(openPostgresRecords)
}

func newRecordsCmdWith(open recordOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List validation records stored by nicgate-server",
		Long: `List validation records from the database named by DATABASE_URL (read from
the environment or a .env file). Records hold a hash of the NIC, never the
number itself; --nic hashes the given number to find its history.`,
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

			store, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			svc := service.New(
				service.WithRecordStore(store),
				service.WithLogger(slog.New(slog.DiscardHandler)),
			)

			var records []*models.ValidationRecord
			if nic != "" {
				records, err = svc.History(cmd.Context(), nic)
			} else {
				records, err = svc.Records(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			for _, r := range records {
				if err := writeJSONLine(cmd.OutOrStdout(), r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", service.DefaultRecordLimit, "Maximum number of records")
	cmd.Flags().String("nic", "", "Only records for this NIC number")
	return cmd
}

func openPostgresRecords(ctx context.Context) (service.RecordStore, func(), error) {
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
	return record.NewPostgres(pool), pool.Close, nil
}
