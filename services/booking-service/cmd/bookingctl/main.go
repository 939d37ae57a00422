// Command bookingctl is the operator CLI for barberbook: it applies embedded
// schemas and exposes the slot arithmetic for quick checks.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	authmigrations "github.com/md-rashed-zaman/barberbook/services/auth-service/migrations"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
	bookingmigrations "github.com/md-rashed-zaman/barberbook/services/booking-service/migrations"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bookingctl",
		Short:        "Operate the barberbook booking stack",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(parseDurationCmd())
	root.AddCommand(slotsCmd())
	return root
}

type schema struct {
	files  fs.FS
	lockID int64
}

var schemas = map[string]schema{
	"booking": {files: bookingmigrations.Files, lockID: bookingmigrations.LockID},
	"auth":    {files: authmigrations.Files, lockID: authmigrations.LockID},
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply a service's embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _ := cmd.Flags().GetString("service")
			dsn, _ := cmd.Flags().GetString("database-url")
			s, ok := schemas[service]
			if !ok {
				return fmt.Errorf("unknown service %q (want booking or auth)", service)
			}
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			if dsn == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool, s.files, s.lockID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s migrations applied\n", service)
			return nil
		},
	}
	cmd.Flags().String("service", "booking", "Schema to migrate: booking or auth")
	cmd.Flags().String("database-url", "", "Postgres DSN (defaults to $DATABASE_URL)")
	return cmd
}

func parseDurationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-duration HH:MM",
		Short: "Print the milliseconds an HH:MM descriptor names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := scheduling.ParseDuration(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Milliseconds())
			return nil
		},
	}
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the half-open interval a booking would occupy",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawStart, _ := cmd.Flags().GetString("start")
			rawDuration, _ := cmd.Flags().GetString("duration")
			start, err := time.Parse(time.RFC3339, rawStart)
			if err != nil {
				return fmt.Errorf("--start must be an RFC 3339 timestamp: %w", err)
			}
			d, err := scheduling.ParseDuration(rawDuration)
			if err != nil {
				return err
			}
			slot := scheduling.ComputeSlot(start.UTC(), d)
			fmt.Fprintf(cmd.OutOrStdout(), "[%s, %s)\n", slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("start", "", "Slot start, RFC 3339")
	cmd.Flags().String("duration", "", "Service duration, HH:MM")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}
