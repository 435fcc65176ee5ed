package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rpattn/werkimport/internal/config"
	"github.com/rpattn/werkimport/internal/db"
	"github.com/rpattn/werkimport/internal/importer"
	"github.com/rpattn/werkimport/internal/report"
	"github.com/rpattn/werkimport/internal/repository"
	"github.com/rpattn/werkimport/internal/testdata"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "werkimport",
		Short:         "Import Werkleitungen spreadsheets into PostGIS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config-path", ".", "directory searched for config.yaml")

	root.AddCommand(cmdImport())
	root.AddCommand(cmdMigrate())
	root.AddCommand(cmdGenTestdata())

	if err := root.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context, cmd *cobra.Command) (*db.Connection, error) {
	configPath, _ := cmd.Flags().GetString("config-path")
	cfg, err := config.LoadDBConfig(configPath)
	if err != nil {
		return nil, err
	}
	return db.NewConnection(ctx, cfg)
}

func cmdImport() *cobra.Command {
	var workers int
	var noReport bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "validate a spreadsheet and load the valid rows in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inputPath := args[0]

			conn, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := importer.NewService(
				repository.NewWerkleitungRepository(conn),
				repository.NewImportStatRepository(conn),
				importer.WithWorkers(workers),
			)

			result, err := svc.ImportFile(ctx, inputPath)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d row(s) read, %d imported, %d rejected (%.2fs)\n",
				result.FileName, result.TotalRows, result.Accepted, result.RejectedCount(),
				result.Duration.Seconds())

			if result.RejectedCount() > 0 && !noReport {
				reportPath := report.FileName(inputPath, time.Now())
				if err := report.WriteFile(reportPath, result.Rejected); err != nil {
					return err
				}
				fmt.Printf("error report written to %s\n", reportPath)
			}

			// Rejected rows do not fail the run; only a run that could not
			// start exits non-zero.
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent row validators (0 = auto)")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "skip writing the CSV error report")
	return cmd
}

func cmdMigrate() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply the SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conn, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			return db.RunMigrations(ctx, conn.Pool, migrationsPath)
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "migrations", "./migrations", "directory holding *.up.sql files")
	return cmd
}

func cmdGenTestdata() *cobra.Command {
	var records int
	var includeErrors bool
	var seed int64
	var output string

	cmd := &cobra.Command{
		Use:   "gen-testdata",
		Short: "write an XLSX test file with generated pipe records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testdata.Config{
				Records:       records,
				IncludeErrors: includeErrors,
				Seed:          seed,
			}
			if err := testdata.WriteXLSX(output, cfg); err != nil {
				return err
			}
			total := records
			if includeErrors {
				total += 4
			}
			fmt.Printf("%s: wrote %d record(s)\n", output, total)
			return nil
		},
	}

	cmd.Flags().IntVar(&records, "records", 50, "number of valid records to generate")
	cmd.Flags().BoolVar(&includeErrors, "with-errors", false, "append known-bad rows")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&output, "output", "testdaten.xlsx", "output file path")
	return cmd
}
