package main

import (
	"github.com/spf13/cobra"

	acc "github.com/doumori-team/animalcrossingcommunity-public-sub007"
)

const (
	withWorkerFlag = "with-worker"
	migrateFlag    = "migrate"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API on HTTP_ADDR.

Background jobs run in the same process unless --with-worker=false, in which
case they are only enqueued and a separate "acc worker" must run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := acc.LoadConfig()
			if err != nil {
				return err
			}
			log := acc.NewLogger(cfg)

			flags := cmd.Flags()
			migrate, _ := flags.GetBool(migrateFlag)
			withWorker, _ := flags.GetBool(withWorkerFlag)

			if migrate {
				if err := acc.Migrate(cmd.Context(), cfg, log); err != nil {
					return err
				}
			}
			return acc.Serve(cmd.Context(), cfg, log, withWorker)
		},
	}
	cmd.Flags().Bool(withWorkerFlag, true, "run background jobs in this process")
	cmd.Flags().Bool(migrateFlag, false, "apply migrations before serving")
	return cmd
}

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run background jobs only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := acc.LoadConfig()
			if err != nil {
				return err
			}
			return acc.Work(cmd.Context(), cfg, acc.NewLogger(cfg))
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database and job queue migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := acc.LoadConfig()
			if err != nil {
				return err
			}
			return acc.Migrate(cmd.Context(), cfg, acc.NewLogger(cfg))
		},
	}
}
