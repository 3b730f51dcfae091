package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog"
	sagasqlite "github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/config"
)

// newIncidentsCmd prints the incident log for operators reconciling the
// stores by hand.
func newIncidentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incidents [request-id]",
		Short: "Show recorded saga incidents",
		Long: "Without arguments prints how many failures and failed compensations were recorded. " +
			"With a request id prints that request's incidents.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if cfg.Saga.IncidentLog == "" {
				return errors.New("saga.incident_log is not set")
			}

			repo, err := sagasqlite.Open(cfg.Saga.IncidentLog)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, status := range []sagalog.Status{sagalog.StatusFailed, sagalog.StatusCompensationFailed} {
					n, err := repo.CountByStatus(cmd.Context(), status)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%d\n", status, n)
				}
				return nil
			}

			entries, err := repo.ListBySaga(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSTATUS\tOPERATION\tCLASSIFIED\tERROR\tTRACE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.Status, e.Operation, e.Classified, e.Error, e.TraceID)
			}
			return w.Flush()
		},
	}
	return cmd
}
