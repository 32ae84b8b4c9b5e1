package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/meur/tiermaker/internal/client"
)

func newHealthCmd(a *app) *cobra.Command {
	var wait time.Duration
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the upload server is reachable",
		Long: `Check that the upload server is reachable.

With --wait the server is polled until it answers or the wait elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			up := e.monitor.Check(ctx)
			if !up && wait > 0 {
				waitCtx, cancel := context.WithTimeout(ctx, wait)
				defer cancel()
				mon := client.NewMonitor(e.client, interval, e.log)
				mon.MarkDown()
				done := make(chan struct{})
				go func() {
					mon.Run(waitCtx)
					close(done)
				}()
				up = mon.WaitUp(waitCtx) == nil
				cancel()
				<-done
			}

			if a.jsonMode {
				status := "down"
				if up {
					status = "ok"
				}
				if err := outputJSON(a.out, map[string]string{"status": status, "apiUrl": e.client.BaseURL()}); err != nil {
					return err
				}
			} else if up {
				printSuccess(a.out, "Upload server at %s is up", e.client.BaseURL())
			}
			if !up {
				return client.ErrServiceDown
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep polling until the server answers, up to this long")
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "Polling interval with --wait")
	return cmd
}
