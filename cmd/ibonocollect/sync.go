package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	syncpkg "ibonocollect/collect/sync"
	"ibonocollect/internal/utils"
)

func newSyncCmd(newApp func() (*App, error)) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push queued offline changes to the server now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if watch {
				return app.watchAndSync()
			}

			if !app.monitor.Online() {
				return utils.ErrSyncUnavailable(fmt.Errorf("server unreachable"))
			}

			result, err := app.processor.ProcessQueue(context.Background())
			if errors.Is(err, syncpkg.ErrSyncInFlight) {
				fmt.Println("A sync is already running.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Sync finished in %s: %d completed, %d left for retry",
				result.Duration.Round(time.Millisecond), result.Completed, result.Failed+result.Skipped)
			if result.Abandoned > 0 {
				fmt.Printf(", %d abandoned (went offline)", result.Abandoned)
			}
			fmt.Println()
			for _, e := range result.Errors {
				fmt.Println("  -", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running, probing connectivity and syncing on reconnect")
	return cmd
}

// watchAndSync keeps the process alive, feeding the connectivity probe
// into the monitor so queued changes replay whenever the connection
// returns. Stops on SIGINT/SIGTERM.
func (a *App) watchAndSync() error {
	if !a.config.Sync.Enabled {
		return utils.ErrSyncNotEnabled()
	}

	stop := make(chan struct{})
	defer close(stop)
	go a.probeLoop(stop)

	// Drain anything already queued before settling into the probe loop.
	a.monitor.TriggerNow()

	fmt.Printf("Watching connectivity every %ds; Ctrl-C to stop.\n", a.config.ProbeInterval())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("\nStopping.")
	return nil
}

func newStatusCmd(newApp func() (*App, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, queue depth and record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			session, err := app.resolver.Resolve()
			if err != nil {
				return err
			}
			queue, err := app.local.ListQueue()
			if err != nil {
				return err
			}
			counts, err := app.local.CountsByStatus()
			if err != nil {
				return err
			}
			total := 0
			for _, n := range counts {
				total += n
			}

			if asJSON {
				return utils.OutputJSON(map[string]interface{}{
					"connection": app.monitor.Status().String(),
					"user_id":    session.UserID,
					"session":    string(session.Source),
					"queued":     len(queue),
					"records": map[string]int{
						"total":   total,
						"synced":  counts["synced"],
						"pending": counts["pending"],
						"error":   counts["error"],
					},
				})
			}

			fmt.Printf("Connection: %s\n", app.monitor.Status())
			if session.UserID != "" {
				fmt.Printf("Signed in as: %s (%s)\n", session.UserID, session.Source)
			} else {
				fmt.Println("Signed in as: (not signed in)")
			}
			fmt.Printf("Queued changes: %d\n", len(queue))
			fmt.Printf("Local records: %d (%d synced, %d pending, %d failed)\n",
				total, counts["synced"], counts["pending"], counts["error"])
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	return cmd
}
