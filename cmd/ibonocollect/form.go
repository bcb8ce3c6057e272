package main

import (
	"time"

	"github.com/spf13/cobra"

	"ibonocollect/internal/form"
)

func newFormCmd(newApp func() (*App, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Open the interactive entry form",
		Long: `Open the interactive terminal form for entering translation pairs.

While the form runs, connectivity is probed periodically; queued offline
contributions sync automatically when the connection returns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if app.config.Sync.Enabled && !app.forceOffline {
				stop := make(chan struct{})
				defer close(stop)
				go app.probeLoop(stop)
			}

			return form.Run(app.service, app.monitor)
		},
	}
	return cmd
}

// probeLoop keeps the monitor fed with the host connectivity signal
// while a long-running surface (the form) is open.
func (a *App) probeLoop(stop <-chan struct{}) {
	interval := time.Duration(a.config.ProbeInterval()) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.monitor.SetOnline(a.remoteReachable())
		}
	}
}
