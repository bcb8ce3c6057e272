package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ibonocollect/collect"
	syncpkg "ibonocollect/collect/sync"
	"ibonocollect/internal/auth"
	"ibonocollect/internal/config"
	"ibonocollect/internal/network"
	"ibonocollect/internal/utils"
)

// App holds the wired components shared by all commands.
type App struct {
	config    *config.Config
	local     *collect.LocalStore
	remote    collect.RemoteStore
	resolver  *auth.Resolver
	monitor   *network.Monitor
	processor *syncpkg.Processor
	service   *collect.RecordService

	forceOffline bool
}

// NewApp wires the full stack: local store, remote client, auth
// resolver, network monitor, sync processor and record service.
func NewApp(forceOffline bool) (*App, error) {
	cfg := config.GetConfig()

	dbPath, err := utils.ExpandPath(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	db, err := collect.OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	local := collect.NewLocalStore(db)

	resolver := auth.NewResolver()

	remote, err := collect.NewHTTPRemoteStore(cfg.RemoteURL, resolver.Token)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr, "[ibonocollect] ", log.LstdFlags)
	monitor := network.NewMonitor(false, logger)
	processor := syncpkg.New(local, remote, monitor, logger)

	// Connectivity returning drains the queue; a trigger landing while
	// a pass is already in flight is dropped.
	monitor.SubscribeOnlineTrigger(func(ctx context.Context) error {
		_, err := processor.ProcessQueue(ctx)
		if errors.Is(err, syncpkg.ErrSyncInFlight) {
			return nil
		}
		return err
	})

	service := collect.NewRecordService(local, remote, resolver, monitor,
		processor.ReconcileRecords, logger)

	app := &App{
		config:       cfg,
		local:        local,
		remote:       remote,
		resolver:     resolver,
		monitor:      monitor,
		processor:    processor,
		service:      service,
		forceOffline: forceOffline,
	}
	return app, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   string
		verbose      bool
		forceOffline bool
	)

	rootCmd := &cobra.Command{
		Use:   "ibonocollect",
		Short: "Collect English–Ibọnọ translation pairs, online or offline",
		Long: `ibonocollect gathers bilingual translation pairs for dataset building.
Saves work with or without a connection: offline contributions are
stored locally and synced to the server when connectivity returns.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				config.SetCustomConfigPath(configPath)
			}
			utils.GetLogger().SetVerbose(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file or directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&forceOffline, "offline", false, "skip the connectivity probe and work offline")

	newApp := func() (*App, error) {
		app, err := NewApp(forceOffline)
		if err != nil {
			return nil, err
		}
		app.probeConnectivity()
		return app, nil
	}

	rootCmd.AddCommand(newAddCmd(newApp))
	rootCmd.AddCommand(newListCmd(newApp))
	rootCmd.AddCommand(newDeleteCmd(newApp))
	rootCmd.AddCommand(newContextCmd(newApp))
	rootCmd.AddCommand(newSyncCmd(newApp))
	rootCmd.AddCommand(newStatusCmd(newApp))
	rootCmd.AddCommand(newExportCmd(newApp))
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newFormCmd(newApp))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// probeConnectivity checks whether the remote service is reachable and
// feeds the result into the network monitor. The monitor stays the
// single source of truth; this is just the host connectivity signal for
// a CLI process.
func (a *App) probeConnectivity() {
	if a.forceOffline {
		a.monitor.SetOnline(false)
		return
	}
	a.monitor.SetOnline(a.remoteReachable())
}

func (a *App) remoteReachable() bool {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Head(a.config.RemoteURL)
	if err != nil {
		utils.Debugf("connectivity probe failed: %v", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// Close releases the app's resources.
func (a *App) Close() {
	a.monitor.Wait()
	if err := a.local.Close(); err != nil {
		utils.Warnf("failed to close local store: %v", err)
	}
}
