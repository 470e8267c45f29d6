// cmd/agent/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"printer-agent/internal/api"
	"printer-agent/internal/config"
	"printer-agent/internal/handler"
	"printer-agent/internal/model"
	"printer-agent/internal/render"
	"printer-agent/internal/routes"
	"printer-agent/internal/service"
	"printer-agent/internal/store"
	"printer-agent/internal/updater"
	"printer-agent/internal/utils"
)

const pairingCodeLength = 6

// Application holds the wired-up agent
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server
	store  *store.Store

	apiClient *api.Client
	renderer  *render.Renderer
	eventBus  *handler.EventBus

	printerService   *service.PrinterService
	discoveryService *service.DiscoveryService
	jobProcessor     *service.JobProcessor
}

// @title Printer Agent API
// @version 1.0.0
// @description Local control API for the receipt printer edge agent
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8091
// @BasePath /api/v1
func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Invoking the binary bare runs the
// agent, matching how the systemd unit calls it.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Receipt printer edge agent",
		Long: `Polls the ordering backend for print jobs, renders receipt
templates to ESC/POS and drives attached thermal printers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent()
		},
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newPairCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// newRunCommand creates the run command
func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent()
		},
	}
}

// newPairCommand creates the pair command
func newPairCommand() *cobra.Command {
	var deviceName string

	cmd := &cobra.Command{
		Use:   "pair <code>",
		Short: "Pair this device with a branch",
		Long: `Register this device at the backend using a pairing code from the
admin panel (Branch > Printers > Generate Pairing Code). The returned
token is written to the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPair(args[0], deviceName)
		},
	}

	cmd.Flags().StringVar(&deviceName, "name", "", "device name shown in the admin panel")

	return cmd
}

// newVersionCommand creates the version command
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				fmt.Println("unknown")
				return
			}
			fmt.Printf("%s %s\n", cfg.App.Name, cfg.App.Version)
		},
	}
}

// runPair performs one-shot device registration
func runPair(pairingCode, deviceName string) error {
	pairingCode = strings.ToUpper(strings.TrimSpace(pairingCode))
	if len(pairingCode) != pairingCodeLength {
		return fmt.Errorf("pairing code must be %d characters", pairingCodeLength)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if deviceName == "" {
		deviceName = cfg.Device.Name
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.CloseLogger(logger)

	client := api.NewClient(cfg.API.BaseURL, "", cfg.API.Timeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	defer cancel()

	result, err := client.Register(ctx, pairingCode, deviceName)
	if err != nil {
		return fmt.Errorf("pairing failed: %w", err)
	}

	if err := cfg.SavePairing(result.Token, result.TokenID, result.BranchGUID); err != nil {
		return fmt.Errorf("pairing succeeded but saving credentials failed: %w", err)
	}

	fmt.Printf("Paired with branch %s\n", result.BranchGUID)
	if result.DeviceName != nil {
		fmt.Printf("Device name: %s\n", *result.DeviceName)
	}
	return nil
}

// runAgent runs the long-lived agent until a shutdown signal
func runAgent() error {
	app, err := NewApplication()
	if err != nil {
		return err
	}
	return app.Start()
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "printer-agent")
	serviceLogger.LogServiceStart(cfg.App.Version, nil)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	app.checkForUpdates()

	if !cfg.IsPaired() {
		return nil, fmt.Errorf("device is not paired; run `agent pair <code>` with a pairing code from the admin panel")
	}

	if err := app.initializeStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize job ledger: %w", err)
	}

	app.initializeServices()

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// checkForUpdates runs the git self-update. A successful update
// restarts the service, so this call only returns on the no-update and
// error paths.
func (app *Application) checkForUpdates() {
	if !app.config.Update.Enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	u := updater.New(&app.config.Update, app.logger)
	if _, err := u.CheckAndUpdate(ctx); err != nil {
		app.logger.Warn("Update check failed", zap.Error(err))
	}
}

// initializeStore opens the local job ledger
func (app *Application) initializeStore() error {
	jobStore, err := store.Open(app.config.Store.Path, app.logger)
	if err != nil {
		return err
	}
	app.store = jobStore
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() {
	app.eventBus = handler.NewEventBus(app.logger)
	go app.eventBus.Start()

	app.apiClient = api.NewClient(
		app.config.API.BaseURL,
		app.config.API.Token,
		app.config.API.Timeout,
		app.logger,
	)

	app.renderer = render.NewRenderer(app.config.Printer.DefaultWidth, app.logger)

	app.printerService = service.NewPrinterService(
		app.apiClient,
		app.config,
		app.eventBus,
		app.logger,
	)

	app.discoveryService = service.NewDiscoveryService(
		app.printerService,
		app.config,
		app.logger,
	)

	app.jobProcessor = service.NewJobProcessor(
		app.apiClient,
		app.store,
		app.renderer,
		app.printerService,
		app.config,
		app.eventBus,
		app.logger,
	)

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.store,
		app.renderer,
		app.printerService,
		app.discoveryService,
		app.eventBus,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)

	return nil
}

// Start runs the agent until a shutdown signal arrives
func (app *Application) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local control API
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Discovery keeps the printer registry current; the processor
	// drains the backend queue.
	go app.discoveryService.Run(ctx)
	go app.jobProcessor.Run(ctx)

	app.eventBus.Publish(model.NewAgentEvent(model.EventAgentStarted, "agent", "INFO", model.JSONObject{
		"version": app.config.App.Version,
	}))

	<-ctx.Done()
	app.logger.Info("Received shutdown signal")

	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "printer-agent")
	serviceLogger.LogServiceStop("shutdown signal received")

	app.eventBus.Publish(model.NewAgentEvent(model.EventAgentStopping, "agent", "INFO", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.printerService.Close()

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("Ledger close error", zap.Error(err))
		} else {
			app.logger.Info("Job ledger closed")
		}
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
