package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/geo"
	"fleet_tracker/internal/inspection"
	"fleet_tracker/internal/invoice"
	"fleet_tracker/internal/logger"
	"fleet_tracker/internal/notify"
	"fleet_tracker/internal/routes"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/store"
	"fleet_tracker/internal/timesheet"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var fleetFile string

	cmd := &cobra.Command{
		Use:   "fleet-tracker",
		Short: "Driver time tracking and working time compliance",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&fleetFile, "fleet", "", "Fleet config file (YAML); defaults to $FLEET_CONFIG")

	cmd.AddCommand(serveCmd(&fleetFile), migrateCmd(), limitsCmd(&fleetFile))
	return cmd
}

func loadFleet(path string, srv config.Server) (config.Fleet, error) {
	if path == "" {
		path = srv.FleetFile
	}
	return config.LoadFleet(path)
}

func serveCmd(fleetFile *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logWriter := logger.Setup()
			srv := config.LoadServer()
			if addr != "" {
				srv.Addr = addr
			}
			fleet, err := loadFleet(*fleetFile, srv)
			if err != nil {
				return err
			}

			db := config.InitDB(logger.GormLogger())

			hub := notify.NewHub()
			defer hub.Close()
			sessions := session.NewRegistry(srv.SessionCache)
			svc := timesheet.New(store.New(db, srv.TimeZone), fleet.Limits,
				timesheet.WithSink(notify.Fanout{notify.LogSink{}, hub}),
				timesheet.WithLocator(geo.Locator{Resolver: geo.DepotResolver{Depots: fleet.Depots}}),
				timesheet.WithCaches(sessions),
				timesheet.WithLocation(srv.TimeZone),
			)

			if logrus.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			r := routes.SetupRouter(routes.Deps{
				Timesheet:      svc,
				Sessions:       sessions,
				Hub:            hub,
				Inspections:    inspection.NewService(db),
				Invoices:       invoice.NewService(db, fleet.VATRate, fleet.InvoicePfx),
				LogWriter:      logWriter,
				AllowedOrigins: srv.AllowedOrigins,
			})
			return listen(cmd.Context(), srv.Addr, r)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address; defaults to $HTTP_ADDR")
	return cmd
}

// listen serves until SIGINT/SIGTERM and then drains requests.
func listen(ctx context.Context, addr string, h http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("🚀 Server running")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup()
			db, err := config.Open(config.LoadDBSettings(), logger.GormLogger())
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			logrus.Info("Migration complete")
			return nil
		},
	}
}

func limitsCmd(fleetFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Print the effective fleet configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fleet, err := loadFleet(*fleetFile, config.LoadServer())
			if err != nil {
				return err
			}
			out, err := fleet.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
