package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lu-metrics/internal/api"
	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/db"
	"github.com/banshee-data/lu-metrics/internal/export"
	"github.com/banshee-data/lu-metrics/internal/fsutil"
	"github.com/banshee-data/lu-metrics/internal/pipeline"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// openConfiguredStore opens and migrates the results store named in opts.
// It returns nil when no store is configured.
func openConfiguredStore(opts *config.Options) (*db.DB, error) {
	dbOpts := opts.GetDatabase()
	if dbOpts == nil {
		return nil, nil
	}
	store, err := db.Open(dbOpts.Driver, dbOpts.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.MigrateUp(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// exportersFor keeps a nil store from becoming a non-nil RunRecorder.
func exportersFor(fsys fsutil.FileSystem, opts *config.Options, store *db.DB) []stats.Exporter {
	var rec export.RunRecorder
	if store != nil {
		rec = store
	}
	return pipeline.BuildExporters(fsys, opts, rec)
}

type storeFlags struct {
	driver string
	dsn    string
}

// open prefers the command line over the options file.
func (f *storeFlags) open(opts *config.Options) (*db.DB, error) {
	driver, dsn := f.driver, f.dsn
	if dsn == "" {
		dbOpts := opts.GetDatabase()
		if dbOpts == nil {
			return nil, errors.New("no database configured: pass --dsn or set export.database")
		}
		driver, dsn = dbOpts.Driver, dbOpts.DSN
	}
	return db.Open(driver, dsn)
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.driver, "driver", db.DriverSQLite, "Database driver: sqlite or pgx")
	cmd.PersistentFlags().StringVar(&f.dsn, "dsn", "", "Database DSN; export.database from the options file when empty")
}

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	sf := &storeFlags{}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the results store schema",
	}
	sf.register(migrateCmd)

	withStore := func(fn func(cmd *cobra.Command, store *db.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := sf.open(flags.opts)
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(cmd, store)
		}
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *db.DB) error {
			if err := store.MigrateUp(); err != nil {
				return err
			}
			return printMigrationStatus(cmd, store)
		}),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *db.DB) error {
			if err := store.MigrateDown(); err != nil {
				return err
			}
			return printMigrationStatus(cmd, store)
		}),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current and latest schema versions",
		Args:  cobra.NoArgs,
		RunE:  withStore(printMigrationStatus),
	})
	return migrateCmd
}

func printMigrationStatus(cmd *cobra.Command, store *db.DB) error {
	st, err := store.MigrationStatus()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "driver:  %s\n", st.Driver)
	fmt.Fprintf(out, "current: %d\n", st.CurrentVersion)
	fmt.Fprintf(out, "latest:  %d\n", st.LatestVersion)
	if st.Dirty {
		fmt.Fprintln(out, "state:   dirty")
	} else if st.Pending() {
		fmt.Fprintln(out, "state:   pending")
	} else {
		fmt.Fprintln(out, "state:   up to date")
	}
	return nil
}

func newServeCommand(flags *rootFlags) *cobra.Command {
	sf := &storeFlags{}
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sf.open(flags.opts)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.MigrateUp(); err != nil {
				return err
			}
			return serve(cmd.Context(), listen, store)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", ":8080", "Listen address")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, listen string, store *db.DB) error {
	mux := api.NewServer(store).ServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    listen,
		Handler: api.LoggingMiddleware(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server stopped")
	return nil
}
