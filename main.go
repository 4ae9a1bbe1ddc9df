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

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/CrowderSoup/priority-pilot/handlers"
	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:     "prioritypilot",
		Short:   "PriorityPilot - task tracking with team priorities",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file to load")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(rolloverCmd(&envFile))
	rootCmd.AddCommand(loginCmd(&envFile))
	rootCmd.AddCommand(logoutCmd(&envFile))
	rootCmd.AddCommand(whoamiCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the long-lived services shared by every command.
type app struct {
	cfg   *Config
	auth  *services.AuthService
	tasks *services.TaskService
	close func() error
}

func newApp(ctx context.Context, envFile string, notifier services.Notifier) (*app, error) {
	cfg, err := LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	db, err := database.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	kv := database.NewKVStore(db)

	auth, err := services.NewAuthService(cfg.JWTSecret, database.NewSessionStore(kv))
	if err != nil {
		db.Close()
		return nil, err
	}

	tasks := services.NewTaskService(database.NewTaskStore(kv), notifier)
	if err := tasks.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, auth: auth, tasks: tasks, close: db.Close}, nil
}

func serveCmd(envFile *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and notification websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := services.NewHub()
			a, err := newApp(ctx, *envFile, services.Notifiers{hub, services.LogNotifier{}})
			if err != nil {
				return err
			}
			defer a.close()

			go hub.Run(ctx)

			if port == "" {
				port = a.cfg.Port
			}

			c := cors.New(cors.Options{
				AllowedOrigins:   a.cfg.AllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				AllowCredentials: true,
			})

			server := &http.Server{
				Addr:         ":" + port,
				Handler:      c.Handler(handlers.NewRouter(a.auth, a.tasks, hub, a.cfg.CheckOrigin)),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", port).Msg("Server starting")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (default $PORT or 3001)")
	return cmd
}

func rolloverCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Move overdue incomplete tasks to today",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, services.LogNotifier{})
			if err != nil {
				return err
			}
			defer a.close()

			if user := a.auth.CurrentUser(); user != nil {
				ctx = services.WithUser(ctx, user)
			}
			moved, err := a.tasks.RolloverIncompleteTasks(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Rolled over %d task(s) to today\n", moved)
			return nil
		},
	}
}
