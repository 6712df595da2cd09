package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/contoso-travel/chat-agent/server/internal/agent/analysis"
	"github.com/contoso-travel/chat-agent/server/internal/agent/backends"
	"github.com/contoso-travel/chat-agent/server/internal/agent/dispatch"
	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	"github.com/contoso-travel/chat-agent/server/internal/agent/sessions"
	"github.com/contoso-travel/chat-agent/server/internal/agent/streaming"
	"github.com/contoso-travel/chat-agent/server/internal/core"
	"github.com/contoso-travel/chat-agent/server/internal/server"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

type app struct {
	envFile string
	cfg     AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "chat-agent",
		Short:         "Travel chat agent service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logx.Init(logx.LoggerOpts{
				Environment: core.ParseEnvironment(cfg.Environment),
				Level:       cfg.LogLevel,
			})
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	var sessionID string
	askCmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Stream one turn as NDJSON frames to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd.Context(), sessionID, strings.Join(args, " "))
		},
	}
	askCmd.Flags().StringVar(&sessionID, "session", "", "session id to continue")

	var customer bool
	analyzeCmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Print the analysis of a travel or customer query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var out any = analysis.Analyze(query)
			if customer {
				out = analysis.AnalyzeCustomer(query)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	analyzeCmd.Flags().BoolVar(&customer, "customer", false, "classify as a customer flight query")

	rootCmd.AddCommand(serveCmd, askCmd, analyzeCmd)
	rootCmd.RunE = serveCmd.RunE
	return rootCmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// buildService wires the backend, the session registry and, when Redis is
// configured, the message journal. The returned closer releases Redis.
func (a *app) buildService(ctx context.Context) (*dispatch.Service, *sessions.Registry, func(), error) {
	backend := backends.New(ctx, backends.Options{
		Agent:  a.cfg.Agent,
		Stream: a.cfg.Stream,
		Prompt: a.cfg.Prompt,
	})
	registry := sessions.NewRegistry(sessions.Options{IdleTTL: a.cfg.Session.IdleTTL})

	opts := dispatch.Options{Backend: backend, Sessions: registry}
	closer := func() {}
	if a.cfg.Redis.Enabled() {
		rdb, err := a.cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		logx.Info().Msg("connected to Redis, session journal enabled")
		opts.Journal = sessions.NewRedisJournal(rdb, a.cfg.Session.JournalTTL)
		closer = func() { closeRedis(rdb) }
	}
	return dispatch.New(opts), registry, closer, nil
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		logx.Warn().Err(err).Msg("failed to close Redis client")
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signalContext(parent)
	defer stop()

	svc, registry, closeDeps, err := a.buildService(ctx)
	if err != nil {
		return err
	}
	defer closeDeps()

	e := server.New(a.cfg.Server, server.NewHandler(svc, a.cfg.Server.AllowedOrigins))
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logx.Info().Str("addr", addr).Str("backend", string(svc.Backend())).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx, a.cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logx.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logx.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logx.Info().Msg("server stopped")
	return nil
}

func (a *app) ask(parent context.Context, sessionID, message string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	svc, _, closeDeps, err := a.buildService(ctx)
	if err != nil {
		return err
	}
	defer closeDeps()

	req := model.TurnRequest{Message: message, SessionID: sessionID}
	return svc.StreamTurn(ctx, req, streaming.NewNDJSONSink(os.Stdout))
}
