// Command rockmaze runs the Rock Maze judge.
//
// It supports three commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket viewers and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server against a running API, or an internal one if none answers
//  3. "judge" plays one level against an agent speaking the line protocol on stdin/stdout
//
// Flags control the port, level and session directories, result storage, debug logging
// and optional ngrok tunneling for external agents during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/rockmaze/api"
	"github.com/wricardo/mcp-training/rockmaze/game/agent"
	"github.com/wricardo/mcp-training/rockmaze/game/config"
	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/results"
	"github.com/wricardo/mcp-training/rockmaze/game/service"
	"github.com/wricardo/mcp-training/rockmaze/game/session"
	"github.com/wricardo/mcp-training/rockmaze/transport/mcp"
	"github.com/wricardo/mcp-training/rockmaze/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rock Maze Judge"
)

const (
	defaultPort        = 8080
	defaultLevelDir    = "levels"
	defaultSessionsDir = "sessions"
	defaultAPIURL      = "http://localhost:8080"
	judgeSessionID     = "judge"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Error loading .env file")
		}
	} else {
		log.Debug("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// storageFlags are shared by every command that builds the service stack.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "level-dir",
			Value:   defaultLevelDir,
			Usage:   "directory containing level files (.json or .in)",
			Sources: cli.EnvVars("LEVEL_DIR"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   defaultSessionsDir,
			Usage:   "directory for persisted sessions (empty keeps sessions in memory)",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.StringFlag{
			Name:    "results-dsn",
			Usage:   "PostgreSQL connection string for finished runs",
			Sources: cli.EnvVars("RESULTS_DSN", "DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "results-file",
			Usage:   "JSON file for finished runs when no DSN is set (empty keeps them in memory)",
			Sources: cli.EnvVars("RESULTS_FILE"),
		},
	}
}

// newApp builds the command tree. serve is the default action.
func newApp() *cli.Command {
	serveFlags := append(storageFlags(),
		&cli.IntFlag{
			Name:    "port",
			Value:   defaultPort,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("ROCKMAZE_PORT", "PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("ROCKMAZE_HOST"),
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Value:   24 * time.Hour,
			Usage:   "drop runs in flight from memory when not accessed for this long",
			Sources: cli.EnvVars("SESSION_TTL"),
		},
		&cli.DurationFlag{
			Name:    "finished-ttl",
			Value:   time.Hour,
			Usage:   "drop finished runs from memory when not accessed for this long",
			Sources: cli.EnvVars("FINISHED_SESSION_TTL"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "expose the server through an ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "custom ngrok domain",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	)

	return &cli.Command{
		Name:    "rockmaze",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return ctx, nil
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags:  serveFlags,
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server",
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:    "api-url",
						Value:   defaultAPIURL,
						Usage:   "REST API to proxy; an internal server starts when it does not answer",
						Sources: cli.EnvVars("ROCKMAZE_API_URL"),
					},
				),
				Action: runStdioMCP,
			},
			{
				Name:      "judge",
				Usage:     "play one level against an agent on stdin/stdout",
				ArgsUsage: "<level file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "script",
						Usage: "read decisions from this file instead of stdin",
					},
					&cli.DurationFlag{
						Name:    "turn-timeout",
						Usage:   "time the agent has to answer each tick (0 waits forever)",
						Sources: cli.EnvVars("TURN_TIMEOUT"),
					},
					&cli.IntFlag{
						Name:  "max-ticks",
						Usage: "override the level's tick budget",
					},
					&cli.StringFlag{
						Name:    "results-dsn",
						Usage:   "record the run in PostgreSQL",
						Sources: cli.EnvVars("RESULTS_DSN", "DATABASE_URL"),
					},
					&cli.StringFlag{
						Name:    "results-file",
						Usage:   "record the run in a JSON file",
						Sources: cli.EnvVars("RESULTS_FILE"),
					},
				},
				Action: runJudge,
			},
		},
	}
}

// stack holds the wired services of a server process.
type stack struct {
	levels      *config.Manager
	sessions    *session.Manager
	persistence session.SessionPersistence
	store       results.Store
	service     service.GameService
}

func (s *stack) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.WithError(err).Warn("Failed to save sessions")
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close results store")
		}
	}
}

// stackOptions selects where levels, sessions and results live
type stackOptions struct {
	LevelDir    string
	SessionsDir string
	ResultsDSN  string
	ResultsFile string
}

func stackOptionsFrom(cmd *cli.Command) stackOptions {
	return stackOptions{
		LevelDir:    cmd.String("level-dir"),
		SessionsDir: cmd.String("sessions-dir"),
		ResultsDSN:  cmd.String("results-dsn"),
		ResultsFile: cmd.String("results-file"),
	}
}

// buildStack wires the level manager, session manager, results store and game service.
func buildStack(opts stackOptions) (*stack, error) {
	levels, err := config.NewManager(opts.LevelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	sessions := session.NewManager()
	var persistence session.SessionPersistence
	if dir := opts.SessionsDir; dir != "" {
		fp, err := session.NewFilePersistence(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		persistence = fp
		sessions = session.NewManagerWithPersistence(persistence)
		if err := sessions.LoadPersistedSessions(); err != nil {
			log.WithError(err).Warn("Failed to load persisted sessions")
		}
	}

	store, err := results.Open(opts.ResultsDSN, opts.ResultsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}

	log.WithFields(log.Fields{
		"levels":   opts.LevelDir,
		"sessions": sessions.Count(),
	}).Info("Services initialized")

	return &stack{
		levels:      levels,
		sessions:    sessions,
		persistence: persistence,
		store:       store,
		service:     service.NewGameService(sessions, levels, store),
	}, nil
}

// newRouter mounts the REST API at the root and the MCP proxy at /mcp.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(data)
	})
	return router
}

// runServe starts the HTTP server and, if enabled, an ngrok tunnel serving the same router.
func runServe(ctx context.Context, cmd *cli.Command) error {
	st, err := buildStack(stackOptionsFrom(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	go sessionCleanupRoutine(ctx, st.sessions, session.Retention{
		Idle:     cmd.Duration("session-ttl"),
		Finished: cmd.Duration("finished-ttl"),
	})
	if st.persistence != nil {
		go sessionSyncRoutine(ctx, st.sessions, st.persistence, 5*time.Second)
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	router := newRouter(api.NewServer(st.service, hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithFields(log.Fields{
			"rest": "http://" + addr + "/api",
			"ws":   "ws://" + addr + "/ws?session=<session_id>",
			"mcp":  "http://" + addr + "/mcp",
		}).Infof("%s v%s listening on %s", AppName, Version, addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, router, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case runErr = <-errCh:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return runErr
}

// serveNgrok serves router through an ngrok tunnel until ctx is done.
func serveNgrok(ctx context.Context, router http.Handler, authToken, domain string) {
	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.WithFields(log.Fields{
		"rest": url + "/api",
		"ws":   url + "/ws?session=<session_id>",
		"mcp":  url + "/mcp",
	}).Infof("Ngrok tunnel established: %s", url)

	if err := http.Serve(tun, router); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.WithError(err).Error("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically drops sessions the retention no longer keeps.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, keep session.Retention) {
	interval := cleanupInterval(keep)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(keep); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// cleanupInterval is the shortest positive retention, capped at an hour. Zero disables cleanup.
func cleanupInterval(keep session.Retention) time.Duration {
	interval := time.Duration(0)
	for _, ttl := range []time.Duration{keep.Idle, keep.Finished} {
		if ttl > 0 && (interval == 0 || ttl < interval) {
			interval = ttl
		}
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	return interval
}

// sessionSyncRoutine periodically drops sessions from memory whose files were deleted.
func sessionSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphanedSessions(manager, persistence); pruned > 0 {
				log.WithField("pruned", pruned).Info("Pruned sessions whose files were deleted")
			}
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.WithField("session", sess.ID).Debug("Pruned session from memory (file deleted)")
		}
	}
	return pruned
}

// apiAvailable reports whether a REST API answers at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(baseURL, "/") + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when it answers,
// otherwise it starts an internal API on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")

	if apiAvailable(baseURL) {
		log.WithField("url", baseURL).Info("Using external API server for MCP")
	} else {
		log.WithField("url", baseURL).Info("No external API server found, starting internal HTTP server")

		st, err := buildStack(stackOptionsFrom(cmd))
		if err != nil {
			return err
		}
		defer st.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(st.service, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
	}

	log.WithField("api", baseURL).Info("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// loadLevelFile reads a level from a .json or .in file and validates it.
func loadLevelFile(path string) (*engine.Level, error) {
	if filepath.Ext(path) != ".in" {
		return engine.LoadLevel(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	level, err := config.ParseLevelText(f, strings.TrimSuffix(filepath.Base(path), ".in"))
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateLevel(level); err != nil {
		return nil, err
	}
	return level, nil
}

// runJudge plays a level file against an agent and reports the result on stderr.
// A failed or exhausted run exits with status 1.
func runJudge(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("a level file is required", 2)
	}

	level, err := loadLevelFile(path)
	if err != nil {
		return fmt.Errorf("failed to load level %s: %w", path, err)
	}
	if maxTicks := int(cmd.Int("max-ticks")); maxTicks > 0 {
		level.MaxTicks = maxTicks
	}

	var decider engine.Decider
	if script := cmd.String("script"); script != "" {
		f, err := os.Open(script)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		if decider, err = agent.ReadScript(f); err != nil {
			return err
		}
	} else {
		decider = agent.NewStreamAgent(os.Stdin, os.Stdout, agent.WithTurnTimeout(cmd.Duration("turn-timeout")))
	}

	res, state, err := judge(ctx, level, decider)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"level":  level.Name,
		"status": res.Status,
		"ticks":  res.Ticks,
		"kind":   res.Kind,
	}).Info("Run finished")
	fmt.Fprint(os.Stderr, formatResult(res))

	if dsn, file := cmd.String("results-dsn"), cmd.String("results-file"); dsn != "" || file != "" {
		if err := recordResult(dsn, file, filepath.Base(path), state); err != nil {
			log.WithError(err).Warn("Failed to record result")
		}
	}

	if res.Status != engine.Succeeded {
		return cli.Exit("", 1)
	}
	return nil
}

// judge plays level against decider and returns the result with the final state.
func judge(ctx context.Context, level *engine.Level, decider engine.Decider) (*engine.RunResult, *engine.GameState, error) {
	e, err := engine.NewEngine(level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	res, err := e.Play(ctx, decider)
	return res, e.GetState(), err
}

func recordResult(dsn, file, levelID string, state *engine.GameState) error {
	store, err := results.Open(dsn, file)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(results.NewRecord(judgeSessionID, levelID, state))
}

// formatResult renders a run result on one line.
func formatResult(res *engine.RunResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s after %d tick(s)", strings.ToUpper(string(res.Status)), res.Ticks)
	if res.Kind != "" {
		fmt.Fprintf(&sb, ": %s", res.Kind)
	}
	if res.Reason != "" {
		fmt.Fprintf(&sb, " (%s)", res.Reason)
	}
	sb.WriteString("\n")
	return sb.String()
}
