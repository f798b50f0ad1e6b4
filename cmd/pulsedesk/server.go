package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"pulsedesk/internal/api"
	"pulsedesk/internal/config"
	"pulsedesk/internal/dashboard"
	"pulsedesk/internal/feed"
	"pulsedesk/internal/gemini"
	"pulsedesk/internal/publisher"
	"pulsedesk/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pulsedesk server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running pulsedesk server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pulsedesk system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "pulsedesk.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "pulsedesk version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	apiToken, err := config.GetAPIToken()
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Refuse to start twice: probe the health endpoint before claiming
	// the PID file.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("pulsedesk is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("pulsedesk is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Wire the desk: provider client -> ingestion adapter -> controller.
	genClient := gemini.NewWithBaseURL(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
	adapter := feed.NewAdapter(genClient)
	pubClient := publisher.NewClient(cfg.Publish.Endpoint, cfg.Publish.Author, cfg.Publish.Visibility)
	controller := dashboard.New(adapter, pubClient, store, cfg.Publish.ShareBase)
	controller.Initialize()
	slog.Info("desk state loaded", "articles", len(controller.Articles()), "posts", len(controller.Posts()))

	handler := api.NewAppHandler(api.AppDeps{
		Controller: controller,
		Token:      apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server on stdio, alongside the HTTP listener.
	mcpSrv := api.NewMCPServer(api.MCPDeps{Controller: controller})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "pulsedesk listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("pulsedesk is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop pulsedesk (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to pulsedesk (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	serverUp := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			serverUp = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Provider reachability: a model metadata GET is the cheapest probe.
	genClient := gemini.NewWithBaseURL(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := genClient.CheckModel(probeCtx); err != nil {
		printStatus("Provider", "unreachable (%v)", err)
	} else {
		printStatus("Provider", "model %s available", cfg.Gemini.Model)
	}

	if serverUp {
		if apiToken, tokenErr := config.GetAPIToken(); tokenErr == nil {
			req, _ := http.NewRequestWithContext(ctx, "GET", serverURL+"/status", nil)
			req.Header.Set("Authorization", "Bearer "+apiToken)
			if statusResp, err := client.Do(req); err == nil {
				var st struct {
					Generating bool   `json:"generating"`
					Publishing bool   `json:"publishing"`
					Message    string `json:"message"`
					View       string `json:"view"`
					Articles   int    `json:"articles"`
					Posts      int    `json:"posts"`
				}
				if decodeJSON(statusResp, &st) == nil {
					printStatus("Articles", "%d", st.Articles)
					printStatus("Posts", "%d", st.Posts)
					printStatus("View", "%s", st.View)
					if st.Message != "" {
						printStatus("Busy", "%s", st.Message)
					}
				}
			}
		}
	}

	printStatus("Publish endpoint", "%s", cfg.Publish.Endpoint)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
