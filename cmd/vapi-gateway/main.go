// ABOUTME: Entry point for the vapi-gateway configuration server
// ABOUTME: Serves the widget config endpoint and the admin settings API

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/imranhoshain/vapi-agent-gateway/internal/auth"
	"github.com/imranhoshain/vapi-agent-gateway/internal/config"
	"github.com/imranhoshain/vapi-agent-gateway/internal/gateway"
	"github.com/imranhoshain/vapi-agent-gateway/internal/settings"
	"github.com/imranhoshain/vapi-agent-gateway/internal/store"
	"github.com/imranhoshain/vapi-agent-gateway/internal/vapi"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                      _
 __ ____ _ _ __ (_)___ __ _ __ _| |_ _____ __ ____ _ _  _
 \ V / _' | '_ \| |___/ _' / _' |  _/ -_) V  V / _' | || |
  \_/\__,_| .__/|_|   \__, \__,_|\__\___|\_/\_/\__,_|\_, |
          |_|         |___/                          |__/
`

// getConfigPath returns the path to the gateway config file.
// Priority: VAPI_CONFIG env var > XDG_CONFIG_HOME/vapi-gateway/gateway.yaml > ~/.config/vapi-gateway/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("VAPI_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "vapi-gateway", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: vapi-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve             Start the gateway server")
		fmt.Println("  init              Create a new config file")
		fmt.Println("  token             Mint an admin bearer token")
		fmt.Println("  export            Write the settings record to stdout")
		fmt.Println("  import <file>     Import a settings JSON document")
		fmt.Println("  reset             Reset settings to defaults")
		fmt.Println("  health            Check gateway health")
		os.Exit(1)
	}

	// A .env next to the binary can supply ${VAR} values for the config file.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "export":
		err = runExport(ctx)
	case "import":
		err = runImport(ctx)
	case "reset":
		err = runReset(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	optionStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer optionStore.Close()

	settingsService := settings.NewService(optionStore)
	if err := settingsService.MigrateIfNeeded(ctx); err != nil {
		return fmt.Errorf("migrating settings: %w", err)
	}
	if err := settingsService.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("initializing settings: %w", err)
	}

	vapiClient := vapi.NewClient(cfg.Vapi.BaseURL, cfg.Vapi.Timeout)
	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))

	mux := http.NewServeMux()
	gw := gateway.New(settingsService, vapiClient, verifier)
	gw.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting vapi-gateway", "http_addr", cfg.Server.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	secret := base64.StdEncoding.EncodeToString(secretBytes)

	var cfg strings.Builder
	cfg.WriteString("server:\n")
	cfg.WriteString("  http_addr: \"127.0.0.1:8090\"\n\n")
	cfg.WriteString("database:\n")
	cfg.WriteString("  path: \"vapi-gateway.db\"\n\n")
	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n\n", secret))
	cfg.WriteString("vapi:\n")
	cfg.WriteString("  base_url: \"https://api.vapi.ai\"\n")
	cfg.WriteString("  timeout: \"20s\"\n\n")
	cfg.WriteString("logging:\n")
	cfg.WriteString("  level: \"info\"\n")
	cfg.WriteString("  format: \"text\"\n")

	if err := os.WriteFile(configPath, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	color.New(color.FgGreen).Printf("Created %s\n", configPath)
	return nil
}

// runToken mints an admin bearer token for the gateway's admin API.
func runToken() error {
	subject := "admin"
	expiresIn := 30 * 24 * time.Hour
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--subject" && i+1 < len(args):
			subject = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--subject="):
			subject = strings.TrimPrefix(args[i], "--subject=")
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(subject, expiresIn)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	color.New(color.FgGreen).Println("Admin token (valid 30 days):")
	fmt.Println(token)
	return nil
}

func runExport(ctx context.Context) error {
	service, closeStore, err := openSettings()
	if err != nil {
		return err
	}
	defer closeStore()

	data, _, err := service.Export(ctx)
	if err != nil {
		return fmt.Errorf("exporting settings: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runImport(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: vapi-gateway import <file>")
	}
	content, err := os.ReadFile(os.Args[2])
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	service, closeStore, err := openSettings()
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := service.Import(ctx, content); err != nil {
		return fmt.Errorf("importing settings: %w", err)
	}
	color.New(color.FgGreen).Println("Settings imported successfully!")
	return nil
}

func runReset(ctx context.Context) error {
	service, closeStore, err := openSettings()
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := service.Reset(ctx); err != nil {
		return fmt.Errorf("resetting settings: %w", err)
	}
	color.New(color.FgGreen).Println("Settings reset to defaults.")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// openSettings opens the configured store and wraps it in a settings
// service for the offline subcommands.
func openSettings() (*settings.Service, func(), error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	optionStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return settings.NewService(optionStore), func() { optionStore.Close() }, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{level: h.level, attrs: newAttrs}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return h
}
