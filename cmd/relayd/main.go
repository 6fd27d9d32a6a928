package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/logging"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/server"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/sessionstore"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/version"
)

func main() {
	// godotenv does not overwrite variables already set in the environment.
	_ = godotenv.Load()

	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.Addr, "addr", envOr("PROCTOR_ADDR", cfg.Addr), "HTTP bind address for /ws, /api and /metrics")
	flag.StringVar(&cfg.DBPath, "db", envOr("PROCTOR_DB", cfg.DBPath), "SQLite session database file path")
	flag.StringVar(&cfg.SeedFile, "sessions-file", "", "YAML file defining sessions to create on startup")
	flag.DurationVar(&cfg.HeartbeatInterval, "heartbeat", cfg.HeartbeatInterval, "server heartbeat broadcast interval")
	origins := flag.String("origins", os.Getenv("PROCTOR_ORIGINS"), "comma-separated websocket origins to accept (empty = any)")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// The verification secret is environment-only; it never appears on the
	// command line.
	cfg.JWTSecret = os.Getenv("PROCTOR_JWT_SECRET")
	if cfg.JWTSecret == "" {
		slog.Error("PROCTOR_JWT_SECRET is required")
		os.Exit(1)
	}
	cfg.AllowedOrigins = splitOrigins(*origins)

	st, err := sessionstore.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open session store", "err", err)
		os.Exit(1)
	}

	slog.Info("starting proctoring relay", "version", version.String(), "addr", cfg.Addr)

	srv := server.New(cfg, server.Dependencies{Store: st})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
