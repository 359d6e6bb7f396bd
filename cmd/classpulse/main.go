package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"classpulse/internal/config"
	"classpulse/internal/handler"
	appI18n "classpulse/internal/i18n"
	"classpulse/internal/llm"
	"classpulse/internal/model"
	"classpulse/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "classpulse",
		Short: "AI-assisted classroom discussion server",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `classpulse --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP classroom server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "classpulse.db", "SQLite database path")
	f.String("llm-url", llm.DefaultBaseURL, "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the LLM (overrides the credentials file)")
	f.String("llm-model", llm.DefaultModel, "LLM model name")
	f.Duration("llm-timeout", llm.DefaultTimeout, "Per-request LLM timeout")
	f.String("credentials", "credentials", "Path to the INI-style credentials file")
	f.Bool("allow-default-key", false, "Fall back to the insecure demo API key when the credentials file is missing")
	f.StringP("lang", "l", "en", "Message language (en, zh)")
	f.String("teacher-id", "teacher", "Identifier recorded as the classroom owner")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one classroom's answers as CSV or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "classpulse.db", "SQLite database path")
	f.String("code", "", "Class code to export (required)")
	f.StringP("format", "f", "csv", "Export format (csv, xlsx)")
	f.StringP("output", "o", "", "Output file path (default: classroom_{code}_{timestamp}.{format}, - for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CLASSPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("classpulse")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/classpulse")
	v.AddConfigPath("/etc/classpulse")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	apiKey := v.GetString("llm-key")
	if apiKey == "" {
		apiKey, err = config.LoadAPIKey(v.GetString("credentials"), v.GetBool("allow-default-key"))
		if err != nil {
			return fmt.Errorf("load API key: %w", err)
		}
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		apiKey,
		v.GetString("llm-model"),
		v.GetDuration("llm-timeout"),
	)
	if !llmClient.IsAvailable(cmd.Context()) {
		// Degraded, not fatal: generation falls back to the static
		// question bank and evaluation to the neutral default.
		slog.Warn("LLM endpoint unreachable at startup",
			"url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	cfg := model.ServerConfig{
		Addr:      v.GetString("addr"),
		DBPath:    v.GetString("db"),
		TeacherID: v.GetString("teacher-id"),
		Lang:      lang,
	}
	h := handler.New(db, llmClient, cfg)

	slog.Info("starting server",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(cfg.Addr, h.Router())
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	format := strings.ToLower(v.GetString("format"))
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q (csv, xlsx)", format)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	classCode := strings.ToUpper(strings.TrimSpace(v.GetString("code")))
	if _, err := db.GetClassroomInfo(classCode); err != nil {
		return fmt.Errorf("classroom %s: %w", classCode, err)
	}
	records, err := db.GetClassroomData(classCode)
	if err != nil {
		return fmt.Errorf("read classroom data: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	switch outPath {
	case "-":
		w = os.Stdout
	case "":
		outPath = store.ExportFileName(classCode, format, time.Now())
		fallthrough
	default:
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "csv":
		err = store.WriteCSV(w, records)
	case "xlsx":
		err = store.WriteXLSX(w, records)
	}
	if err != nil {
		return fmt.Errorf("write %s export: %w", format, err)
	}

	slog.Info("exported classroom data",
		"code", classCode, "records", len(records), "format", format, "output", outPath)
	return nil
}
