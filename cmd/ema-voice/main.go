package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/settings"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const scopeName = "github.com/koscakluka/ema-voice/cmd/ema-voice"

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ema-voice",
		Short: "Hands-free voice assistant",
		Long:  titleStyle.Render("ema-voice") + `

Say "start" to wake the assistant and "stop listening" to put it back to
sleep. Commands can also be typed.

` + dimStyle.Render("API keys are read from GEMINI_API_KEY, GROQ_API_KEY and DEEPGRAM_API_KEY."),
		Version:      version,
		SilenceUsage: true,
		RunE:         run,
	}
	addFlags(root)

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the settings file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := settings.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "rules",
		Short: "List command rules in evaluation order",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, rule := range commands.NewClassifier().Rules() {
				fmt.Fprintf(out, "%d  %-16s %s\n", rule.Tier, rule.Name, dimStyle.Render(rule.Mode.String()))
			}
		},
	})

	return root
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := assemble(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := clients.close(); err != nil {
			slog.Warn("failed to close audio devices", "error", err)
		}
	}()

	o := orchestration.NewOrchestrator(clients.options...)
	defer o.Close()

	program := tea.NewProgram(newModel(o), tea.WithAltScreen(), tea.WithContext(ctx))
	o.Orchestrate(ctx, callbacks(program.Send)...)
	slog.Info("orchestration started", "backend", cfg.Backend, "audio", cfg.Audio, "voice", cfg.Voice)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal interface failed: %w", err)
	}
	slog.Info("shutting down")
	return nil
}

// setupLogging exports slog and otelslog records to path, or discards them so
// they do not draw over the interface.
func setupLogging(path string) (func(), error) {
	if path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	exporter, err := stdoutlog.New(stdoutlog.WithWriter(file))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	global.SetLoggerProvider(provider)
	slog.SetDefault(otelslog.NewLogger(scopeName))

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
		_ = file.Close()
	}, nil
}
