package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kiropulse/internal/cli/plugins"
	"github.com/ccollicutt/kiropulse/pkg/config"
	"github.com/ccollicutt/kiropulse/pkg/parser"
)

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads the config file at path. An empty path means the default
// location, where a missing file falls back to the built-in defaults.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrDefault(ctx, config.DefaultPath())
	}
	return config.Load(ctx, path)
}

// newLogger returns a text logger on w. Warnings are shown by default,
// debug output with verbose and errors only with quiet.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// parserOptions derives handler options from the config.
func parserOptions(cfg *config.Config, logger *slog.Logger) []parser.Option {
	return []parser.Option{
		parser.WithMaxLineBytes(cfg.MaxLineBytes),
		parser.WithLocation(cfg.Location()),
		parser.WithLogger(logger),
	}
}

// newRegistry builds the handler registry: configured external parsers
// first, then the built-in handlers. Parsers that cannot be found are
// logged and left out.
func newRegistry(cfg *config.Config, logger *slog.Logger) *parser.Registry {
	opts := parserOptions(cfg, logger)
	reg := parser.NewRegistry(opts...)

	for _, name := range cfg.CustomParsers {
		path, err := plugins.FindParser(name)
		if err != nil {
			logger.Warn("custom parser not found", "name", name, "binary", plugins.ParserBinary(name))
			continue
		}
		logger.Debug("using custom parser", "name", name, "path", path)
		reg.Register(plugins.NewParserHandler(name, path, opts...))
	}

	for _, h := range parser.DefaultHandlers(opts...) {
		reg.Register(h)
	}
	return reg
}
