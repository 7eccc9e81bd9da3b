package main

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clinical-lookup/internal/config"
	"clinical-lookup/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinical-lookup",
		Short:         "Clinical records API and patient lookup console",
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads .env when present, reads the configuration and builds
// the logger writing to w.
func bootstrap(w io.Writer) (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg, w), nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := w
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func letterhead(cfg *config.Config) report.Letterhead {
	return report.Letterhead{
		Name:    cfg.Report.Name,
		Tagline: cfg.Report.Tagline,
		Contact: cfg.Report.Contact,
	}
}
