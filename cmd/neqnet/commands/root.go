package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/equinor/neqnet/config"
)

// Environment keys read after .env is loaded.
const (
	envLogLevel = "NEQNET_LOG_LEVEL"
	envFile     = "NEQNET_FILE"
)

var (
	filePath string
	logLevel string
	envPath  string

	logger = slog.Default()
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	headColor = color.New(color.FgCyan)
)

var rootCmd = &cobra.Command{
	Use:   "neqnet",
	Short: "neqnet solves pipeline and well-gathering networks",
	Long: `neqnet balances looped pipe networks with Hardy-Cross, runs manifold
networks in topological order and finds the operating point of wells
gathered into a common manifold. Networks are described in YAML.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "network description (default: $NEQNET_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default: $NEQNET_LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file with defaults; missing is fine")
}

// AddCommand registers a subcommand.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// setup loads .env defaults and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	if filePath == "" {
		filePath = os.Getenv(envFile)
	}
	if logLevel == "" {
		logLevel = os.Getenv(envLogLevel)
	}
	lvl, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}

	return lvl, nil
}

// loadFile reads the network description named by --file or NEQNET_FILE.
func loadFile() (*config.File, error) {
	if filePath == "" {
		return nil, errors.New("no network file: pass --file or set " + envFile)
	}

	return config.Load(filePath)
}

func status(converged bool) string {
	if converged {
		return okColor.Sprint("converged")
	}

	return warnColor.Sprint("NOT converged")
}
