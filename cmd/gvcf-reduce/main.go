// Package main provides the gvcf-reduce command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/gvcf-reduce/internal/gvcferr"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Configuration keys, shared by flags, the config file and the environment.
const (
	keyMinDepth = "min-depth"
	keyLowerAF  = "lower-ambiguity-frequency"
	keyUpperAF  = "upper-ambiguity-frequency"
	keyDB       = "db"
	keyVerbose  = "verbose"
)

const configName = ".gvcf-reduce"

// usageError marks command-line mistakes.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// app carries state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	a.logger.Sync()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, gvcferr.ErrConfiguration) {
		return ExitUsage
	}
	return ExitError
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gvcf-reduce",
		Short: "Reduce a gVCF to a coverage mask, ambiguous and consensus variants",
		Long: `gvcf-reduce processes a gVCF in a single pass and produces:
  - a coverage mask of positions with depth below --min-depth
  - the variants to encode with IUPAC ambiguity codes
  - the consensus variants (indels and high-frequency substitutions)`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return a.initLogger()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default: ~/"+configName+".yaml)")
	root.PersistentFlags().BoolP(keyVerbose, "v", false, "Log debug messages")
	a.v.BindPFlag(keyVerbose, root.PersistentFlags().Lookup(keyVerbose))

	root.AddCommand(a.newRunCmd())
	root.AddCommand(a.newConfigCmd())

	return root
}

// initConfig layers defaults, the config file, GVCF_REDUCE_* environment
// variables and flags, in increasing precedence.
func (a *app) initConfig() error {
	a.v.SetDefault(keyMinDepth, 10)
	a.v.SetDefault(keyLowerAF, 0.25)
	a.v.SetDefault(keyUpperAF, 0.75)
	a.v.SetDefault(keyDB, "")

	a.v.SetEnvPrefix("GVCF_REDUCE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigName(configName)
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if a.cfgFile != "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return gvcferr.Configurationf("read config %s: %v", a.v.ConfigFileUsed(), err)
	}
	return nil
}

func (a *app) initLogger() error {
	level := zapcore.InfoLevel
	if a.v.GetBool(keyVerbose) {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(a.stderr), level)
	a.logger = zap.New(core)
	return nil
}

// configPath returns the file config changes are written to.
func (a *app) configPath() (string, error) {
	if used := a.v.ConfigFileUsed(); used != "" {
		return used, nil
	}
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}
