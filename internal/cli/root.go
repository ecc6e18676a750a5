package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/Protoscribe/pkg/config"
	"github.com/turtacn/Protoscribe/pkg/consts"
	"github.com/turtacn/Protoscribe/pkg/logger"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg config.Config
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "protoscribe",
		Short:         "Protoscribe: author and compile protocol descriptors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", consts.DefaultConfigFile, "config file path")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json, text)")

	cmd.AddCommand(
		newCompileCmd(opts),
		newFmtCmd(opts),
		newCIDCmd(opts),
		newInitCmd(),
		newServeCmd(opts),
		newVerbsCmd(),
	)
	return cmd
}

// load reads the config file and initializes logging. The default config
// path may be absent; an explicitly passed one must exist.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Observability.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Observability.LogFormat = o.logFormat
	}
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	o.cfg = cfg
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Personal.AI order the ending
