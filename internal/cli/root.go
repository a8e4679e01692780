package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/bindkit/config"
	"github.com/kbukum/bindkit/errors"
)

const serviceName = "bindkit"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

// NewRootCommand builds the bindkit command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Contextual dependency injection for Go",
		Long: `bindkit binds abstract types to implementations per owner, injects
the chosen implementations into fields and methods, and re-injects every
tracked instance when the active binding context changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to config.yml")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level")

	root.AddCommand(newDemoCommand(opts), newVersionCommand())
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// load reads the engine configuration and applies flag overrides.
func (o *rootOptions) load() (*config.Engine, error) {
	var lo []config.LoaderOption
	if o.configFile != "" {
		if _, err := os.Stat(o.configFile); err != nil {
			return nil, errors.InvalidConfig(fmt.Sprintf("config file %s", o.configFile)).WithCause(err)
		}
		lo = append(lo, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		lo = append(lo, config.WithEnvFile(o.envFile))
	}

	cfg, err := config.Load(serviceName, lo...)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
