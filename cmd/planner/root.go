package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/assets"
	"github.com/scholarship-analytics/enrollment-planner/internal/config"
	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
	"github.com/scholarship-analytics/enrollment-planner/internal/planner"
)

// Output formats for query commands.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configFile string
	output     string

	// cfg is populated by the root PersistentPreRunE.
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Enrollment forecasting and tutor capacity planning",
		Long: `planner forecasts next month's scholarship enrollment from the monthly
history and a trained model, and sizes the tutor team for a student count.

Run "planner serve" to expose the HTTP API, or use the query commands for
one-off answers on the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.complete(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: planner.yaml in . or "+config.DefaultConfigDir+")")
	flags.StringVarP(&opts.output, "output", "o", outputYAML, "output format: json or yaml")
	flags.String("log-level", "info", "log level: info, debug, trace or a verbosity number")
	flags.Bool("log-development", false, "human-readable console logs")
	flags.String("history", "", "enrollment history CSV (overrides data.historyPath)")
	flags.String("model", "", "model artifact (overrides data.modelPath)")

	cmd.AddCommand(
		newServeCmd(opts),
		newForecastCmd(opts),
		newCapacityCmd(opts),
		newHistoryCmd(opts),
		newProfilesCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// flagBindings maps persistent flags onto config keys.
var flagBindings = map[string]string{
	"log-level":       config.KeyLogLevel,
	"log-development": config.KeyLogDevelopment,
	"history":         config.KeyHistoryPath,
	"model":           config.KeyModelPath,
}

// complete loads the configuration and installs the logger.
func (o *globalOptions) complete(cmd *cobra.Command) error {
	if o.output != outputJSON && o.output != outputYAML {
		return fmt.Errorf("unsupported output format %q (want json or yaml)", o.output)
	}

	v := config.NewViper(o.configFile)
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if _, err := logging.Setup(cfg.LogOptions()); err != nil {
		return err
	}
	o.cfg = cfg

	ctrl.Log.WithName("setup").V(logging.DEBUG).Info("Configuration loaded",
		"configFile", v.ConfigFileUsed(),
		"historyPath", cfg.Data.HistoryPath,
		"modelPath", cfg.Data.ModelPath,
		"rounding", cfg.Capacity.Rounding)
	return nil
}

// bindFlags binds only flags the user set, so unset flags never mask config
// file values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagBindings {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// newService builds the planner over the configured files.
func (o *globalOptions) newService(observer assets.Observer, recorder planner.Recorder) (*planner.Service, *assets.Store) {
	store := assets.NewStore(assets.FileLoader{
		HistoryPath: o.cfg.Data.HistoryPath,
		ModelPath:   o.cfg.Data.ModelPath,
	}, observer)
	svc := planner.NewService(store, planner.Options{
		Profiles: o.cfg.CapacityProfiles(),
		Rounding: o.cfg.RoundingPolicy(),
		Recorder: recorder,
	})
	return svc, store
}

// print writes v in the selected output format.
func (o *globalOptions) print(w io.Writer, v any) error {
	if o.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// queryContext attaches the setup logger to ctx.
func queryContext(ctx context.Context, name string) context.Context {
	return ctrl.LoggerInto(ctx, ctrl.Log.WithName(name))
}
