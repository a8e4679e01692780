package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/bindkit/binding"
	"github.com/kbukum/bindkit/component"
	"github.com/kbukum/bindkit/config"
	"github.com/kbukum/bindkit/di"
	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/logger"
	"github.com/kbukum/bindkit/observability"
	"github.com/kbukum/bindkit/version"
)

type demoOptions struct {
	strict     bool
	clearStale bool
	metrics    bool
	explain    bool
}

func newDemoCommand(root *rootOptions) *cobra.Command {
	opts := &demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Inject three components and switch their binding context",
		Long: `Builds a "production" and a "local" registry, creates a Service, an
Auditor and a Worker against production, then switches the engine to local.
Each component logs once per context and the table shows which logger
implementation handled the call.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if opts.strict {
				cfg.Resolution.Policy = binding.Strict.String()
			}
			if opts.clearStale {
				cfg.Injection.StalePolicy = di.ClearStale.String()
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Metrics.Enabled = opts.metrics
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg, opts.explain)
		},
	}
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exclude candidates whose owner restriction or predicate does not match")
	cmd.Flags().BoolVar(&opts.clearStale, "clear-stale", false, "Reset members the new context does not bind")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Record OpenTelemetry metrics (overrides metrics.enabled)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print the ranked candidates for every owner")
	return cmd
}

func runDemo(ctx context.Context, out io.Writer, cfg *config.Engine, explain bool) error {
	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	logger.Register("bindkit.binding", log.WithComponent("binding"))
	logger.Register("bindkit.di", log.WithComponent("di"))
	defer logger.Unregister("bindkit.binding")
	defer logger.Unregister("bindkit.di")

	policy, err := binding.ParsePolicy(cfg.Resolution.Policy)
	if err != nil {
		return errors.InvalidConfig(err.Error())
	}

	lc := component.NewRegistry(log.WithComponent("component"))
	defer func() {
		if err := lc.StopAll(context.Background()); err != nil {
			log.Warn("shutdown incomplete", logger.ErrorFields("stop", err))
		}
	}()

	metrics, meter, err := setupMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	if meter != nil {
		if err := lc.Register(meter); err != nil {
			return err
		}
	}

	pool := binding.NewPool(cfg.Pool.Prealloc)
	newRegistry := func(name string) *binding.Registry {
		return binding.NewRegistry(
			binding.WithName(name),
			binding.WithPool(pool),
			binding.WithPolicy(policy),
			binding.WithMetrics(metrics),
		)
	}
	lines := &sink{}
	production := newRegistry("production")
	productionBindings(production, lines)
	local := newRegistry("local")
	localBindings(local, lines)

	engine, err := di.New(production, di.FromConfig(cfg), di.WithMetrics(metrics))
	if err != nil {
		return err
	}
	for _, c := range []component.Component{
		registryComponent(production),
		registryComponent(local),
		engineComponent(engine),
	} {
		if err := lc.Register(c); err != nil {
			return err
		}
	}
	if err := lc.StartAll(ctx); err != nil {
		return err
	}

	svc, err := di.Make[*Service](engine)
	if err != nil {
		return err
	}
	aud, err := di.Make[*Auditor](engine)
	if err != nil {
		return err
	}
	wrk, err := di.Make[*Worker](engine)
	if err != nil {
		return err
	}
	comps := owners(svc, aud, wrk)

	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "CONTEXT\tOWNER\tLOGGER\tOUTPUT")
	report(tw, production.Name(), comps, lines)

	if explain {
		if err := tw.Flush(); err != nil {
			return err
		}
		explainRanking(out, production, comps)
		tw = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	}

	if err := engine.SwitchContext(local, true); err != nil {
		return err
	}
	report(tw, local.Name(), comps, lines)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\npolicy=%s stale=%s tracked=%d\n", policy, cfg.Injection.StalePolicy, engine.Tracked())
	for _, h := range lc.HealthAll(ctx) {
		fmt.Fprintf(out, "health %s %s %s\n", h.Name, h.Status, h.Message)
	}
	return nil
}

// report lets every component log once and prints who handled it.
func report(w io.Writer, ctxName string, comps []owner, lines *sink) {
	for _, c := range comps {
		l := c.logger()
		if l == nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ctxName, c.name, "unbound", "-")
			continue
		}
		l.Log("handled " + c.name)
		fmt.Fprintf(w, "%s\t%s\t%T\t%s\n", ctxName, c.name, l, lines.take())
	}
}

func explainRanking(w io.Writer, reg *binding.Registry, comps []owner) {
	resolver := binding.Resolver{Policy: reg.Policy()}
	for _, c := range comps {
		candidates := reg.Candidates(loggerType)
		ranks := resolver.Sort(candidates, c.typ)
		fmt.Fprintf(w, "\n%s in %s:\n", c.name, reg.Name())
		for i, d := range candidates {
			r := ranks[i]
			fmt.Fprintf(w, "  %d. %s (same_owner=%t predicate=%t instance=%t)\n",
				i+1, d, r.SameOwner, r.PredicateOK, r.HasInstance)
		}
		if best := reg.Resolve(loggerType, c.typ); best != nil {
			fmt.Fprintf(w, "  => %s\n", best)
		} else {
			fmt.Fprintln(w, "  => unbound")
		}
	}
	fmt.Fprintln(w)
}

// setupMetrics installs a meter provider when metrics are enabled and
// returns the component that shuts it down.
func setupMetrics(ctx context.Context, cfg *config.Engine) (*observability.Metrics, component.Component, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil, nil
	}
	mc := cfg.MeterConfig()
	if cfg.Version == "" {
		mc.ServiceVersion = version.Read().Version
	}
	mp, err := observability.InitMeter(ctx, &mc)
	if err != nil {
		return nil, nil, err
	}
	meter := &component.Func{
		ID:     "meter",
		StopFn: mp.Shutdown,
	}
	metrics, err := observability.NewMetrics(mp.Meter(cfg.Name))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	return metrics, meter, nil
}
