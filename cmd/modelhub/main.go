// Package main is the entry point for the modelhub server and CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"modelhub/config"
	"modelhub/internal/app"
	"modelhub/internal/core"
	"modelhub/internal/logging"

	// Import producer packages to trigger their init() registration
	_ "modelhub/internal/providers/catalogfile"
	_ "modelhub/internal/providers/httpsource"
	_ "modelhub/internal/providers/openaicompat"
	"modelhub/internal/version"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelhub",
		Short: "Model registry and selection engine",
		Long:  "Aggregates AI model catalogs from configured providers and selects the best model for a request under capability, provider, and budget constraints.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env before config so api_key_env lookups see it
			_ = godotenv.Load()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./modelhub.yaml)")

	rootCmd.AddCommand(
		serveCmd(),
		modelsCmd(),
		selectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfigAndLogging() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigAndLogging()
			if err != nil {
				return err
			}

			slog.Info("starting modelhub",
				"version", version.Version,
				"commit", version.Commit,
				"build_date", version.Date,
			)

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			// Shut down cleanly on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- a.Start() }()

			select {
			case err := <-errCh:
				_ = a.Shutdown(context.Background())
				return err
			case <-ctx.Done():
				slog.Info("shutting down")
				return a.Shutdown(context.Background())
			}
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Aggregate the catalog and list all models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigAndLogging()
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(context.Background()) }()

			waitCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := a.Registry().WaitReady(waitCtx); err != nil {
				return fmt.Errorf("catalog aggregation did not complete: %w", err)
			}

			entries := a.Registry().List()
			sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPROVIDER\tTIER\tCONTEXT\tIN $/M\tOUT $/M\tCAPABILITIES")
			for _, e := range entries {
				in, out := "-", "-"
				if e.Pricing != nil {
					in = fmt.Sprintf("%.2f", e.Pricing.InputPer1M)
					out = fmt.Sprintf("%.2f", e.Pricing.OutputPer1M)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					e.ID, e.Provider, e.Tier, e.ContextWindow, in, out,
					capList(e.Capabilities))
			}
			return w.Flush()
		},
	}
}

func selectCmd() *cobra.Command {
	var (
		model       string
		required    []string
		optional    []string
		allow       []string
		deny        []string
		minContext  int
		maxPerMTok  float64
		maxPerReq   float64
		estTokens   int
		profile     string
		weightFlags []string
		showAll     bool
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the best model for the given constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigAndLogging()
			if err != nil {
				return err
			}

			crit := core.Criteria{
				Model:            model,
				Required:         capSet(required),
				Optional:         capSet(optional),
				Providers:        core.ProviderFilter{Allow: allow, Deny: deny},
				MinContextWindow: minContext,
				Budget: core.Budget{
					MaxCostPerMTok:    maxPerMTok,
					MaxCostPerRequest: maxPerReq,
				},
				EstimatedTokens: estTokens,
				Profile:         profile,
			}
			crit.Weights, err = parseWeights(weightFlags)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(context.Background()) }()

			waitCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := a.Registry().WaitReady(waitCtx); err != nil {
				return fmt.Errorf("catalog aggregation did not complete: %w", err)
			}

			res, err := a.Selector().Select(cmd.Context(), crit)
			if err != nil {
				return err
			}

			fmt.Printf("selected: %s (score %.4f)\n", res.Entry.ID, res.Score)
			if showAll && len(res.Candidates) > 0 {
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RANK\tID\tSCORE\tCOST\tSPEED\tQUALITY")
				for i, cand := range res.Candidates {
					fmt.Fprintf(w, "%d\t%s\t%.4f\t%.3f\t%.3f\t%.3f\n",
						i+1, cand.Entry.ID, cand.Score,
						cand.Metrics[core.MetricCost],
						cand.Metrics[core.MetricSpeed],
						cand.Metrics[core.MetricQuality])
				}
				return w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Exact model ID, bypassing scoring")
	cmd.Flags().StringSliceVar(&required, "require", nil, "Required capabilities (e.g. chat,vision)")
	cmd.Flags().StringSliceVar(&optional, "optional", nil, "Optional capabilities that boost quality")
	cmd.Flags().StringSliceVar(&allow, "providers", nil, "Allowed providers (default: all)")
	cmd.Flags().StringSliceVar(&deny, "deny", nil, "Denied providers")
	cmd.Flags().IntVar(&minContext, "min-context", 0, "Minimum context window in tokens")
	cmd.Flags().Float64Var(&maxPerMTok, "max-cost-mtok", 0, "Max average cost per million tokens")
	cmd.Flags().Float64Var(&maxPerReq, "max-cost-request", 0, "Max cost for one request (requires --estimated-tokens)")
	cmd.Flags().IntVar(&estTokens, "estimated-tokens", 0, "Estimated tokens for the request")
	cmd.Flags().StringVar(&profile, "profile", "", "Named weight profile from config")
	cmd.Flags().StringSliceVar(&weightFlags, "weight", nil, "Metric weight as name=value (e.g. cost=2,quality=1)")
	cmd.Flags().BoolVar(&showAll, "all", false, "Show all ranked candidates")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	}
}

func capSet(tags []string) core.CapabilitySet {
	if len(tags) == 0 {
		return nil
	}
	set := core.NewCapabilitySet()
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			set.Add(core.Capability(t))
		}
	}
	return set
}

func parseWeights(flags []string) (map[string]float64, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	weights := make(map[string]float64, len(flags))
	for _, f := range flags {
		name, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q: want name=value", f)
		}
		var w float64
		if _, err := fmt.Sscanf(val, "%g", &w); err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", f, err)
		}
		weights[strings.TrimSpace(name)] = w
	}
	return weights, nil
}

func capList(caps core.CapabilitySet) string {
	list := caps.List()
	parts := make([]string, len(list))
	for i, c := range list {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
