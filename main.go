package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bayleafwalker/quire/internal/lockfile"
	"github.com/bayleafwalker/quire/internal/registry"
	"github.com/bayleafwalker/quire/internal/resolver"
)

var (
	verbose bool

	registryURL   string
	manifestPath  string
	platforms     []string
	lockfilePath  string
	freshResolve  bool
	maxIterations int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "quire resolves package dependency graphs into conflict-free installation plans",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <package[@constraint]>...",
	Short: "Resolve the requested packages and print the installation plan",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := buildProvider()
		if err != nil {
			return err
		}

		opts := resolver.Options{
			TargetPlatforms: platforms,
			MaxIterations:   maxIterations,
		}
		if lockfilePath != "" && !freshResolve {
			if lock, err := lockfile.Read(lockfilePath); err == nil {
				opts.Pins = lock.Pins()
				logger.Debug("lock record loaded", zap.Int("pins", len(opts.Pins)))
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}

		requested := make([]resolver.PackageSpec, 0, len(args))
		for _, arg := range args {
			requested = append(requested, parseSpec(arg))
		}

		engine := resolver.New(provider, opts, logger)
		res, err := engine.Resolve(cmd.Context(), requested)
		if err != nil {
			return err
		}

		printResult(cmd, res)

		if !res.Resolved {
			cmd.SilenceUsage = true
			return fmt.Errorf("resolution failed: %w", res.Err())
		}
		if lockfilePath != "" {
			pins := make(map[string]string, len(res.FinalPackages))
			for _, name := range res.FinalPackages {
				if n, ok := res.Graph.Node(name); ok {
					pins[name] = n.Version
				}
			}
			if err := lockfile.Write(lockfilePath, res.RunID, pins); err != nil {
				return err
			}
			cmd.Printf("lock record written to %s\n", lockfilePath)
		}
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect the lock record",
}

var lockShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the pinned packages in the lock record",
	RunE: func(cmd *cobra.Command, args []string) error {
		lock, err := lockfile.Read(lockfilePath)
		if err != nil {
			return err
		}
		cmd.Printf("lock record (run %s, generated %s)\n", lock.RunID, lock.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		for _, name := range lock.Names() {
			cmd.Printf("  %s %s\n", name, lock.Packages[name].Version)
		}
		return nil
	},
}

func buildProvider() (registry.Provider, error) {
	switch {
	case manifestPath != "" && registryURL != "":
		return nil, errors.New("--manifest and --registry are mutually exclusive")
	case manifestPath != "":
		return registry.LoadManifest(manifestPath)
	case registryURL != "":
		return registry.NewHTTPRegistry(registryURL), nil
	default:
		return nil, errors.New("either --manifest or --registry is required")
	}
}

// parseSpec splits "name@constraint" into a PackageSpec. A bare name has no
// constraint.
func parseSpec(arg string) resolver.PackageSpec {
	if i := strings.Index(arg, "@"); i > 0 {
		return resolver.PackageSpec{Name: arg[:i], Constraint: arg[i+1:]}
	}
	return resolver.PackageSpec{Name: arg}
}

func printResult(cmd *cobra.Command, res resolver.Result) {
	if len(res.Conflicts) > 0 {
		cmd.Printf("conflicts (%d):\n", len(res.Conflicts))
		for _, c := range res.Conflicts {
			cmd.Printf("  [%s] %s: %s\n", c.Severity, c.ID, c.Detail)
		}
	}
	if len(res.Plan.Steps) > 0 {
		cmd.Printf("plan (%d steps):\n", len(res.Plan.Steps))
		for i, step := range res.Plan.Steps {
			cmd.Printf("  %d. %s (%s)\n", i+1, step.Strategy.String(), step.ConflictID)
		}
	}
	if res.Resolved {
		cmd.Printf("resolved %d packages:\n", len(res.FinalPackages))
		for _, name := range res.FinalPackages {
			if n, ok := res.Graph.Node(name); ok {
				cmd.Printf("  %s %s\n", name, n.Version)
			}
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	resolveCmd.Flags().StringVar(&registryURL, "registry", "", "base URL of an HTTP package registry")
	resolveCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to a YAML registry manifest")
	resolveCmd.Flags().StringSliceVar(&platforms, "platforms", nil, "target platforms the resolved set must support")
	resolveCmd.Flags().StringVar(&lockfilePath, "lockfile", "", "lock record path; read as pins and written on success")
	resolveCmd.Flags().BoolVar(&freshResolve, "fresh", false, "ignore an existing lock record")
	resolveCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "planner iteration ceiling (default 10)")

	lockShowCmd.Flags().StringVar(&lockfilePath, "lockfile", "quire.lock", "lock record path")

	lockCmd.AddCommand(lockShowCmd)
	rootCmd.AddCommand(resolveCmd, lockCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
