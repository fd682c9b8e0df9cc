// fluxterm-sim drives the incremental view maintenance engine with
// synthetic style churn and writes one evidence JSONL line per epoch to
// stdout. It doubles as a benchmarking harness: run it with
// FLUXTERM_FULL_RECOMPUTE=1 (or --force-full) to measure the
// full-recomputation baseline against the incremental path.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fluxterm/fluxterm/internal/buildinfo"
	"github.com/fluxterm/fluxterm/pkg/config"
	"github.com/fluxterm/fluxterm/pkg/dag"
	"github.com/fluxterm/fluxterm/pkg/delta"
	"github.com/fluxterm/fluxterm/pkg/engine"
	"github.com/fluxterm/fluxterm/pkg/stylehash"
	"github.com/fluxterm/fluxterm/pkg/view"
)

var (
	version    = "dev"
	commitHash = "n/a"
	buildDate  = "<unknown>"
)

func main() {
	var (
		epochs      int
		keys        int
		churn       int
		configFile  string
		forceFull   bool
		metricsAddr string
		verbosity   int
	)

	cmd := &cobra.Command{
		Use:   "fluxterm-sim",
		Short: "Drive the fluxterm view maintenance engine with synthetic churn",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(epochs, keys, churn, configFile, forceFull, metricsAddr, verbosity)
		},
	}

	cmd.Flags().IntVar(&epochs, "epochs", 100, "Number of propagation epochs to run.")
	cmd.Flags().IntVar(&keys, "keys", 1000, "Number of style keys in the working set.")
	cmd.Flags().IntVar(&churn, "churn", 10, "Number of keys mutated per epoch.")
	cmd.Flags().StringVar(&configFile, "config", "", "Optional YAML config file.")
	cmd.Flags().BoolVar(&forceFull, "force-full", false, "Force full recomputation every epoch.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "The address the metric endpoint binds to (empty disables metrics).")
	cmd.Flags().IntVarP(&verbosity, "verbose", "v", 0, "Log verbosity level.")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(epochs, keys, churn int, configFile string, forceFull bool, metricsAddr string, verbosity int) error {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zl, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	log := zapr.NewLogger(zl).WithName("fluxterm-sim")

	info := buildinfo.BuildInfo{Version: version, CommitHash: commitHash, BuildDate: buildDate}
	log.Info("starting", "build-info", info.String(), "epochs", epochs, "keys", keys, "churn", churn)

	cfg := config.FromEnv()
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	}
	if forceFull {
		cfg.ForceFull = true
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error(err, "metrics endpoint failed", "addr", metricsAddr)
			}
		}()
	}

	topology := dag.New()
	resolverID := topology.AddView("ThemeResolver", view.DomainStyle)
	visibleID := topology.AddView("VisibleStyles", view.DomainFilteredList)
	renderID := topology.AddView("RenderQueue", view.DomainRender)
	if err := topology.AddEdge(resolverID, visibleID); err != nil {
		return err
	}
	if err := topology.AddEdge(visibleID, renderID); err != nil {
		return err
	}
	if err := topology.ComputeTopoOrder(); err != nil {
		return err
	}

	eng := engine.New[view.StyleKey, view.ResolvedStyleValue](topology, cfg, log)

	resolver := view.NewStyleResolutionView("ThemeResolver", stylehash.Style(0xDADADA, 0x1C1C1C, 0))
	visible := view.NewFilteredListView("VisibleStyles",
		func(_ view.StyleKey, v view.ResolvedStyleValue) bool { return v.StyleHash%4 != 0 })
	renderQueue := view.NewFilteredListView("RenderQueue",
		func(_ view.StyleKey, v view.ResolvedStyleValue) bool { return v.StyleHash%2 != 0 })
	for id, v := range map[dag.ViewID]view.IncrementalView[view.StyleKey, view.ResolvedStyleValue]{
		resolverID: resolver,
		visibleID:  visible,
		renderID:   renderQueue,
	} {
		if err := eng.Register(id, v); err != nil {
			return err
		}
	}

	start := time.Now()
	for epoch := uint64(1); epoch <= uint64(epochs); epoch++ {
		batch := delta.NewBatch[view.StyleKey, view.ResolvedStyleValue](epoch)
		if epoch == 1 {
			// Initial population.
			for i := 0; i < keys; i++ {
				batch.Insert(view.StyleKey(i),
					view.ResolvedStyleValue{StyleHash: stylehash.Sum(epoch, uint64(i))}, uint64(i))
			}
		} else {
			for j := 0; j < churn; j++ {
				key := view.StyleKey((epoch*97 + uint64(j)*31) % uint64(keys))
				if j%7 == 6 {
					batch.Delete(key, uint64(j))
				} else {
					batch.Insert(key, view.ResolvedStyleValue{StyleHash: stylehash.Sum(epoch, uint64(key))}, uint64(j))
				}
			}
		}

		ev, err := eng.Propagate(map[dag.ViewID]*delta.Batch[view.StyleKey, view.ResolvedStyleValue]{
			resolverID: batch,
		})
		if err != nil {
			return fmt.Errorf("epoch %d failed: %w", epoch, err)
		}
		if cfg.EmitEvidence {
			fmt.Println(ev.ToJSONL())
		}
	}

	log.Info("done", "epochs", epochs, "elapsed", time.Since(start),
		"resolved", resolver.MaterializedSize(), "visible", visible.VisibleCount(),
		"render_queue", renderQueue.VisibleCount())
	return nil
}
