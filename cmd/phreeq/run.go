package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"phreeqcore/internal/blob"
	"phreeqcore/internal/observability"
	"phreeqcore/internal/persistence"
	"phreeqcore/pkg/session"
	"phreeqcore/pkg/units"
)

const defaultSaturateAmount = 10

var openMetadata = persistence.Open

type runOptions struct {
	*rootOptions
	metricsFile   string
	storeMetadata bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Apply the steps of a YAML scenario to a fresh session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file")
	cmd.Flags().BoolVar(&opts.storeMetadata, "store-metadata", false, "save dump metadata to the configured metadata store")
	return cmd
}

// fanout forwards observations to several recorders.
type fanout []session.MetricsRecorder

func (f fanout) Observe(ctx context.Context, op string, ok bool, d time.Duration) {
	for _, r := range f {
		r.Observe(ctx, op, ok, d)
	}
}

func runScenario(ctx context.Context, opts *runOptions, path string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	logger := opts.logger(errOut)

	database := opts.database
	if database == "" {
		database = os.Getenv(session.EnvDatabase)
	}
	sessionOpts := []session.Option{session.WithDatabase(database), session.WithLogger(logger)}

	recorders := fanout{}
	var reg *prometheus.Registry
	if opts.metricsFile != "" {
		reg = prometheus.NewRegistry()
		recorders = append(recorders, observability.NewPrometheusRecorder(reg))
	}
	var summary *observability.ExpvarRecorder
	if opts.verbose {
		summary = observability.NewExpvarRecorder("")
		recorders = append(recorders, summary)
	}
	if len(recorders) > 0 {
		sessionOpts = append(sessionOpts, session.WithMetricsRecorder(recorders))
	}

	if sc.dumps() {
		store, err := blob.Open(ctx)
		if err != nil {
			return fmt.Errorf("open blob store: %w", err)
		}
		sessionOpts = append(sessionOpts, session.WithBlobStore(store))
	}
	if opts.storeMetadata {
		meta, err := openMetadata()
		if err != nil {
			return fmt.Errorf("open metadata store: %w", err)
		}
		defer func() { _ = meta.Close() }()
		sessionOpts = append(sessionOpts, session.WithMetadataStore(meta))
	}

	gw, err := newGateway()
	if err != nil {
		return fmt.Errorf("start %s engine: %w", engineName, err)
	}
	s, err := session.New(gw, sessionOpts...)
	if err != nil {
		_ = gw.Close()
		return err
	}
	defer func() { _ = s.Close() }()

	ex := &executor{ctx: ctx, s: s, out: out, named: map[string]*session.Solution{}}
	for i, st := range sc.Steps {
		if err := ex.apply(st); err != nil {
			logger.Error("scenario step failed", "step", i+1, "op", st.Op, "error", err)
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if summary != nil {
		snap := summary.Snapshot()
		for _, op := range slices.Sorted(maps.Keys(snap.Results)) {
			logger.Info("engine runs", "operation", op,
				"success", snap.Results[op]["success"], "error", snap.Results[op]["error"],
				"total_ms", snap.DurationsMS[op])
		}
	}
	return nil
}

type executor struct {
	ctx   context.Context
	s     *session.Session
	out   io.Writer
	named map[string]*session.Solution
}

func (ex *executor) lookup(name string) (*session.Solution, error) {
	sol, ok := ex.named[name]
	if !ok {
		return nil, fmt.Errorf("unknown solution %q", name)
	}
	return sol, nil
}

func (ex *executor) apply(st Step) error {
	switch st.Op {
	case "add_solution":
		sol, err := ex.s.AddSolution(session.Composition(st.Composition), nil)
		if err != nil {
			return err
		}
		ex.named[st.Name] = sol
		fmt.Fprintf(ex.out, "%s: solution %d\n", st.Name, sol.Number())
	case "mix":
		parts := make([]session.MixPart, 0, len(st.Parts))
		for _, p := range st.Parts {
			sol, err := ex.lookup(p.Solution)
			if err != nil {
				return err
			}
			parts = append(parts, session.Part(sol, p.Fraction))
		}
		sol, err := ex.s.MixSolutions(parts...)
		if err != nil {
			return err
		}
		ex.named[st.Name] = sol
		fmt.Fprintf(ex.out, "%s: solution %d\n", st.Name, sol.Number())
	case "change":
		sol, err := ex.lookup(st.Solution)
		if err != nil {
			return err
		}
		unit := units.Mmol
		if st.Unit != "" {
			unit = units.Unit(st.Unit)
		}
		_, err = ex.s.Change(sol.Number(), st.Elements, unit)
		return err
	case "saturate":
		sol, err := ex.lookup(st.Solution)
		if err != nil {
			return err
		}
		amount := float64(defaultSaturateAmount)
		if st.Amount != nil {
			amount = *st.Amount
		}
		return sol.Saturate(st.Phase, st.SI, amount)
	case "ph":
		sol, err := ex.lookup(st.Solution)
		if err != nil {
			return err
		}
		return sol.ChangePH(st.PH, st.Chemical)
	case "temperature":
		sol, err := ex.lookup(st.Solution)
		if err != nil {
			return err
		}
		return sol.ChangeTemperature(st.Temperature)
	case "dump":
		numbers := make([]int, 0, len(st.Solutions))
		for _, name := range st.Solutions {
			sol, err := ex.lookup(name)
			if err != nil {
				return err
			}
			numbers = append(numbers, sol.Number())
		}
		info, err := ex.s.DumpSolutions(ex.ctx, numbers, st.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(ex.out, "dumped %s (%s)\n", info.Key, humanize.Bytes(uint64(info.Size)))
	case "report":
		sol, err := ex.lookup(st.Solution)
		if err != nil {
			return err
		}
		return ex.report(st.Solution, sol)
	default:
		return fmt.Errorf("unsupported op %q", st.Op)
	}
	return nil
}

func (ex *executor) report(name string, sol *session.Solution) error {
	fmt.Fprintf(ex.out, "%s (solution %d)\n", name, sol.Number())
	fmt.Fprintf(ex.out, "  pH %.6g  pe %.6g  T %.6g  SC %.6g  mu %.6g  mass %.6g\n",
		sol.PH(), sol.Pe(), sol.Temperature(), sol.SC(), sol.Mu(), sol.Mass())
	elements := sol.Elements()
	for _, el := range slices.Sorted(maps.Keys(elements)) {
		mmol, err := sol.TotalElement(el, units.Mmol)
		if err != nil {
			return err
		}
		fmt.Fprintf(ex.out, "  %s %.6g mmol\n", el, mmol)
	}
	phases := sol.Phases()
	for _, ph := range slices.Sorted(maps.Keys(phases)) {
		fmt.Fprintf(ex.out, "  SI %s %.6g\n", ph, phases[ph])
	}
	return nil
}

var _ session.MetricsRecorder = fanout(nil)

