package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/flowcoord/internal/flow"
	"github.com/vampirenirmal/flowcoord/internal/flowconfig"
	"github.com/vampirenirmal/flowcoord/internal/logging"
)

type runFlags struct {
	FlowID string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Build a flow from a pipeline manifest and drive it from stdin",
		Long: `run reads one pipeline manifest, resolves its phases against the
built-in module registry, and starts a flow. Each stdin line is parsed as
a JSON value and delivered to the head phase as one input; EOF on stdin
signals end-of-input. Once the flow reaches its terminal message, every
collected result batch is printed to stdout as one JSON line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.FlowID, "flow-id", "", "Explicit flow_id (generated if empty)")
	return cmd
}

func runFlow(cmd *cobra.Command, manifestPath string, flags runFlags) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := flowconfig.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	manifest, err := flow.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	specs, err := manifest.Resolve(builtinModules())
	if err != nil {
		return err
	}

	logger := logging.New("flowctl")
	client := make(chan flow.ClientMessage, cfg.BufferSize)

	fl, err := flow.Start(ctx, client, flags.FlowID, specs, nil, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting flow %q: %w", manifest.Name, err)
	}

	if err := feedStdin(ctx, fl); err != nil {
		return err
	}
	fl.FinishInputs(ctx)

	collector := flow.NewResultCollector(fl.ID(), client, cfg.CollectTimeout)
	result, err := collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("flow %s: %w", fl.ID(), err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for phaseID, batches := range result.ByPhase {
		for _, batch := range batches {
			if err := enc.Encode(map[string]any{"phase_id": phaseID, "result": batch}); err != nil {
				return err
			}
		}
	}
	return nil
}

func feedStdin(ctx context.Context, fl *flow.Flow) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return fmt.Errorf("parsing input line %q: %w", line, err)
		}
		if err := fl.AddInputs(ctx, []any{v}); err != nil {
			return fmt.Errorf("delivering input: %w", err)
		}
	}
	return scanner.Err()
}
