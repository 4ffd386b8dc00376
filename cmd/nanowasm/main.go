// Command nanowasm is a small demonstration CLI around the bundled example
// fixtures: it is not a conformance-suite runner (that ingests a serialized
// test format and is out of this repository's scope) but an embedder-style
// driver that instantiates one fixture module and invokes one of its
// exported functions with integer arguments from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nanowasm/nanowasm"
	"github.com/nanowasm/nanowasm/api"
	"github.com/nanowasm/nanowasm/cmd/nanowasm/internal/env"
	"github.com/nanowasm/nanowasm/internal/fixtures"
	"github.com/nanowasm/nanowasm/wasm"
)

var fixtureModules = map[string]func() *wasm.Module{
	"add":      fixtures.AddModule,
	"abs":      fixtures.AbsModule,
	"div":      fixtures.DivModule,
	"peek":     fixtures.PeekModule,
	"loop_sum": fixtures.LoopSumModule,
	"route":    fixtures.RouteModule,
	"select":   fixtures.SelectModule,
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		fixture  string
		function string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "nanowasm [args...]",
		Short: "Run an exported function from a bundled example module",
		Long: "nanowasm instantiates one of its bundled example modules and invokes one\n" +
			"of its exported functions, passing the remaining arguments as i32 values.\n" +
			"Flags may also be set via NANOWASM_FIXTURE / NANOWASM_FUNCTION / NANOWASM_VERBOSE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Bind(cmd); err != nil {
				return err
			}
			return run(fixture, function, args, verbose)
		},
	}

	cmd.Flags().StringVarP(&fixture, "fixture", "f", "add", "fixture module to instantiate ("+fixtureNames()+")")
	cmd.Flags().StringVarP(&function, "function", "n", "add", "exported function to invoke")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func fixtureNames() string {
	names := make([]string, 0, len(fixtureModules))
	for name := range fixtureModules {
		names = append(names, name)
	}
	return fmt.Sprintf("%v", names)
}

func run(fixtureName, function string, rawArgs []string, verbose bool) error {
	build, ok := fixtureModules[fixtureName]
	if !ok {
		return fmt.Errorf("unknown fixture %q (available: %s)", fixtureName, fixtureNames())
	}

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	store := nanowasm.NewStore(nanowasm.Config{Log: log})
	store.AddHostFunction("env", "log", func(_ context.Context, _ *wasm.Instance, stack []uint64) error {
		fmt.Printf("env.log: %d\n", api.DecodeI32(stack[0]))
		return nil
	}, []api.ValueType{api.ValueTypeI32}, nil)

	ctx := context.Background()
	inst, err := nanowasm.Instantiate(ctx, store, "cli/"+fixtureName, build(), wasm.InvokeConfig{})
	if err != nil {
		return err
	}

	args, err := parseI32Args(rawArgs)
	if err != nil {
		return err
	}
	result, err := inst.InvokeTyped(ctx, function, args, api.ValueTypeI32)
	if err != nil {
		return err
	}
	fmt.Printf("%s.%s(%v) = %d\n", fixtureName, function, rawArgs, result.I32())
	return nil
}

func parseI32Args(raw []string) ([]wasm.Value, error) {
	args := make([]wasm.Value, len(raw))
	for i, a := range raw {
		var v int32
		if _, err := fmt.Sscanf(a, "%d", &v); err != nil {
			return nil, fmt.Errorf("argument %d (%q) is not an i32: %w", i, a, err)
		}
		args[i] = wasm.I32(v)
	}
	return args, nil
}
