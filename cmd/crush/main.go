// Command crush is a thin cobra entrypoint wiring value/scope/command/
// invoke/job/external/state together end to end (§10), grounded on the
// teacher's own cli/main.go cobra root command: flags feed a single
// RunE, errors come back up rather than through an early os.Exit, so
// deferred cleanup still runs before the process exits.
//
// The full lexer/parser/REPL loop is out of scope (§9 Non-goals); this
// instead resolves and runs one external command as a single-stage job,
// which is enough to exercise every §4 package together.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liljencrantz/crush/external"
	"github.com/liljencrantz/crush/invoke"
	"github.com/liljencrantz/crush/job"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/source"
	"github.com/liljencrantz/crush/state"
	"github.com/liljencrantz/crush/value"
)

func main() {
	var (
		cmdPath    []string
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "crush <program> [args...]",
		Short:         "Run one external command through the crush pipeline runtime",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, cmdPath, configPath, debug)
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&cmdPath, "cmd-path", defaultCmdPath(), "directories searched for external commands")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML format-data config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crush:", err)
		os.Exit(1)
	}
}

func defaultCmdPath() []string {
	path := os.Getenv("PATH")
	if path == "" {
		return nil
	}
	return strings.Split(path, string(os.PathListSeparator))
}

func run(args, cmdPath []string, configPath string, debug bool) error {
	log, err := newLogger(debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	fd := state.DefaultFormatData()
	if configPath != "" {
		fd, err = state.LoadFormatData(configPath)
		if err != nil {
			return err
		}
	}
	st := state.New(fd, log)

	paths, err := external.NewPathResolver(log)
	if err != nil {
		return fmt.Errorf("starting cmd_path watcher: %w", err)
	}
	defer func() { _ = paths.Close() }()
	paths.SetDirs(cmdPath)
	resolver := external.Resolver{Paths: paths, Log: log}

	jobHandle := st.Jobs.NewJob(strings.Join(args, " "))
	defer jobHandle.Release()
	spawner := job.Adapter{Reg: st.Jobs, Job: &jobHandle}

	rootScope := scope.New()

	printer := func(v value.Value) {
		if s, err := v.Convert(value.String); err == nil {
			fmt.Println(s.String())
			return
		}
		fmt.Println(v.String())
	}

	ec := &invoke.EvalContext{
		Scope:    rootScope,
		Spawner:  spawner,
		External: resolver,
		Printer:  printer,
	}

	src := source.New("<argv>", source.TypeString, strings.Join(args, " "))
	invArgs := make([]invoke.ArgumentDefinition, 0, len(args)-1)
	for _, a := range args[1:] {
		invArgs = append(invArgs, invoke.ArgumentDefinition{
			Value: invoke.Literal{V: value.NewString(a), S: &source.Span{Source: src}},
		})
	}

	stage := &invoke.CommandInvocation{
		CommandExpr: invoke.Identifier{Name: args[0], S: &source.Span{Source: src}},
		Arguments:   invArgs,
		SourceSpan:  &source.Span{Source: src},
	}

	result, err := invoke.RunJob(ec, invoke.Job{stage}, rootScope, pipe.EmptyChannel())
	if err != nil {
		return err
	}
	if result != nil && result != value.EmptyValue {
		printer(result)
	}

	st.Jobs.Reap(func(name string, err error) {
		fmt.Fprintf(os.Stderr, "crush: thread %q: %v\n", name, err)
	})
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
