package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/memverify/config"
	"github.com/sarchlab/memverify/datarecording"
	"github.com/sarchlab/memverify/dut"
	"github.com/sarchlab/memverify/monitoring"
	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/sequence"
	"github.com/sarchlab/memverify/testbench"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a testbench against the behavioral memory.",
	Long: "`run` verifies the behavioral memory with a directed pattern or " +
		"with seeded random stimulus. Options are read from the defaults, " +
		"then the --config file, then .env files and MEMVERIFY_* variables, " +
		"then the flags. The exit code is 1 if the run fails.",
	Run: func(cmd *cobra.Command, args []string) {
		listPatterns, _ := cmd.Flags().GetBool("list-patterns")
		if listPatterns {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(sequence.Patterns(), "\n"))
			return
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}

		faults, err := faultsFromFlags(cmd)
		if err != nil {
			exitWithError(err)
		}

		openBrowser, _ := cmd.Flags().GetBool("open-browser")

		ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := runTestbench(ctx, cmd.OutOrStdout(), cfg, faults,
			openBrowser)
		if result == nil {
			exitWithError(err)
		}

		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}

		if !result.Passed || err != nil {
			atexit.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "YAML file with the options of the run")
	f.StringSlice("env", nil, ".env files with MEMVERIFY_* variables")
	f.StringArray("fault", nil,
		"Inject a device fault, e.g. stale@20, stuck@5, dropwrite@3, "+
			"bitflip@7:0x80. Can be repeated.")
	f.String("mode", "", "Stimulus mode, directed or stress")
	f.String("directed", "", "Directed pattern, see --list-patterns")
	f.Bool("list-patterns", false, "List the directed patterns and exit")
	f.Int64("seed", 0, "Seed of the stress stimulus, 0 picks one")
	f.Uint64("budget", 0, "Number of ticks to run, 0 runs until drained")
	f.Uint64("reset-cycles", 0, "Number of ticks that hold reset")
	f.String("policy", "", "Scoreboard policy, lenient or strict")
	f.String("record", "", "Record the run into this SQLite file")
	f.Int("monitor-port", -1,
		"Serve the monitoring dashboard on this port, 0 for a random port")
	f.Bool("open-browser", false, "Open the monitoring dashboard")
	f.BoolP("verbose", "v", false, "Log every tick")
}

// loadConfig layers the defaults, the config file, the env files and
// variables, and the flags that are set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()
	c := config.Defaults()

	path, _ := f.GetString("config")
	if path != "" {
		var err error

		c, err = config.LoadFile(path)
		if err != nil {
			return c, err
		}
	}

	envFiles, _ := f.GetStringSlice("env")

	c, err := config.ApplyEnv(c, envFiles...)
	if err != nil {
		return c, err
	}

	if f.Changed("mode") {
		mode, _ := f.GetString("mode")
		c.Mode = config.Mode(mode)
	}

	if f.Changed("directed") {
		c.Directed, _ = f.GetString("directed")
	}

	if f.Changed("seed") {
		c.Seed, _ = f.GetInt64("seed")
	}

	if f.Changed("budget") {
		c.TickBudget, _ = f.GetUint64("budget")
	}

	if f.Changed("reset-cycles") {
		c.ResetCycles, _ = f.GetUint64("reset-cycles")
	}

	if f.Changed("policy") {
		policy, _ := f.GetString("policy")

		c.Policy, err = scoreboard.ParsePolicy(policy)
		if err != nil {
			return c, err
		}
	}

	if f.Changed("record") {
		c.RecordPath, _ = f.GetString("record")
	}

	if f.Changed("monitor-port") {
		c.MonitorPort, _ = f.GetInt("monitor-port")
	}

	if f.Changed("verbose") {
		c.Verbose, _ = f.GetBool("verbose")
	}

	return c, c.Validate()
}

func faultsFromFlags(cmd *cobra.Command) ([]dut.Fault, error) {
	specs, _ := cmd.Flags().GetStringArray("fault")

	faults := make([]dut.Fault, 0, len(specs))
	for _, s := range specs {
		f, err := dut.ParseFault(s)
		if err != nil {
			return nil, err
		}

		faults = append(faults, f)
	}

	return faults, nil
}

// runTestbench runs one testbench and prints the summary. The result is nil if
// the testbench could not run at all.
func runTestbench(
	ctx context.Context,
	w io.Writer,
	cfg config.Config,
	faults []dut.Fault,
	openBrowser bool,
) (*testbench.Result, error) {
	builder := testbench.MakeBuilder().
		WithConfig(cfg).
		WithLogger(log.New(w, "", 0)).
		WithDUT(dut.MakeBuilder().WithFaults(faults...).Build("TB.DUT"))

	if cfg.RecordPath != "" {
		recorder := datarecording.New(cfg.RecordPath)
		defer recorder.Close()

		exec := datarecording.NewExecRecorder(recorder)
		exec.Start()
		defer exec.End()

		builder = builder.WithRecorder(recorder)
	}

	if cfg.MonitorPort >= 0 {
		server := monitoring.NewServer().WithPortNumber(cfg.MonitorPort)

		_, err := server.StartServer()
		if err != nil {
			return nil, err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(), 5*time.Second)
			defer cancel()

			_ = server.Shutdown(shutdownCtx)
		}()

		if openBrowser {
			err = server.OpenBrowser()
			if err != nil {
				log.Println(err)
			}
		}

		builder = builder.WithMonitoringServer(server)
	}

	tb, err := builder.Build()
	if err != nil {
		return nil, err
	}

	result, err := tb.Run(ctx)
	if result == nil {
		return nil, err
	}

	fmt.Fprintln(w, result.Summary())

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "interrupted")
	}

	return result, err
}
