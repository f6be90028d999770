package main

import (
	"context"
	"os"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/spf13/cobra"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/gateway/sim"
	"main/internal/obs"
	"main/internal/oms"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/server"
)

var (
	flagConfig    string
	flagPyroscope string
	flagCash      float64
	flagAutoFill  bool
)

var rootCmd = &cobra.Command{
	Use:           "trader",
	Short:         "Order admission and position accounting core",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading core against the paper gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	runCmd.Flags().StringVarP(&flagConfig, "config", "c", "config.yaml", "config file path")
	runCmd.Flags().StringVar(&flagPyroscope, "pyroscope", "", "pyroscope server address (empty disables profiling)")
	runCmd.Flags().Float64Var(&flagCash, "cash", 1_000_000, "initial paper account cash")
	runCmd.Flags().BoolVar(&flagAutoFill, "auto-fill", true, "fill paper orders immediately at the order price")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logs.Errorf("%+v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := ops.Load(flagConfig)
	if err != nil {
		return err
	}

	if flagPyroscope != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trader",
			ServerAddress:   flagPyroscope,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start pyroscope")
		}
		defer func() { _ = profiler.Stop() }()
	}

	table, err := cfg.LoadContracts()
	if err != nil {
		return err
	}
	if table == nil {
		return errors.New("a contracts source (file or postgres) is required")
	}
	logs.Infof("contract table loaded. instruments: %d", table.Count())

	contracts := make([]schema.Contract, 0, table.Count())
	for tid := uint32(1); int(tid) <= table.Count(); tid++ {
		contracts = append(contracts, *table.ByIndex(tid))
	}
	gw := sim.New(sim.Config{
		Account: schema.Account{
			AccountID:  cfg.Gateway.AccountID,
			TotalAsset: flagCash,
			Cash:       flagCash,
		},
		Contracts:  contracts,
		AutoAccept: true,
		AutoFill:   flagAutoFill,
	})

	metrics := obs.NewMetrics()
	queue := bus.NewQueue(cfg.CommandQueueSize)
	fanout := bus.NewFanout(cfg.ResponseBufferSize)

	core, err := oms.New(gw, table, cfg.Risk, fanout, metrics, oms.Options{
		Gateway:         cfg.Gateway,
		RefreshInterval: cfg.AccountRefresh,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sys.Shutdown()
		logs.Info("shutdown signal received")
		cancel()
		queue.Close()
	}()

	if cfg.StrategySocket != "" {
		srv, err := server.New(cfg.StrategySocket, queue, fanout, metrics)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Run(ctx); err != nil {
				logs.Errorf("strategy server stopped: %+v", err)
			}
		}()
	}

	logs.Info("trading core running")
	core.Run(ctx, queue)

	core.Shutdown()
	logDrainStats(metrics)
	return nil
}

func logDrainStats(metrics *obs.Metrics) {
	snap := metrics.Snapshot()
	logs.Infof("commands: %v, rejects: %v, callbacks: %d, ticks: %d, queue drops: %d",
		snap.CommandCounts, snap.RejectCounts, snap.Callbacks, snap.Ticks, snap.QueueDrops)
	if snap.SendLatency.Count > 0 {
		logs.Infof("send latency: avg %s, max %s over %d orders",
			snap.SendLatency.Avg.Round(time.Microsecond),
			snap.SendLatency.Max.Round(time.Microsecond),
			snap.SendLatency.Count)
	}
}
