// Command semdemo runs one admission episode: a number of units contend
// for a limited number of permits on a shared semaphore, and a summary of
// the run is logged at the end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/llxisdsh/semx"
	"github.com/llxisdsh/semx/admission"
)

type options struct {
	cfg         admission.Config
	variant     string
	configFile  string
	metricsAddr string
}

func newCommand() *cobra.Command {
	o := &options{cfg: admission.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "semdemo",
		Short: "Run units against a shared counting semaphore and report the result.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd.Context())
		},
		SilenceUsage: true,
	}
	o.addFlags(cmd.Flags())
	cmd.Flags().AddGoFlagSet(flag.CommandLine)
	return cmd
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.cfg.Units, "units", o.cfg.Units, "number of execution units")
	fs.IntVar(&o.cfg.MaxPermits, "permits", o.cfg.MaxPermits, "permits in the semaphore")
	fs.IntVar(&o.cfg.TasksPerUnit, "tasks", o.cfg.TasksPerUnit, "tasks each unit runs")
	fs.DurationVar(&o.cfg.TaskDuration, "task-duration", o.cfg.TaskDuration, "how long a task holds its permit")
	fs.DurationVar(&o.cfg.TaskPause, "task-pause", o.cfg.TaskPause, "pause between a unit's tasks")
	fs.DurationVar(&o.cfg.RecheckInterval, "recheck-interval", semx.DefaultRecheckInterval, "bound on a single futex wait")
	fs.StringVar(&o.variant, "variant", string(o.cfg.Variant), "semaphore variant: counting, bounded or binary")
	fs.StringVar(&o.configFile, "config-file", "", "JSON file overriding the flags it names")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

func (o *options) run(ctx context.Context) error {
	cfg := o.cfg
	cfg.Variant = admission.Variant(o.variant)
	if o.configFile != "" {
		if err := cfg.LoadConfigFile(o.configFile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var obs admission.Observer
	var runOpts []admission.RunOption
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		obs = admission.NewMetrics(reg)
		runOpts = append(runOpts, admission.WithStateHook(func(st *semx.SharedState) {
			if err := admission.RegisterStateGauges(reg, st); err != nil {
				log.Warningf("state gauges: %v", err)
			}
		}))
		srv := &http.Server{
			Addr:              o.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server: %v", err)
			}
		}()
		defer srv.Close()
		log.Infof("serving metrics on %s", o.metricsAddr)
	}

	log.Infof("%d units, %d %s permits, %d tasks of %v each",
		cfg.Units, cfg.MaxPermits, cfg.Variant, cfg.TasksPerUnit, cfg.TaskDuration)
	sum, err := admission.Run(ctx, cfg, obs, runOpts...)
	if sum != nil {
		log.Infof("episode summary:\n%s", sum)
		for i, u := range sum.UnitStats {
			log.V(1).Infof("unit %d: %d tasks, avg wait %v", i, u.CompletedTasks, u.AvgWait)
		}
	}
	if err != nil {
		return err
	}
	if !sum.WithinLimit() {
		return fmt.Errorf("high-water mark %d exceeded %d permits", sum.MaxConcurrent, cfg.MaxPermits)
	}
	return nil
}

func main() {
	defer log.Flush()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Errorf("semdemo: %v", err)
		log.Flush()
		os.Exit(1)
	}
}
