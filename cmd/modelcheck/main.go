// modelcheck runs one of the bundled models through the explicit-state
// checker, printing periodic statistics while exploring and a
// counterexample trace when the model's invariant is violated.
//
// The process exits non-zero when a violation is found, so scripts can
// distinguish a clean search from a counterexample.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/visualzhou/go-model-checker/checker"
	"github.com/visualzhou/go-model-checker/models/diehard"
	"github.com/visualzhou/go-model-checker/models/raft"
)

var log = logrus.WithField("prefix", "main")

var errViolationFound = errors.New("counterexample found")

var (
	modelFlag = &cli.StringFlag{
		Name:  "model",
		Usage: "model to check: diehard or raft",
		Value: "diehard",
	}
	reportIntervalFlag = &cli.DurationFlag{
		Name:  "report-interval",
		Usage: "how often to print exploration statistics",
		Value: time.Second,
	}
	monitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "localhost port for the Prometheus /metrics endpoint, 0 disables it",
	}
	diehardForbiddenFlag = &cli.Uint64Flag{
		Name:  "diehard-forbidden",
		Usage: "big-jug volume the diehard invariant rejects",
		Value: 4,
	}
	raftStaleCommitsFlag = &cli.BoolFlag{
		Name:  "raft-stale-commits",
		Usage: "let the raft primary commit entries from earlier terms, reproducing the rollback bug",
	}
)

func main() {
	app := &cli.App{
		Name:  "modelcheck",
		Usage: "explicit-state model checker for finite transition systems",
		Flags: []cli.Flag{
			modelFlag,
			reportIntervalFlag,
			monitoringPortFlag,
			diehardForbiddenFlag,
			raftStaleCommitsFlag,
		},
		Before: func(_ *cli.Context) error {
			logrus.SetFormatter(&prefixed.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			return nil
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		if errors.Is(err, errViolationFound) {
			// The trace has already been printed.
			os.Exit(1)
		}
		log.WithError(err).Fatal("Model checking failed")
	}
}

func run(cliCtx *cli.Context) error {
	switch model := cliCtx.String(modelFlag.Name); model {
	case "diehard":
		return check(cliCtx, []*diehard.State{diehard.New(cliCtx.Uint64(diehardForbiddenFlag.Name))})
	case "raft":
		return check(cliCtx, []*raft.State{raft.New(cliCtx.Bool(raftStaleCommitsFlag.Name))})
	default:
		return fmt.Errorf("unknown model %q", model)
	}
}

func check[S checker.State[S]](cliCtx *cli.Context, initial []S) error {
	stopMonitoring := startMonitoring(cliCtx.Int(monitoringPortFlag.Name))
	defer stopMonitoring()

	c := checker.New[S]()
	reporter := checker.NewReporter(c, cliCtx.Duration(reportIntervalFlag.Name), os.Stdout)
	reporter.Start()
	res, err := c.Run(cliCtx.Context, initial)
	if stopErr := reporter.Stop(); stopErr != nil {
		log.WithError(stopErr).Error("Could not stop stats reporter")
	}
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"generated": humanize.Comma(int64(res.Stats.Generated)),
		"unique":    humanize.Comma(int64(res.Stats.Unique)),
	}).Info("Exploration complete")
	if res.Violated {
		return errViolationFound
	}
	return nil
}

// startMonitoring exposes the Prometheus metrics endpoint on localhost when
// a port is configured. The returned func shuts the server down.
func startMonitoring(port int) func() {
	if port <= 0 {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Monitoring server failed")
		}
	}()
	log.WithField("port", port).Info("Serving Prometheus metrics")
	return func() {
		if err := srv.Close(); err != nil {
			log.WithError(err).Error("Could not shut down monitoring server")
		}
	}
}
