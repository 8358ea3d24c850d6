package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

var (
	serverURL  string
	grpcAddr   string
	local      bool
	jsonOut    bool
	timeout    time.Duration
	configPath string
)

const defaultTimeout = time.Minute

func main() {
	app := cli.NewApp()
	app.Name = "tradelab-cli"
	app.Version = version
	app.Usage = "run and compare strategy backtests"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "server",
			Value:       "http://localhost:8080",
			Usage:       "the tradelab-server base URL",
			EnvVars:     []string{"TRADELAB_SERVER"},
			Destination: &serverURL,
		},
		&cli.StringFlag{
			Name:        "grpc",
			Usage:       "call the tradelab-server gRPC address (host:port) instead of its HTTP API",
			EnvVars:     []string{"TRADELAB_GRPC"},
			Destination: &grpcAddr,
		},
		&cli.BoolFlag{
			Name:        "local",
			Usage:       "run in-process against the local bar cache instead of a server",
			Destination: &local,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file for --local (default $TRADELAB_CONFIG or config/tradelab.yaml)",
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print raw JSON instead of a report",
			Destination: &jsonOut,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Value:       defaultTimeout,
			Usage:       "the context timeout for each command",
			Destination: &timeout,
		},
	}
	app.Commands = []*cli.Command{
		versionCommand,
		strategiesCommand,
		runCommand,
		compareCommand,
		historyCommand,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "print the CLI version",
	Action: func(c *cli.Context) error {
		fmt.Fprintf(c.App.Writer, "tradelab-cli %s\n", version)
		return nil
	},
}

var strategiesCommand = &cli.Command{
	Name:   "strategies",
	Usage:  "list available strategies",
	Action: listStrategies,
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "backtest one strategy",
	ArgsUsage: "<ticker> <strategy> <start_date> <end_date>",
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:  "capital",
			Value: 10000,
			Usage: "initial capital",
		},
	},
	Action: runBacktest,
}

var compareCommand = &cli.Command{
	Name:      "compare",
	Usage:     "run every strategy and rank them by Sharpe ratio",
	ArgsUsage: "<ticker> <start_date> <end_date>",
	Action:    compareStrategies,
}

var historyCommand = &cli.Command{
	Name:  "history",
	Usage: "list stored backtest runs",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Value: 20,
			Usage: "maximum number of runs to show",
		},
	},
	Action: showHistory,
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, timeout)
}

func listStrategies(c *cli.Context) error {
	b, err := newBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	names, err := b.Strategies(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return jsonOutput(c.App.Writer, names)
	}
	for _, name := range names {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func runBacktest(c *cli.Context) error {
	if c.NArg() != 4 {
		return cli.ShowSubcommandHelp(c)
	}
	b, err := newBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	res, err := b.Run(ctx, runRequest(c))
	if err != nil {
		return err
	}
	if jsonOut {
		return jsonOutput(c.App.Writer, res)
	}
	printResult(c.App.Writer, res)
	return nil
}

func compareStrategies(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.ShowSubcommandHelp(c)
	}
	b, err := newBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	cmp, err := b.Compare(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
	if err != nil {
		return err
	}
	if jsonOut {
		return jsonOutput(c.App.Writer, cmp)
	}
	printComparison(c.App.Writer, cmp)
	return nil
}

func showHistory(c *cli.Context) error {
	b, err := newBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	runs, err := b.History(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	if jsonOut {
		return jsonOutput(c.App.Writer, runs)
	}
	printHistory(c.App.Writer, runs)
	return nil
}
