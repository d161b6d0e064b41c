package main

import (
	"fmt"
	"os"

	"github.com/fxnlabs/gemmbench/internal/config"
	"github.com/fxnlabs/gemmbench/internal/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	var cfg *config.Config
	var rootLogger *zap.Logger

	app := &cli.App{
		Name:  "gemmbench",
		Usage: "Measure and rank GEMM throughput across compute backends",

		// --shape accepts "M,N,K", so slice flags must not split on commas.
		DisableSliceFlagSeparator: true,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   config.DefaultPath,
				Usage:   "Load configuration from `FILE`; defaults apply when it does not exist",
				EnvVars: []string{"GEMMBENCH_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity, cfg.Logger.Encoding)
			if err != nil {
				return err
			}
			rootLogger = zapLogger.Named("cli")
			return nil
		},
		Commands: []*cli.Command{
			runCommand(&cfg, &rootLogger),
			quickCommand(&cfg, &rootLogger),
			compareCommand(&cfg, &rootLogger),
			devicesCommand(&cfg, &rootLogger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if rootLogger != nil {
			rootLogger.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadConfig falls back to the defaults when the default path is missing.
// A path given explicitly must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) && !explicit {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config %s: %w", path, err)
}
