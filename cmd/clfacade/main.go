package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fxnlabs/clfacade/internal/config"
	"github.com/fxnlabs/clfacade/internal/logger"
)

const defaultConfigPath = "config.yaml"

// env is filled in by the Before hook and shared by every command.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func newApp(e *env) *cli.App {
	var configPath, driverName string

	return &cli.App{
		Name:  "clfacade",
		Usage: "Inspect OpenCL runtimes through a version-gated facade",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Value:       defaultConfigPath,
				Usage:       "Path to the YAML config; defaults apply when the file is missing",
				EnvVars:     []string{"CLFACADE_CONFIG"},
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "driver",
				Usage:       "Override runtime.driver (sim or opencl)",
				EnvVars:     []string{"CLFACADE_DRIVER"},
				Destination: &driverName,
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if driverName != "" {
				cfg.Runtime.Driver = driverName
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity, cfg.Logger.Encoding)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = zapLogger.Named("cli")
			return nil
		},
		After: func(c *cli.Context) error {
			if e.log != nil {
				_ = e.log.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			infoCommand(e),
			capsCommand(e),
			negotiateCommand(),
			diffCommand(),
			initCommand(),
		},
	}
}

// loadConfig reads path. A missing file leaves the defaults in place, which
// is also what lets init create it.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func main() {
	e := &env{}
	if err := newApp(e).Run(os.Args); err != nil {
		if e.log != nil {
			e.log.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
