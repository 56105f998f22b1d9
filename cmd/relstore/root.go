package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relstore/internal/config"
	"github.com/aretw0/relstore/internal/logging"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relstore",
		Short: "relstore is a schema-validated table store over a key-value backend",
		Long: `relstore declares tables of typed, validated fields in a YAML or JSON schema file
and persists each table as one JSON document in a key-value backend
(file, sqlite, redis, dynamodb or memory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a relstore.yaml configuration file")
	flags.String("schema", "", "Path to the schema file (YAML or JSON)")
	flags.String("backend", "", "Storage backend: memory, file, redis, sqlite or dynamodb")
	flags.String("path", "", "Data directory (file backend) or database file (sqlite backend)")
	flags.String("redis-addr", "", "Redis address (redis backend)")
	flags.String("namespace", "", "First segment of every storage key")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newValidateCmd(),
		newDescribeCmd(),
		newPutCmd(),
		newGetCmd(),
		newLsCmd(),
		newRmCmd(),
		newServeCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file named by --config and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("schema", &cfg.Schema)
	override("namespace", &cfg.Namespace)
	override("log-level", &cfg.LogLevel)
	override("redis-addr", &cfg.Redis.Addr)
	if flags.Changed("backend") {
		b, _ := flags.GetString("backend")
		cfg.Backend = config.Backend(b)
	}
	if flags.Changed("path") {
		p, _ := flags.GetString("path")
		cfg.File.Path = p
		cfg.SQLite.Path = p
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	return cfg, logging.NewWithWriter(cmd.ErrOrStderr(), level), nil
}
