package main

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
)

type commandContext struct {
	envFile *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		var files []string
		if c.envFile != nil && *c.envFile != "" {
			files = append(files, *c.envFile)
		}
		c.config, c.configErr = config.Load(files...)
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var envFile string
	ctx := &commandContext{envFile: &envFile}

	rootCmd := &cobra.Command{
		Use:           "fern",
		Short:         "Trading card entity resolution",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (defaults to ./.env when present)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newParseCommand())

	return rootCmd
}
