package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/logging"
	"github.com/nvandessel/tipgen/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Serve tipgen_generate, tipgen_describe and tipgen_list to an MCP client
over stdin/stdout. Logs go to stderr.

Generated datasets are recorded in the same catalog the CLI uses. Output
files may only be written under the data directory or the directory the
server was started from.

Example client configuration:
  {"mcpServers": {"tipgen": {"command": "tipgen", "args": ["mcp-server"]}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			runLog := logging.NewRunLogger(a.dataDir, a.cfg.Logging.Level)
			defer runLog.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "tipgen",
				Version:   version,
				DataDir:   a.dataDir,
				WorkDir:   workDir,
				Generator: a.cfg.Generator,
				Logger:    a.logger,
				RunLog:    runLog,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			a.logger.Info("mcp server starting", "data_dir", a.dataDir)
			return server.Run(cmd.Context())
		},
	}
}
