package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/weftworks/canvasd/internal/client"
	"github.com/weftworks/canvasd/internal/ui"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	api client.CanvasClient
)

func defaultServer() string {
	if s := os.Getenv("CANVASCTL_SERVER"); s != "" {
		return s
	}
	if url := activeRemoteURL(); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("CANVASCTL_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "canvasctl",
	Short: "CLI client for the canvasd service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		api = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if api != nil {
			api.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "canvasd server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(addNodeCmd)
	rootCmd.AddCommand(updateNodeCmd)
	rootCmd.AddCommand(deleteNodeCmd)
	rootCmd.AddCommand(addEdgeCmd)
	rootCmd.AddCommand(deleteEdgeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
