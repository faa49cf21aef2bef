package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/weftworks/canvasd/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show a canvas document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := api.GetCanvas(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printDocument(args[0], doc)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all canvases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := api.ListCanvases(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(paths)
		}
		if len(paths) == 0 {
			fmt.Println("no canvases")
			return nil
		}
		for _, p := range paths {
			fmt.Println(ui.RenderAccent(p))
		}
		return nil
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <path>",
	Short: "Render a canvas as a model-readable transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := api.GetTranscript(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := api.Health(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	},
}
