package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Apply a model output stream to a canvas",
	Long: `Apply reads raw model output containing canvas_edit markup from the
given file (or stdin when omitted) and sends it to the server. The destination
canvas comes from the canvas_edit tag's path attribute, or from --path when
the tag carries none.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fallbackPath, _ := cmd.Flags().GetString("path")

		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		res, err := api.ApplyEdits(context.Background(), fallbackPath, string(data))
		if err != nil {
			// A failed save still carries per-operation results worth showing.
			if res != nil {
				_ = printEditResult(res)
			}
			return err
		}
		return printEditResult(res)
	},
}

func init() {
	applyCmd.Flags().String("path", "", "destination canvas when the stream names none")
}
