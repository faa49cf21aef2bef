package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/op"
)

var addEdgeCmd = &cobra.Command{
	Use:   "add-edge <canvas> <from> <to>",
	Short: "Connect two nodes with an edge",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, from, to := args[0], args[1], args[2]
		id, _ := cmd.Flags().GetString("id")
		fromSide, _ := cmd.Flags().GetString("from-side")
		toSide, _ := cmd.Flags().GetString("to-side")
		label, _ := cmd.Flags().GetString("label")
		color, _ := cmd.Flags().GetString("color")

		// An empty id is filled in by the server.
		edge := model.Edge{
			ID:       id,
			FromNode: from,
			ToNode:   to,
			FromSide: model.Side(fromSide),
			ToSide:   model.Side(toSide),
			Label:    label,
			Color:    color,
		}
		res, err := api.ApplyOperations(context.Background(), path, []op.Operation{op.AddEdge{Edge: edge}})
		if err != nil {
			return err
		}
		return printEditResult(res)
	},
}

var deleteEdgeCmd = &cobra.Command{
	Use:   "delete-edge <canvas> <id>",
	Short: "Delete an edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.ApplyOperations(context.Background(), args[0], []op.Operation{op.DeleteEdge{ID: args[1]}})
		if err != nil {
			return err
		}
		return printEditResult(res)
	},
}

func init() {
	addEdgeCmd.Flags().String("id", "", "edge id (generated when omitted)")
	addEdgeCmd.Flags().String("from-side", "", "side the edge leaves from (top, right, bottom, left)")
	addEdgeCmd.Flags().String("to-side", "", "side the edge arrives at")
	addEdgeCmd.Flags().String("label", "", "edge label")
	addEdgeCmd.Flags().String("color", "", "edge color")
}
