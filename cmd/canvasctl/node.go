package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/op"
)

var addNodeCmd = &cobra.Command{
	Use:   "add-node <canvas> <id>",
	Short: "Add a node to a canvas",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, id := args[0], args[1]
		kind, _ := cmd.Flags().GetString("type")
		x, _ := cmd.Flags().GetInt("x")
		y, _ := cmd.Flags().GetInt("y")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		color, _ := cmd.Flags().GetString("color")

		base := model.NodeBase{ID: id, X: x, Y: y, Width: width, Height: height, Color: color}

		var node model.Node
		switch model.NodeKind(kind) {
		case model.KindText:
			text, _ := cmd.Flags().GetString("text")
			node = &model.TextNode{NodeBase: base, Text: text}
		case model.KindFile:
			file, _ := cmd.Flags().GetString("file")
			node = &model.FileNode{NodeBase: base, File: file}
		case model.KindLink:
			url, _ := cmd.Flags().GetString("url")
			node = &model.LinkNode{NodeBase: base, URL: url}
		case model.KindGroup:
			label, _ := cmd.Flags().GetString("label")
			node = &model.GroupNode{NodeBase: base, Label: label}
		default:
			return fmt.Errorf("unknown node type %q (want text, file, link, or group)", kind)
		}

		res, err := api.ApplyOperations(context.Background(), path, []op.Operation{op.AddNode{Node: node}})
		if err != nil {
			return err
		}
		return printEditResult(res)
	},
}

var updateNodeCmd = &cobra.Command{
	Use:   "update-node <canvas> <id>",
	Short: "Update fields of an existing node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, id := args[0], args[1]

		u := op.UpdateNode{ID: id}
		// Only flags the user actually set become part of the update.
		if cmd.Flags().Changed("x") {
			v, _ := cmd.Flags().GetInt("x")
			u.X = &v
		}
		if cmd.Flags().Changed("y") {
			v, _ := cmd.Flags().GetInt("y")
			u.Y = &v
		}
		if cmd.Flags().Changed("width") {
			v, _ := cmd.Flags().GetInt("width")
			u.Width = &v
		}
		if cmd.Flags().Changed("height") {
			v, _ := cmd.Flags().GetInt("height")
			u.Height = &v
		}
		if cmd.Flags().Changed("color") {
			v, _ := cmd.Flags().GetString("color")
			u.Color = &v
		}
		if cmd.Flags().Changed("text") {
			v, _ := cmd.Flags().GetString("text")
			u.Content = &v
		}
		if cmd.Flags().Changed("label") {
			v, _ := cmd.Flags().GetString("label")
			u.Label = &v
		}

		res, err := api.ApplyOperations(context.Background(), path, []op.Operation{u})
		if err != nil {
			return err
		}
		return printEditResult(res)
	},
}

var deleteNodeCmd = &cobra.Command{
	Use:   "delete-node <canvas> <id>",
	Short: "Delete a node and its connected edges",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.ApplyOperations(context.Background(), args[0], []op.Operation{op.DeleteNode{ID: args[1]}})
		if err != nil {
			return err
		}
		return printEditResult(res)
	},
}

func init() {
	addNodeCmd.Flags().String("type", "text", "node type (text, file, link, group)")
	addNodeCmd.Flags().Int("x", 0, "x position")
	addNodeCmd.Flags().Int("y", 0, "y position")
	addNodeCmd.Flags().Int("width", op.DefaultWidth, "node width")
	addNodeCmd.Flags().Int("height", op.DefaultHeight, "node height")
	addNodeCmd.Flags().String("color", "", "node color")
	addNodeCmd.Flags().String("text", "", "text content (text nodes)")
	addNodeCmd.Flags().String("file", "", "referenced file path (file nodes)")
	addNodeCmd.Flags().String("url", "", "link URL (link nodes)")
	addNodeCmd.Flags().String("label", "", "group label (group nodes)")

	updateNodeCmd.Flags().Int("x", 0, "x position")
	updateNodeCmd.Flags().Int("y", 0, "y position")
	updateNodeCmd.Flags().Int("width", 0, "node width")
	updateNodeCmd.Flags().Int("height", 0, "node height")
	updateNodeCmd.Flags().String("color", "", "node color")
	updateNodeCmd.Flags().String("text", "", "text content (text nodes)")
	updateNodeCmd.Flags().String("label", "", "group label (group nodes)")
}
