package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/weftworks/canvasd/internal/events"
	"github.com/weftworks/canvasd/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream canvas events",
	Long: `Watch subscribes to canvas events and prints each event as it arrives.
Use --topics to filter, e.g. --topics canvas.node.*,canvas.saved.

By default events come from the server's event stream. With --nats (or
CANVASCTL_NATS_URL set) the events are consumed directly from the NATS bus,
bypassing the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topicsFlag, _ := cmd.Flags().GetString("topics")
		var topics []string
		for _, t := range strings.Split(topicsFlag, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				topics = append(topics, t)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("CANVASCTL_NATS_URL")
		}
		if natsURL != "" {
			return watchNATS(ctx, os.Stdout, natsURL, topics, jsonOutput)
		}

		ch, err := api.WatchEvents(ctx, topics)
		if err != nil {
			return err
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case evt, ok := <-ch:
				if !ok {
					return fmt.Errorf("event stream closed")
				}
				if jsonOutput {
					fmt.Printf(`{"id":%d,"topic":%q,"data":%s}%s`, evt.ID, evt.Topic, evt.Data, "\n")
				} else {
					printEvent(os.Stdout, evt.Topic, evt.Data, false)
				}
			}
		}
	},
}

// watchNATS consumes events straight from the NATS bus and prints them until
// ctx is cancelled. Each topic filter becomes its own subscription; with no
// filters the full canvas subject space is watched.
func watchNATS(ctx context.Context, out io.Writer, natsURL string, topics []string, asJSON bool) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			fmt.Fprintf(os.Stderr, "nats: disconnected: %v\n", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			fmt.Fprintln(os.Stderr, "nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	if len(topics) == 0 {
		topics = []string{"canvas.>"}
	}

	merged := make(chan events.Message, 64)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		go func(ch <-chan events.Message) {
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-merged:
			printEvent(out, msg.Topic, msg.Data, asJSON)
		}
	}
}

func printEvent(out io.Writer, topic string, data []byte, asJSON bool) {
	if asJSON {
		fmt.Fprintf(out, `{"topic":%q,"data":%s}%s`, topic, data, "\n")
		return
	}
	fmt.Fprintf(out, "%s %s\n", ui.RenderAccent(topic), ui.RenderMuted(string(data)))
}

func init() {
	watchCmd.Flags().String("topics", "", "comma-separated topic filters (empty = all)")
	watchCmd.Flags().String("nats", "", "NATS URL to consume events from directly (default: server event stream)")
}
