package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		jsonOutput bool
		joinAs     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream session events from the websocket endpoint",
		Long: `Open a websocket to the server and print every event it sends.

Without --join-as the watcher stays out of the roster and only sees
session-wide events:
  - user-joined / user-left: roster changes
  - broadcaster-ready / broadcaster-disconnected: broadcast state
  - new-message: chat
  - hand-raised: raised hands

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return watchEvents(ctx, cmd.OutOrStdout(), joinAs, limit, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&joinAs, "join-as", "", "Join the session under this display name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Exit after this many events (0 = unlimited)")

	return cmd
}

// WatchedEvent is one event printed by watch
type WatchedEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func watchEvents(ctx context.Context, w io.Writer, joinAs string, limit int, jsonOutput bool) error {
	wsURL, err := client.WebSocketURL()
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: HTTP %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on cancellation
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	if joinAs != "" {
		join, _ := json.Marshal(map[string]any{
			"event": "join",
			"data":  map[string]string{"name": joinAs},
		})
		if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
			return fmt.Errorf("join failed: %w", err)
		}
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to %s\n", wsURL)
	}

	received := 0
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				if !jsonOutput {
					_, _ = fmt.Fprintln(w, "\nDisconnected")
				}
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					_, _ = fmt.Fprintln(w, "Server closed the connection")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var evt WatchedEvent
		if err := json.Unmarshal(frame, &evt); err != nil {
			continue
		}
		evt.Time = time.Now()
		printEvent(w, evt, jsonOutput)

		received++
		if limit > 0 && received >= limit {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		}
	}
}

func printEvent(w io.Writer, evt WatchedEvent, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(evt.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, evt.Event, displayData)
}
