package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *cliApp) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream friend list change events",
		Long: `Connect to the server's SSE endpoint and stream friend list changes in real-time.

Each friends-changed event carries the kind of change (added, removed, cleared,
reconciled, reloaded) and the number of friends afterwards.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := &eventStream{
				url:        strings.TrimSuffix(app.cfg.ServerURL, "/") + "/api/v1/events",
				out:        cmd.OutOrStdout(),
				jsonOutput: jsonOutput || app.cfg.Output == "json",
				limit:      limit,
			}
			return s.run(ctx)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&limit, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

type eventStream struct {
	url        string
	out        io.Writer
	jsonOutput bool
	limit      int
}

func (s *eventStream) run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !s.jsonOutput {
		_, _ = fmt.Fprintln(s.out, "Connected, waiting for friend list changes")
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string
	seen := 0

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// The server greets each stream with a connected event
			if currentEvent != "" && currentEvent != "connected" {
				s.printEvent(currentEvent, strings.Join(dataLines, "\n"))
				seen++
				if s.limit > 0 && seen >= s.limit {
					return nil
				}
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !s.jsonOutput {
		_, _ = fmt.Fprintln(s.out, "Disconnected")
	}
	return nil
}

func (s *eventStream) printEvent(event, data string) {
	now := time.Now()

	if s.jsonOutput {
		jsonData, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: data})
		_, _ = fmt.Fprintln(s.out, string(jsonData))
		return
	}

	var change struct {
		Kind  string `json:"kind"`
		Count int    `json:"count"`
	}
	timestamp := now.Format("2006-01-02 15:04:05")
	if err := json.Unmarshal([]byte(data), &change); err == nil && change.Kind != "" {
		_, _ = fmt.Fprintf(s.out, "[%s] %s: %s, %d friend(s)\n", timestamp, event, change.Kind, change.Count)
		return
	}
	_, _ = fmt.Fprintf(s.out, "[%s] %s: %s\n", timestamp, event, strings.ReplaceAll(data, "\n", " "))
}
