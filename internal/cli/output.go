package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Roster:
		o.printRoster(v)
	case EvictResult:
		o.printEvictResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// Participant response type (matches API)
type Participant struct {
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Identity     string `json:"identity,omitempty"`
	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	Role         string `json:"role"`
	JoinedAt     string `json:"joined_at"`
	Broadcaster  bool   `json:"broadcaster"`
}

// Roster response type
type Roster struct {
	Participants  []Participant `json:"participants"`
	Total         int           `json:"total"`
	BroadcasterID *string       `json:"broadcaster_id"`
	Connections   int           `json:"connections"`
}

// EvictResult response type
type EvictResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Evicted      bool   `json:"evicted"`
	ConnectionID string `json:"connection_id,omitempty"`
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printRoster(r Roster) {
	broadcaster := "none"
	if r.BroadcasterID != nil {
		broadcaster = *r.BroadcasterID
	}
	_, _ = fmt.Fprintf(o.w, "Participants: %d (connections: %d)\n", r.Total, r.Connections)
	_, _ = fmt.Fprintf(o.w, "Broadcaster: %s\n", broadcaster)
	if len(r.Participants) == 0 {
		return
	}

	table := tablewriter.NewWriter(o.w)
	table.SetHeader([]string{"#", "Connection", "Name", "Identity", "Role", "Joined"})
	table.SetAutoWrapText(false)
	for i, p := range r.Participants {
		name := p.Name
		if p.Broadcaster {
			name += " [live]"
		}
		table.Append([]string{strconv.Itoa(i + 1), p.ConnectionID, name, p.Identity, p.Role, p.JoinedAt})
	}
	table.Render()
}

func (o *Output) printEvictResult(e EvictResult) {
	_, _ = fmt.Fprintln(o.w, e.Message)
	if e.Evicted {
		_, _ = fmt.Fprintf(o.w, "Connection: %s\n", e.ConnectionID)
	}
}
