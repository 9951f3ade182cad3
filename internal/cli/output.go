package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter writing to out and errOut
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		if apiErr, ok := err.(*APIError); ok {
			errData["error"] = apiErr
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case FriendList:
		o.printFriendList(v)
	case Friend:
		o.printf("%s (%s)\n", v.Name, v.ID)
	case AddResult:
		o.printf("%s has been added to your friend list.\n", v.Friend.Name)
	case RemoveResult:
		o.printf("%s has been removed from your friend list.\n", v.Removed.Name)
	case ClearResult:
		o.printClearResult(v)
	case ReconcileResult:
		o.printReconcileResult(v)
	case StatusResult:
		o.printStatus(v)
	case Suggestions:
		for _, s := range v.Suggestions {
			o.printf("%s\n", s)
		}
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

// Friend response type (matches API)
type Friend struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// FriendList response type
type FriendList struct {
	Friends []Friend `json:"friends"`
	Count   int      `json:"count"`
}

// AddResult response type
type AddResult struct {
	Outcome string `json:"outcome"`
	Friend  Friend `json:"friend"`
}

// RemoveResult response type
type RemoveResult struct {
	Removed Friend `json:"removed"`
}

// ClearResult response type
type ClearResult struct {
	Cleared int `json:"cleared"`
}

// ReconcileResult response type
type ReconcileResult struct {
	Checked     int  `json:"checked"`
	Renamed     int  `json:"renamed"`
	Removed     int  `json:"removed"`
	Unresolved  int  `json:"unresolved"`
	Duplicates  int  `json:"duplicates"`
	Remaining   int  `json:"remaining"`
	ServiceDown bool `json:"service_down"`
}

// StatusResult response type
type StatusResult struct {
	Count           int              `json:"count"`
	LoadedAt        *time.Time       `json:"loaded_at,omitempty"`
	LastReconcileAt *time.Time       `json:"last_reconcile_at,omitempty"`
	LastReconcile   *ReconcileResult `json:"last_reconcile,omitempty"`
	ResolverHealthy bool             `json:"resolver_healthy"`
}

// Suggestions response type
type Suggestions struct {
	Suggestions []string `json:"suggestions"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printFriendList(l FriendList) {
	if len(l.Friends) == 0 {
		o.printf("You currently have no friends on your friend list.\n")
		return
	}
	o.printf("Friends (%d):\n", l.Count)
	for _, f := range l.Friends {
		o.printf("  - %s (%s)\n", f.Name, f.ID)
	}
}

func (o *Output) printClearResult(c ClearResult) {
	switch c.Cleared {
	case 0:
		o.printf("You currently have no friends on your friend list to clear.\n")
	case 1:
		o.printf("1 friend has been cleared from your friend list.\n")
	default:
		o.printf("%d friends have been cleared from your friend list.\n", c.Cleared)
	}
}

func (o *Output) printReconcileResult(r ReconcileResult) {
	o.printf("Your friend list has been checked and updated.\n")
	o.printf("Checked: %d, renamed: %d, removed: %d, unresolved: %d\n",
		r.Checked, r.Renamed, r.Removed, r.Unresolved)
	if r.ServiceDown {
		o.printf("The profile service looked down; missing players were kept.\n")
	}
}

func (o *Output) printStatus(s StatusResult) {
	o.printf("Friends: %d\n", s.Count)
	health := "up"
	if !s.ResolverHealthy {
		health = "down"
	}
	o.printf("Profile service: %s\n", health)
	if s.LoadedAt != nil {
		o.printf("Loaded: %s\n", s.LoadedAt.Format(time.RFC3339))
	}
	if s.LastReconcileAt != nil {
		o.printf("Last update: %s\n", s.LastReconcileAt.Format(time.RFC3339))
	}
	if s.LastReconcile != nil {
		o.printf("  renamed %d, removed %d, unresolved %d\n",
			s.LastReconcile.Renamed, s.LastReconcile.Removed, s.LastReconcile.Unresolved)
	}
}
