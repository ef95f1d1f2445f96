package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"opengate-hq/keeper/pkg/recordfs"
	"opengate-hq/keeper/pkg/retention"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is a human-readable table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON.
	FormatJSON OutputFormat = "json"
)

// ParseFormat parses a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter renders known results as tables and anything else with %v.
type TextFormatter struct{}

// FormatTo writes data to w in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case *retention.ExpireResult:
		return writeExpireResult(w, v)
	case *retention.CameraResult:
		return writeCameraResults(w, []*retention.CameraResult{v}, nil)
	case *recordfs.SyncResult:
		return writeSyncResult(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a formatter for format.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{Indent: true}
	}
	return &TextFormatter{}
}

func writeExpireResult(w io.Writer, r *retention.ExpireResult) error {
	header := fmt.Sprintf("Expiration pass %s", r.PassID)
	if r.DryRun {
		header += " (dry run)"
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", header); err != nil {
		return err
	}

	results := r.Cameras
	if r.Orphans != nil {
		results = append([]*retention.CameraResult{r.Orphans}, results...)
	}

	failed := make(map[string]*retention.PassError, len(r.Failures))
	for _, f := range r.Failures {
		failed[f.Camera] = f
	}
	if err := writeCameraResults(w, results, failed); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nDeleted %d recordings, removed %d files (%d file errors) in %s\n",
		r.Deleted(), r.FilesRemoved(), r.FileErrors(), r.Duration.Round(time.Millisecond))
	if err != nil {
		return err
	}

	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "  FAILED %s\n", f.Error()); err != nil {
			return err
		}
	}
	return nil
}

func writeCameraResults(w io.Writer, results []*retention.CameraResult, failed map[string]*retention.PassError) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CAMERA\tCUTOFF\tSCANNED\tDELETED\tFILES\tERRORS\tREASONS\tSTATUS")

	for _, c := range results {
		name := c.Camera
		if c.Orphan {
			name = "orphaned"
		}
		status := "ok"
		if f, ok := failed[name]; ok {
			status = "failed: " + string(f.Stage)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			name,
			c.Cutoff.UTC().Format(time.RFC3339),
			c.Scanned,
			c.Deleted,
			c.FilesRemoved,
			c.FileErrors,
			formatReasons(c.Reasons),
			status,
		)
	}
	return tw.Flush()
}

func formatReasons(reasons map[retention.Reason]int) string {
	if len(reasons) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(reasons))
	for reason := range reasons {
		keys = append(keys, string(reason))
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%d", k, reasons[retention.Reason(k)])
	}
	return out
}

func writeSyncResult(w io.Writer, r *recordfs.SyncResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mode:\t%s\n", r.Mode)
	fmt.Fprintf(tw, "Files scanned:\t%d\n", r.FilesScanned)
	fmt.Fprintf(tw, "Rows checked:\t%d\n", r.RowsChecked)
	fmt.Fprintf(tw, "Rows created:\t%d\n", r.RowsCreated)
	fmt.Fprintf(tw, "Rows removed:\t%d\n", r.RowsRemoved)
	fmt.Fprintf(tw, "Skipped:\t%d\n", r.Skipped)
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration.Round(time.Millisecond))
	return tw.Flush()
}
