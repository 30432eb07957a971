package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

func formatChannels(resp channelsResponse, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal channels to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case formatTable:
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CID")
		for _, c := range resp.Channels {
			fmt.Fprintln(w, c)
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		fmt.Fprintf(&buf, "\n%d channel(s) allocated\n", resp.Count)
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatState(resp stateResponse, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal state to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case formatTable:
		if !resp.Active {
			return "No transaction in progress.\n", nil
		}
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Channel:\t%s\n", resp.Cid)
		fmt.Fprintf(w, "Command:\t%s\n", resp.Cmd)
		fmt.Fprintf(w, "Elapsed:\t%dms\n", resp.ElapsedMilli)
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}
