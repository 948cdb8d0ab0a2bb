package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

func printSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

func printError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

func onOff(b bool) string {
	if b {
		return successColor.Sprint("on")
	}
	return dimColor.Sprint("off")
}

func uptime(seconds int64) string {
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now.Add(-time.Duration(seconds)*time.Second), now, "", ""))
}

func windowList(ids []platform.WindowID) string {
	if len(ids) == 0 {
		return dimColor.Sprint("-")
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("0x%x", uint32(id))
	}
	return strings.Join(parts, " ")
}

// printState renders STATE output for humans.
func printState(w io.Writer, st *ipc.StateData) {
	label := func(name, value string) {
		labelColor.Fprintf(w, "  %-14s", name+":")
		fmt.Fprintln(w, value)
	}

	headerColor.Fprintln(w, "▸ daemon")
	label("uptime", uptime(st.UptimeSeconds))
	if st.Snapshot.Paused {
		label("paused", warningColor.Sprint("yes"))
	} else {
		label("paused", "no")
	}
	label("borders", fmt.Sprintf("%s (%s, %s live, %s overlays)",
		onOff(st.BordersEnabled), st.Implementation,
		humanize.Comma(int64(st.Borders)), humanize.Comma(int64(st.Overlays))))
	label("transparency", onOff(st.Transparency))
	if st.Theme != "" {
		label("theme", st.Theme)
	}
	label("windows", fmt.Sprintf("%d known, %d hidden", len(st.Known), len(st.Hidden)))

	for i := range st.Snapshot.Monitors {
		m := &st.Snapshot.Monitors[i]
		fmt.Fprintln(w)
		title := fmt.Sprintf("▸ monitor %d %s", m.ID, m.Name)
		if i == st.Snapshot.FocusedMonitorIdx {
			title += " (focused)"
		}
		headerColor.Fprintln(w, title)
		for j, ws := range m.Workspaces {
			marker := " "
			if j == m.FocusedWorkspaceIdx {
				marker = "*"
			}
			mode := "tiling"
			if !ws.Tile {
				mode = "untiled"
			}
			if ws.Monocle != nil {
				mode = "monocle"
			}
			fmt.Fprintf(w, "  %s %-10s %s\n", marker, ws.Name, dimColor.Sprint(mode))
			for _, c := range ws.Containers {
				lock := ""
				if c.Locked {
					lock = " " + warningColor.Sprint("locked")
				}
				fmt.Fprintf(w, "      %s%s\n", windowList(c.Windows), lock)
			}
			if ws.Monocle != nil {
				fmt.Fprintf(w, "      monocle %s\n", windowList(ws.Monocle.Windows))
			}
			if len(ws.FloatingWindows) > 0 {
				fmt.Fprintf(w, "      floating %s\n", windowList(ws.FloatingWindows))
			}
		}
	}
}
