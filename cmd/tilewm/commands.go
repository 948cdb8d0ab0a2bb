package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/spf13/cobra"
)

// simpleCommand sends a payload-free command and prints done on success.
func simpleCommand(use, short string, cmd ipc.CommandType, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := newClient().Send(cmd, nil); err != nil {
				return err
			}
			printSuccess(done)
			return nil
		},
	}
}

// indexCommand sends a command whose single argument is an index.
func indexCommand(use, short string, cmd ipc.CommandType) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <index>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil || idx < 0 {
				return fmt.Errorf("invalid index %q", args[0])
			}
			if err := newClient().Send(cmd, ipc.IntPayload{Value: idx}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s %d", use, idx))
			return nil
		},
	}
}

// parseToggle accepts on/off style arguments.
func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "enable", "1":
		return true, nil
	case "off", "false", "no", "disable", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show daemon state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newClient().State()
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		printState(os.Stdout, st)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ignore, _ := cmd.Flags().GetBool("ignore-restore")
		if err := newClient().Stop(ignore); err != nil {
			return err
		}
		printSuccess("daemon stopping")
		return nil
	},
}

var transparencyCmd = &cobra.Command{
	Use:   "transparency <on|off>",
	Short: "Enable or disable transparency of unfocused windows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseToggle(args[0])
		if err != nil {
			return err
		}
		if err := newClient().SetTransparency(enabled); err != nil {
			return err
		}
		printSuccess("transparency " + args[0])
		return nil
	},
}

var transparencyAlphaCmd = &cobra.Command{
	Use:   "alpha <0-255>",
	Short: "Set the alpha of transparent windows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alpha, err := strconv.Atoi(args[0])
		if err != nil || alpha < 0 || alpha > 255 {
			return fmt.Errorf("alpha must be between 0 and 255, got %q", args[0])
		}
		if err := newClient().Send(ipc.CommandTransparencyAlpha, ipc.IntPayload{Value: alpha}); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("transparency alpha %d", alpha))
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme <flavour> [kind=colour ...]",
	Short: "Apply a catppuccin theme to borders",
	Long:  "Apply a catppuccin flavour (latte, frappe, macchiato, mocha). Optional kind=colour pairs pick palette colours per border kind, e.g. single=mauve.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		colours, err := parsePairs(args[1:])
		if err != nil {
			return err
		}
		if err := newClient().SetTheme(args[0], colours); err != nil {
			return err
		}
		printSuccess("theme " + args[0])
		return nil
	},
}

func parsePairs(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("expected kind=colour, got %q", arg)
		}
		out[k] = v
	}
	return out, nil
}

func init() {
	stateCmd.Flags().Bool("json", false, "Print raw JSON")
	stopCmd.Flags().Bool("ignore-restore", false, "Leave hidden windows hidden")
	transparencyCmd.AddCommand(transparencyAlphaCmd)

	rootCmd.AddCommand(
		stateCmd,
		stopCmd,
		simpleCommand("pause", "Pause or resume window management", ipc.CommandTogglePause, "pause toggled"),
		simpleCommand("retile", "Repaint borders and reapply transparency", ipc.CommandForceUpdate, "updated"),
		simpleCommand("monocle", "Toggle monocle on the focused container", ipc.CommandToggleMonocle, "monocle toggled"),
		simpleCommand("tiling", "Toggle tiling on the focused workspace", ipc.CommandToggleTiling, "tiling toggled"),
		simpleCommand("float", "Toggle floating for the focused window", ipc.CommandToggleFloat, "float toggled"),
		simpleCommand("lock", "Toggle the lock on the focused container", ipc.CommandToggleLock, "lock toggled"),
		indexCommand("focus-monitor", "Focus a monitor by index", ipc.CommandFocusMonitor),
		indexCommand("focus-workspace", "Focus a workspace of the focused monitor by index", ipc.CommandFocusWorkspace),
		transparencyCmd,
		themeCmd,
	)
}
