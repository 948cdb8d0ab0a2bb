package main

import (
	"fmt"
	"strconv"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/theme"
	"github.com/spf13/cobra"
)

var borderCmd = &cobra.Command{
	Use:   "border <on|off>",
	Short: "Enable, disable, or configure borders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseToggle(args[0])
		if err != nil {
			return err
		}
		if err := newClient().SetBorders(enabled); err != nil {
			return err
		}
		printSuccess("borders " + args[0])
		return nil
	},
}

func borderIntCommand(use, short string, cmd ipc.CommandType, lowest int) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <pixels>",
		Short:   short,
		Example: "  tilewm border " + use + " 4",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < lowest {
				return fmt.Errorf("invalid %s %q", use, args[0])
			}
			if err := newClient().Send(cmd, ipc.IntPayload{Value: v}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("border %s %d", use, v))
			return nil
		},
	}
}

var borderStyleCmd = &cobra.Command{
	Use:   "style <system|rounded|square>",
	Short: "Set the border corner style",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		style, err := border.ParseStyle(args[0])
		if err != nil {
			return err
		}
		if err := newClient().Send(ipc.CommandBorderStyle, ipc.StringPayload{Value: string(style)}); err != nil {
			return err
		}
		printSuccess("border style " + string(style))
		return nil
	},
}

var borderImplementationCmd = &cobra.Command{
	Use:   "implementation <overlay|accent>",
	Short: "Choose how borders are drawn",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		impl, err := border.ParseImplementation(args[0])
		if err != nil {
			return err
		}
		if err := newClient().Send(ipc.CommandBorderImplementation, ipc.StringPayload{Value: string(impl)}); err != nil {
			return err
		}
		printSuccess("border implementation " + string(impl))
		return nil
	},
}

var borderColourCmd = &cobra.Command{
	Use:     "colour <kind> <#rrggbb>",
	Aliases: []string{"color"},
	Short:   "Set the colour of one border kind",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := border.ParseKind(args[0])
		if err != nil {
			return err
		}
		pixel, err := theme.ParseHex(args[1])
		if err != nil {
			return err
		}
		hex := theme.FormatHex(pixel)
		if err := newClient().Send(ipc.CommandBorderColour, ipc.BorderColourPayload{Kind: kind.String(), Colour: hex}); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("border colour %s %s", kind, hex))
		return nil
	},
}

func init() {
	borderCmd.AddCommand(
		borderIntCommand("width", "Set the border width", ipc.CommandBorderWidth, 0),
		borderIntCommand("offset", "Set the gap between window and border", ipc.CommandBorderOffset, -1<<15),
		borderStyleCmd,
		borderImplementationCmd,
		borderColourCmd,
	)
	rootCmd.AddCommand(borderCmd)
}
