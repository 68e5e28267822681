package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/wordduel/internal/model"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect open rooms",
	}

	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsGetCmd())
	cmd.AddCommand(newRoomsQRCmd())

	return cmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rooms RoomList
			if err := client.Get("/api/v1/rooms", &rooms); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(rooms)
			return nil
		},
	}
}

func newRoomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a single room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var room model.RoomSummary
			if err := client.Get("/api/v1/rooms/"+url.PathEscape(args[0]), &room); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(room)
			return nil
		},
	}
}

func newRoomsQRCmd() *cobra.Command {
	var size int
	var file string

	cmd := &cobra.Command{
		Use:   "qr <room-id>",
		Short: "Download a share QR code for a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/rooms/%s/qr.png?size=%d", url.PathEscape(args[0]), size)
			png, err := client.GetRaw(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, png, 0o644); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("QR code written to %s", file))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 256, "Image size in pixels (64-1024)")
	cmd.Flags().StringVar(&file, "file", "room-qr.png", "Output file")

	return cmd
}
