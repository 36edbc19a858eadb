package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tunnelz/tunnels/internal/control"
	"github.com/tunnelz/tunnels/internal/devicestore"
	"github.com/tunnelz/tunnels/internal/infrastructure/config"
	"github.com/tunnelz/tunnels/internal/infrastructure/database"
	_ "github.com/tunnelz/tunnels/migrations"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage registered control surfaces",
	}
	devicesCmd.AddCommand(newDevicesListCommand(ctx))
	devicesCmd.AddCommand(newDevicesAddCommand(ctx))
	devicesCmd.AddCommand(newDevicesRemoveCommand(ctx))
	return devicesCmd
}

func newDevicesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show configured and registered devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), cfg, func(repo devicestore.Repository) error {
				stored, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				printDevices(cmd.OutOrStdout(), cfg.MIDI.Devices, stored)
				return nil
			})
		},
	}
}

func newDevicesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <device> <input-port> [output-port]",
		Short: "Register a control surface",
		Long:  "Register a control surface (apc40, apc20 or touchosc). The output port defaults to the input port name.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			spec, err := parseSpec(args)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), cfg, func(repo devicestore.Repository) error {
				rec, err := repo.Save(cmd.Context(), spec)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s\n", rec.Spec.Device, rec.ID)
				return nil
			})
		},
	}
}

func newDevicesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a registered control surface",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), cfg, func(repo devicestore.Repository) error {
				if err := repo.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

// parseSpec builds a DeviceSpec from "device input [output]".
func parseSpec(args []string) (control.DeviceSpec, error) {
	device, err := control.ParseDevice(args[0])
	if err != nil {
		return control.DeviceSpec{}, err
	}
	spec := control.DeviceSpec{Device: device, InputPort: args[1], OutputPort: args[1]}
	if len(args) > 2 {
		spec.OutputPort = args[2]
	}
	return spec, nil
}

// withStore opens and migrates the database for the duration of fn.
func withStore(ctx context.Context, cfg *config.Config, fn func(devicestore.Repository) error) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-mostly CLI handle

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return fn(devicestore.NewSQLiteRepository(db.DB))
}

func printDevices(out io.Writer, configured []config.MIDIDeviceConfig, stored []devicestore.Record) {
	if len(configured) == 0 && len(stored) == 0 {
		fmt.Fprintln(out, "No devices configured or registered")
		return
	}

	rows := make([][]string, 0, len(configured)+len(stored))
	for _, d := range configured {
		rows = append(rows, []string{"config", d.Device, d.InputPort, d.OutputPort, ""})
	}
	for _, rec := range stored {
		rows = append(rows, []string{
			rec.ID, rec.Spec.Device.String(), rec.Spec.InputPort, rec.Spec.OutputPort,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Device", "Input", "Output", "Added"}, rows))
}
