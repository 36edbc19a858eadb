package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tunnelz/tunnels/internal/control"
)

func newPortsCommand(_ *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI input and output ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, err := control.OpenDriver()
			if err != nil {
				return err
			}
			defer drv.Close()

			ins, outs, err := control.NewManager(drv, control.Options{}).Ports()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Direction", "#", "Port"}, portRows(ins, outs)))
			return nil
		},
	}
}

func portRows(ins, outs []string) [][]string {
	rows := make([][]string, 0, len(ins)+len(outs))
	for i, name := range ins {
		rows = append(rows, []string{"in", fmt.Sprint(i), name})
	}
	for i, name := range outs {
		rows = append(rows, []string{"out", fmt.Sprint(i), name})
	}
	return rows
}
