package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/prattle/internal/version"
)

func newVersionCmd() *cobra.Command {
	var dirty bool
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Read()
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s %s\n", info.Module, info.Label(dirty)); err != nil {
				return err
			}
			if !verbose {
				return nil
			}
			if info.Revision != "" {
				_, _ = fmt.Fprintf(out, "revision: %s\n", info.Revision)
			}
			if !info.Time.IsZero() {
				_, _ = fmt.Fprintf(out, "built from: %s\n", info.Time.Format("2006-01-02 15:04:05 MST"))
			}
			_, err := fmt.Fprintf(out, "go: %s\n", info.GoVersion)
			return err
		},
	}
	cmd.Flags().BoolVar(&dirty, "dirty", false, "mark builds from a modified tree")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print revision and toolchain")
	return cmd
}
