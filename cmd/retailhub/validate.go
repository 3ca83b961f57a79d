package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	var printConfig bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.load()
			if err != nil {
				return err
			}
			if err := check(p, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if printConfig {
				out, err := yaml.Marshal(p)
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printConfig, "print", false, "print the resolved configuration as YAML")
	return cmd
}
