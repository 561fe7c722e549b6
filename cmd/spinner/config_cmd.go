package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the spinner configuration file",
	}

	var (
		path  string
		force bool
		user  bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if user {
				path = filepath.Join(config.ConfigDir(), config.FileName)
			}
			if path == "" {
				path = config.FileName
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			var err error
			if user {
				path, err = cfg.Save()
			} else {
				err = cfg.SaveTo(path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&path, "output", "o", "", "Destination (default ./"+config.FileName+")")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().BoolVar(&user, "user", false, "Write to the per-user configuration directory")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the per-user configuration directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigDir())
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}
