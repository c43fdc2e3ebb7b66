package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/interpret/config"
	"github.com/spf13/cobra"
)

const configInitLongDesc string = `Write config.toml with every default filled in.

Without --path the file goes to the user config directory, where kubeinterp
looks for it. An existing file is kept unless --force is given.`

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kubeinterp configuration",
	}
	cmd.AddCommand(newConfigInitCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default config.toml",
		Long:        configInitLongDesc,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(*cobra.Command, []string) error {
			if path == "" {
				dir, err := config.DefaultDir()
				if err != nil {
					return fmt.Errorf("locating config directory: %w", err)
				}
				path = filepath.Join(dir, "config.toml")
			}
			if err := config.Write(path, config.NewDefaultConfig(), force); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "where to write config.toml")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
