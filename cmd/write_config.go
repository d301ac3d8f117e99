package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/config"
)

var writeConfigCmd = &cobra.Command{
	Use:   "write-config",
	Short: "Save the resolved flags to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.Save(path, config.Current()); err != nil {
			return err
		}
		appUI.Success("Wrote %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeConfigCmd)
}
