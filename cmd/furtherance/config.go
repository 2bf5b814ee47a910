package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3pll/Furtherance/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, closeLog, err := loadSettings()
			if err != nil {
				return err
			}
			defer closeLog()

			for _, k := range config.Keys() {
				v, _ := settings.Get(k)
				fmt.Printf("%-15s %s\n", k, v)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, closeLog, err := loadSettings()
			if err != nil {
				return err
			}
			defer closeLog()

			v, err := settings.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, closeLog, err := loadSettings()
			if err != nil {
				return err
			}
			defer closeLog()

			return settings.Set(args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, closeLog, err := loadSettings()
			if err != nil {
				return err
			}
			defer closeLog()

			fmt.Println(settings.Path())
			return nil
		},
	})

	return cmd
}

func loadSettings() (*config.Settings, func(), error) {
	logger, closeLog, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	settings, err := config.Load(configPath, logger)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return settings, closeLog, nil
}
