package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/model"
)

var (
	initURL      string
	initAnonKey  string
	initPlatform string
	initTimezone string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Backend.AnonKey != "" {
			shown.Backend.AnonKey = "***"
		}
		if shown.Notify.Telegram.Token != "" {
			shown.Notify.Telegram.Token = "***"
		}
		if jsonOutput {
			return printJSON(shown)
		}
		fmt.Printf("file:           %s\n", configPath)
		fmt.Printf("backend.url:    %s\n", shown.Backend.URL)
		fmt.Printf("notify:         %s\n", shown.Notify.Platform)
		fmt.Printf("interval:       %s\n", shown.Reminder.Interval)
		fmt.Printf("lookahead:      %s\n", shown.Reminder.Lookahead)
		fmt.Printf("dedup window:   %s\n", shown.Reminder.DedupWindow)
		fmt.Printf("timezone:       %s\n", shown.Reminder.Location())
		fmt.Printf("store:          %s\n", shown.Store.Path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the configuration file from flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		next := *cfg
		if initURL != "" {
			next.Backend.URL = initURL
		}
		if initAnonKey != "" {
			next.Backend.AnonKey = initAnonKey
		}
		if initPlatform != "" {
			if initPlatform != model.PlatformTerminal && initPlatform != model.PlatformTelegram {
				return fmt.Errorf("unknown notification platform %q", initPlatform)
			}
			next.Notify.Platform = initPlatform
		}
		if initTimezone != "" {
			next.Reminder.Timezone = initTimezone
		}
		if err := model.SaveConfig(configPath, &next); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initURL, "url", "", "backend URL")
	configInitCmd.Flags().StringVar(&initAnonKey, "anon-key", "", "backend public API key")
	configInitCmd.Flags().StringVar(&initPlatform, "platform", "", "terminal or telegram")
	configInitCmd.Flags().StringVar(&initTimezone, "timezone", "", "IANA zone for due times, e.g. America/Santiago")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
