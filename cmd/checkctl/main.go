package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via ldflags
var Version = "dev"

var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:           "checkctl",
	Short:         "Manage checkwatch uptime checks",
	Long:          "checkctl adds, lists and deletes uptime checks through the checkwatch API.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("api", "http://localhost:8080", "API base URL (env API_BASE)")
	rootCmd.PersistentFlags().String("key", "", "API key (env CHECKWATCH_API_KEY)")
	_ = settings.BindPFlag("api_base", rootCmd.PersistentFlags().Lookup("api"))
	_ = settings.BindPFlag("checkwatch_api_key", rootCmd.PersistentFlags().Lookup("key"))
	settings.AutomaticEnv()
}

func newClient() *Client {
	return NewClient(settings.GetString("api_base"), settings.GetString("checkwatch_api_key"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
