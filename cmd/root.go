package cmd

import (
	"os"

	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memlane",
	Short: "Timelines of dated memories with images",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		logger.Init(config.Get().LogDev || config.IsDevelopment())
	},
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (eg: /etc/memlane/.env)")
	if err := viper.BindPFlag("config_file_path", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return
	}
}
