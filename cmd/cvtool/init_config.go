package main

import (
	"fmt"

	"talent-bridge-go/internal/config"

	"github.com/spf13/cobra"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "生成带默认值的示例配置文件",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.CreateSampleConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "示例配置已写入 %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
