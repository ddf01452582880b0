// Package main 提供简历解析和模板渲染的命令行工具，便于脱离HTTP服务排查问题
package main

import (
	"fmt"
	"os"

	"talent-bridge-go/internal/config"
	"talent-bridge-go/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cvtool",
	Short: "简历解析与文档模板工具",
	Long:  "cvtool 在本地执行文档解码、档案抽取和模板渲染，也可以订阅档案事件用于调试。",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return logger.Init(logger.Config{Level: "warn", Format: "pretty"})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时按默认路径查找")
}

// loadConfig 仅在子命令需要时加载配置
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
