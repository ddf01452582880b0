package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"talent-bridge-go/internal/parser"
	"talent-bridge-go/internal/types"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "用变量值渲染文档模板",
	RunE:  runRender,
}

var (
	renderTemplateFile string
	renderValues       []string
	renderValuesFile   string
)

func init() {
	renderCmd.Flags().StringVarP(&renderTemplateFile, "template", "t", "", "模板定义JSON文件 (必填)")
	renderCmd.Flags().StringArrayVar(&renderValues, "set", nil, "变量值，格式 name=value，可重复")
	renderCmd.Flags().StringVar(&renderValuesFile, "values", "", "变量值JSON文件")

	if err := renderCmd.MarkFlagRequired("template"); err != nil {
		panic(fmt.Sprintf("标记template参数为必填失败: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(renderTemplateFile)
	if err != nil {
		return fmt.Errorf("读取模板文件失败: %w", err)
	}
	var def types.TemplateDefinition
	if err := json.Unmarshal(content, &def); err != nil {
		return fmt.Errorf("解析模板JSON失败: %w", err)
	}

	values, err := collectValues(renderValuesFile, renderValues)
	if err != nil {
		return err
	}

	out, err := parser.Render(def, values)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// collectValues 先读JSON文件，再用 --set 覆盖
func collectValues(file string, pairs []string) (map[string]string, error) {
	values := make(map[string]string)
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("读取变量文件失败: %w", err)
		}
		if err := json.Unmarshal(content, &values); err != nil {
			return nil, fmt.Errorf("解析变量JSON失败: %w", err)
		}
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("变量格式错误 %q，应为 name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}
