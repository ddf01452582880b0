package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"talent-bridge-go/internal/parser"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "从简历中抽取技能、工作经历和学历",
	Long:  "参数为PDF/DOCX文件时先解码再抽取；加上 --text 时把参数当作纯文本文件，不传参数则读取标准输入。",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExtract,
}

var (
	extractPlainText bool
	extractShowSpans bool
)

func init() {
	extractCmd.Flags().BoolVar(&extractPlainText, "text", false, "输入为纯文本")
	extractCmd.Flags().BoolVar(&extractShowSpans, "spans", false, "同时输出命中的文本片段")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readExtractInput(cmd, args)
	if err != nil {
		return err
	}

	extractorCfg := parser.DefaultExtractorConfig()
	if configPath != "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		extractorCfg = parser.ExtractorConfigFrom(cfg.Extraction)
	}
	extractor := parser.NewExtractor(extractorCfg)

	out := map[string]interface{}{
		"profile": extractor.Extract(text),
	}
	if extractShowSpans {
		out["spans"] = extractor.Scan(text)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readExtractInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), nil
	}
	if extractPlainText {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("读取文件失败: %w", err)
		}
		return string(data), nil
	}
	return decodeFile(cmd.Context(), args[0], decodeTimeout)
}
