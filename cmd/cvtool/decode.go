package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"talent-bridge-go/internal/parser"

	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "提取PDF或DOCX文档的纯文本",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var (
	decodeMaxLen  int
	decodeOutFile string
	decodeTimeout time.Duration
)

func init() {
	decodeCmd.Flags().IntVar(&decodeMaxLen, "maxlen", 1000, "显示的文本最大长度，设为-1显示全部")
	decodeCmd.Flags().StringVarP(&decodeOutFile, "out", "o", "", "保存提取内容到文件")
	decodeCmd.Flags().DurationVar(&decodeTimeout, "timeout", 30*time.Second, "解码超时时间")

	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	text, err := decodeFile(cmd.Context(), args[0], decodeTimeout)
	if err != nil {
		return err
	}

	if decodeOutFile != "" {
		if err := os.WriteFile(decodeOutFile, []byte(text), 0o644); err != nil {
			return fmt.Errorf("保存文本失败: %w", err)
		}
		fmt.Printf("文本已保存到 %s (共 %d 字符)\n", decodeOutFile, len([]rune(text)))
		return nil
	}

	fmt.Println(truncateText(text, decodeMaxLen))
	return nil
}

// decodeFile 按扩展名识别格式并解码文件
func decodeFile(ctx context.Context, path string, timeout time.Duration) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("无法获取文件的绝对路径: %w", err)
	}
	format, err := parser.FormatFromFilename(absPath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("无法访问文件 %s: %w", absPath, err)
	}
	defer f.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	decoder, err := parser.NewDecoder(ctx, parser.WithDecodeTimeout(timeout))
	if err != nil {
		return "", fmt.Errorf("创建文档解码器失败: %w", err)
	}
	return decoder.DecodeReader(ctx, f, format)
}

func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if maxLen < 0 || len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + fmt.Sprintf("\n... (已截断，总计 %d 字符)", len(runes))
}
