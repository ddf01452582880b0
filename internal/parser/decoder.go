package parser

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/tracing"
	"talent-bridge-go/internal/types"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/nguyenthenguyen/docx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// wordprocessingML 命名空间，只收集正文段落中的文本
const wordMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// TextCache 解码结果缓存，key 由调用方根据载荷内容计算
type TextCache interface {
	GetText(ctx context.Context, key string) (string, bool, error)
	SetText(ctx context.Context, key string, text string) error
}

// Decoder 把 pdf/docx 载荷转换为纯文本
type Decoder struct {
	pdfParser einoParser.Parser
	cache     TextCache
	timeout   time.Duration
}

// DecoderOption 解码器配置选项
type DecoderOption func(*Decoder)

// WithTextCache 为解码器配置文本缓存
func WithTextCache(cache TextCache) DecoderOption {
	return func(d *Decoder) {
		d.cache = cache
	}
}

// WithDecodeTimeout 单次PDF解析的超时时间
func WithDecodeTimeout(timeout time.Duration) DecoderOption {
	return func(d *Decoder) {
		d.timeout = timeout
	}
}

// NewDecoder 创建解码器，PDF按页解析以保证页序
func NewDecoder(ctx context.Context, opts ...DecoderOption) (*Decoder, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}

	d := &Decoder{
		pdfParser: p,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FormatFromFilename 根据文件扩展名得到声明格式，doc 与 docx 视为同一种格式
func FormatFromFilename(filename string) (types.DocumentFormat, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ParseFormat(ext)
}

// ParseFormat 解析格式标签
func ParseFormat(tag string) (types.DocumentFormat, error) {
	switch strings.ToLower(tag) {
	case "pdf":
		return types.FormatPDF, nil
	case "doc", "docx":
		return types.FormatDOCX, nil
	default:
		return "", &UnsupportedFormatError{Format: tag}
	}
}

// Decode 将载荷解码为纯文本。解码失败时不返回任何部分文本。
func (d *Decoder) Decode(ctx context.Context, payload []byte, format types.DocumentFormat) (string, error) {
	tracer := otel.Tracer("talent-bridge-go/parser")
	ctx, span := tracer.Start(ctx, "Decoder.Decode")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.format", string(format)),
		attribute.Int("document.size", len(payload)),
	)

	if format != types.FormatPDF && format != types.FormatDOCX {
		err := &UnsupportedFormatError{Format: string(format)}
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return "", err
	}

	cacheKey := payloadKey(payload, format)
	if d.cache != nil {
		if text, ok, err := d.cache.GetText(ctx, cacheKey); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("cache_key", cacheKey).Msg("读取解码缓存失败，继续解码")
		} else if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return text, nil
		}
	}

	var (
		text string
		err  error
	)
	switch format {
	case types.FormatPDF:
		text, err = d.decodePDF(ctx, payload)
	case types.FormatDOCX:
		text, err = decodeDOCX(payload)
	}
	if err != nil {
		decodeErr := &DecodeError{Format: format, Err: err}
		tracing.RecordError(span, decodeErr, tracing.ErrorTypeDecode)
		return "", decodeErr
	}

	span.SetAttributes(attribute.Int("document.text_length", len(text)))
	if d.cache != nil {
		if err := d.cache.SetText(ctx, cacheKey, text); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("cache_key", cacheKey).Msg("写入解码缓存失败")
		}
	}
	return text, nil
}

// DecodeReader 读取完整载荷后解码
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader, format types.DocumentFormat) (string, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return "", &DecodeError{Format: format, Err: err}
	}
	return d.Decode(ctx, payload, format)
}

// decodePDF 在独立 goroutine 中解析，超时或上下文取消时立即返回。
// PDF解析器本身不响应 ctx，超时后后台解析会自行结束，结果被丢弃。
func (d *Decoder) decodePDF(ctx context.Context, payload []byte) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type parseResult struct {
		text string
		err  error
	}
	done := make(chan parseResult, 1)
	go func() {
		text, err := d.parsePDF(ctx, payload)
		done <- parseResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("PDF解析未在时限内完成: %w", ctx.Err())
	case res := <-done:
		return res.text, res.err
	}
}

func (d *Decoder) parsePDF(ctx context.Context, payload []byte) (string, error) {
	docs, err := d.pdfParser.Parse(ctx, bytes.NewReader(payload),
		einoParser.WithExtraMeta(map[string]any{"source": "upload"}),
	)
	if err != nil {
		return "", err
	}

	// 没有文本的页面贡献空字符串
	var sb strings.Builder
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		sb.WriteString(doc.Content)
	}
	return sb.String(), nil
}

func decodeDOCX(payload []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent())
}

// paragraphText 按文档顺序拼接每个 w:p 段落的文本，每段后追加换行。
// 整篇没有任何文本时返回空字符串（Word新建的空文档也带一个空段落）。
func paragraphText(documentXML string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		sb      strings.Builder
		inText  bool
		hasText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("解析document.xml失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText && len(t) > 0 {
				sb.Write(t)
				hasText = true
			}
		}
	}
	if !hasText {
		return "", nil
	}
	return sb.String(), nil
}

func isWordElement(name xml.Name) bool {
	return name.Space == wordMLNamespace || name.Space == "w"
}

func payloadKey(payload []byte, format types.DocumentFormat) string {
	sum := md5.Sum(payload)
	return string(format) + ":" + hex.EncodeToString(sum[:])
}
