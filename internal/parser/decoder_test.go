package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"talent-bridge-go/internal/types"

	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxFooter = `</w:body></w:document>`

// buildDOCX 在内存中构造一个最小的docx容器
func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            docxHeader + body + docxFooter,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF 构造一个合法PDF，每个参数是一页的文本，空字符串表示空白页。xref偏移按实际位置计算
func buildPDF(pages ...string) []byte {
	// 1: Catalog, 2: Pages, 3: Font, 4: Info，之后每页占用 page + content 两个对象
	const firstPageObj = 5
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPageObj+2*i)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Producer (talent-bridge test fixture) >>",
	}
	for i, text := range pages {
		contentObj := firstPageObj + 2*i + 1
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentObj))

		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf (%s) Tj ET", text)
		}
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)
	return buf.Bytes()
}

type memoryTextCache struct {
	data    map[string]string
	gets    int
	sets    int
	failGet bool
}

func newMemoryTextCache() *memoryTextCache {
	return &memoryTextCache{data: make(map[string]string)}
}

func (c *memoryTextCache) GetText(_ context.Context, key string) (string, bool, error) {
	c.gets++
	if c.failGet {
		return "", false, errors.New("redis: connection refused")
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryTextCache) SetText(_ context.Context, key string, text string) error {
	c.sets++
	c.data[key] = text
	return nil
}

func newTestDecoder(t *testing.T, opts ...DecoderOption) *Decoder {
	t.Helper()
	d, err := NewDecoder(context.Background(), opts...)
	require.NoError(t, err)
	return d
}

func TestFormatFromFilename(t *testing.T) {
	testCases := []struct {
		filename string
		want     types.DocumentFormat
		wantErr  bool
	}{
		{"lebenslauf.pdf", types.FormatPDF, false},
		{"CV.PDF", types.FormatPDF, false},
		{"cv.docx", types.FormatDOCX, false},
		{"cv.doc", types.FormatDOCX, false},
		{"cv.txt", "", true},
		{"no-extension", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			got, err := FormatFromFilename(tc.filename)
			if tc.wantErr {
				var unsupported *UnsupportedFormatError
				assert.ErrorAs(t, err, &unsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	d := newTestDecoder(t)

	text, err := d.Decode(context.Background(), []byte("hello"), types.DocumentFormat("odt"))
	assert.Empty(t, text)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeDOCXParagraphs(t *testing.T) {
	d := newTestDecoder(t)
	payload := buildDOCX(t,
		`<w:p><w:r><w:t>Anna Schmidt</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">2018 - 2021 </w:t></w:r><w:r><w:t>Entwicklerin bei Acme.</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Python</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	text, err := d.Decode(context.Background(), payload, types.FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Anna Schmidt\n2018 - 2021 Entwicklerin bei Acme.\nPython\n", text)
}

func TestDecodeEmptyDocuments(t *testing.T) {
	d := newTestDecoder(t)
	ctx := context.Background()

	t.Run("docx正文为空", func(t *testing.T) {
		text, err := d.Decode(ctx, buildDOCX(t, ""), types.FormatDOCX)
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})

	t.Run("docx只有空段落", func(t *testing.T) {
		text, err := d.Decode(ctx, buildDOCX(t, "<w:p/>"), types.FormatDOCX)
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})

	t.Run("pdf没有页面", func(t *testing.T) {
		text, err := d.Decode(ctx, buildPDF(), types.FormatPDF)
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})
}

func TestDecodePDFPagesInOrder(t *testing.T) {
	d := newTestDecoder(t)

	text, err := d.Decode(context.Background(), buildPDF("Hello", "", "World"), types.FormatPDF)
	require.NoError(t, err, "空白页不应导致解码失败")
	assert.Equal(t, "HelloWorld", text)
}

func TestDecodePDFHonoursCancelledContext(t *testing.T) {
	d := newTestDecoder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, err := d.Decode(ctx, buildPDF("Hello"), types.FormatPDF)
	assert.Empty(t, text)
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, context.Canceled)
}

// stuckParser 模拟对 ctx 无感知、长时间不返回的PDF解析
type stuckParser struct {
	release chan struct{}
}

func (p *stuckParser) Parse(_ context.Context, _ io.Reader, _ ...einoParser.Option) ([]*schema.Document, error) {
	<-p.release
	return []*schema.Document{{Content: "too late"}}, nil
}

func TestDecodePDFTimeout(t *testing.T) {
	d := newTestDecoder(t, WithDecodeTimeout(20*time.Millisecond))
	stuck := &stuckParser{release: make(chan struct{})}
	defer close(stuck.release)
	d.pdfParser = stuck

	start := time.Now()
	text, err := d.Decode(context.Background(), buildPDF("Hello"), types.FormatPDF)
	assert.Less(t, time.Since(start), 5*time.Second, "超时后应立即返回")
	assert.Empty(t, text)
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeMalformedPayload(t *testing.T) {
	d := newTestDecoder(t)
	ctx := context.Background()

	for _, format := range []types.DocumentFormat{types.FormatPDF, types.FormatDOCX} {
		t.Run(string(format), func(t *testing.T) {
			text, err := d.Decode(ctx, []byte("definitely not a document"), format)
			assert.Empty(t, text, "解码失败时不应返回部分文本")

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, format, decodeErr.Format)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeDOCXBrokenXML(t *testing.T) {
	d := newTestDecoder(t)
	payload := buildDOCX(t, `<w:p><w:r><w:t>unterminated`)

	_, err := d.Decode(context.Background(), payload, types.FormatDOCX)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeUsesTextCache(t *testing.T) {
	cache := newMemoryTextCache()
	d := newTestDecoder(t, WithTextCache(cache))
	ctx := context.Background()
	payload := buildDOCX(t, `<w:p><w:r><w:t>SQL und React</w:t></w:r></w:p>`)

	first, err := d.Decode(ctx, payload, types.FormatDOCX)
	require.NoError(t, err)
	second, err := d.Decode(ctx, payload, types.FormatDOCX)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets, "第二次应命中缓存，不再写入")
}

func TestDecodeIgnoresCacheFailure(t *testing.T) {
	cache := newMemoryTextCache()
	cache.failGet = true
	d := newTestDecoder(t, WithTextCache(cache))

	text, err := d.Decode(context.Background(), buildDOCX(t, `<w:p><w:r><w:t>Docker</w:t></w:r></w:p>`), types.FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Docker\n", text)
}

func TestParagraphTextTabsAndBreaks(t *testing.T) {
	text, err := paragraphText(docxHeader +
		`<w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t><w:br/><w:t>C</w:t></w:r></w:p>` + docxFooter)
	require.NoError(t, err)
	assert.Equal(t, "A\tB\nC\n", text)
}
