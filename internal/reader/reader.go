package reader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Reader 输入读取器接口
// 负责将不同格式的输入文件统一转换为标记文本
type Reader interface {
	// ReadText 读取文件，返回标记文本
	ReadText(path string) (string, error)

	// ReadFrom 从Reader读取，返回标记文本
	ReadFrom(r io.Reader) (string, error)
}

// ContentType 表示输入文件的内容类型
type ContentType string

const (
	// PDF 输入类型
	PDF ContentType = "pdf"
	// Markdown 输入类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ErrUnsupportedInput 不支持的输入类型
var ErrUnsupportedInput = errors.New("unsupported input type")

// NewReader 读取器工厂函数，根据文件扩展名创建对应的读取器
func NewReader(path string) (Reader, error) {
	contentType := detectContentType(path)

	switch contentType {
	case PDF:
		return NewPDFReader(), nil
	case Markdown:
		return NewMarkdownReader(), nil
	case PlainText:
		return NewPlainTextReader(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(path))
	}
}

// detectContentType 根据文件扩展名检测内容类型
func detectContentType(path string) ContentType {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
