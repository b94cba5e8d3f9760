package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyerfyer/slide-gen-system/internal/deck"
)

// Renderer 演示文稿渲染器接口
// 负责把解析得到的演示文稿渲染为一个输出文档
type Renderer interface {
	// Render 渲染单个演示文稿，返回产物的字节内容
	Render(p *deck.Presentation) ([]byte, error)

	// Ext 返回产物文件的扩展名（不含点）
	Ext() string
}

// Format 渲染输出格式
type Format string

const (
	// FormatPPTX OOXML演示文稿格式
	FormatPPTX Format = "pptx"
	// FormatPDF PDF讲义格式
	FormatPDF Format = "pdf"
)

// RGB 渲染用的颜色值
type RGB struct {
	R, G, B uint8
}

// Hex 返回六位十六进制颜色串（不含#前缀）
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Style 渲染样式配置
// 字号单位为磅
type Style struct {
	TitleFontSize    int // 标题页主标题字号
	SubtitleFontSize int // 标题页副标题字号
	HeadingFontSize  int // 内容页标题字号（沿用副标题字号）
	ContentFontSize  int // 正文字号
	CodeFontSize     int // 代码字号

	TitleColor    RGB // 标题颜色
	SubtitleColor RGB // 副标题颜色
	ContentColor  RGB // 正文颜色
	CodeColor     RGB // 代码颜色

	TextFont    string // 正文字体
	CodeFont    string // 代码字体
	BulletGlyph string // 列表项的标记符号

	PDFFontFile string // PDF渲染用的UTF-8 TTF字体文件路径，为空时退回内置字体
}

// DefaultStyle 返回默认渲染样式
func DefaultStyle() Style {
	return Style{
		TitleFontSize:    28,
		SubtitleFontSize: 20,
		HeadingFontSize:  20,
		ContentFontSize:  14,
		CodeFontSize:     12,
		TitleColor:       RGB{31, 73, 125},
		SubtitleColor:    RGB{68, 114, 196},
		ContentColor:     RGB{68, 68, 68},
		CodeColor:        RGB{0, 100, 0},
		TextFont:         "Calibri",
		CodeFont:         "Consolas",
		BulletGlyph:      "• ",
	}
}

// ErrUnsupportedFormat 不支持的渲染格式
var ErrUnsupportedFormat = errors.New("unsupported render format")

// NewRenderer 渲染器工厂函数，根据格式名创建对应的渲染器
// 格式名为空时默认使用pptx
func NewRenderer(format string, style Style) (Renderer, error) {
	normalized := strings.ToLower(strings.TrimPrefix(format, "."))

	switch Format(normalized) {
	case FormatPPTX:
		return NewPPTXRenderer(style), nil
	case FormatPDF:
		return NewPDFRenderer(style), nil
	case "":
		return NewPPTXRenderer(style), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
