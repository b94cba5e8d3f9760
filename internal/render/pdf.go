package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/fyerfyer/slide-gen-system/internal/deck"
)

// pdfFontFamily 外部UTF-8字体注册时使用的字体族名
const pdfFontFamily = "decktext"

// PDFRenderer 把演示文稿渲染为PDF讲义
// 页面为A4横向：第一页是标题页，之后每页幻灯片各占一页
// 配置了UTF-8 TTF字体文件时非Latin-1文本（如西里尔文）可以完整显示，
// 未配置时退回内置Helvetica并按cp1252尽力转换
type PDFRenderer struct {
	style Style
}

// NewPDFRenderer 创建PDF渲染器
func NewPDFRenderer(style Style) *PDFRenderer {
	return &PDFRenderer{
		style: style,
	}
}

// Ext 返回产物扩展名
func (r *PDFRenderer) Ext() string {
	return string(FormatPDF)
}

// Render 渲染演示文稿为PDF字节内容
func (r *PDFRenderer) Render(p *deck.Presentation) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	textFamily, codeFamily, tr := r.setupFonts(pdf)

	// 标题页
	pdf.AddPage()
	pdf.SetY(70)
	pdf.SetFont(textFamily, "B", float64(r.style.TitleFontSize))
	setTextColor(pdf, r.style.TitleColor)
	pdf.MultiCell(0, 12, tr(p.Title), "", "C", false)

	if subtitle := p.Subtitle(); subtitle != "" {
		pdf.Ln(6)
		pdf.SetFont(textFamily, "", float64(r.style.SubtitleFontSize))
		setTextColor(pdf, r.style.SubtitleColor)
		pdf.MultiCell(0, 9, tr(subtitle), "", "C", false)
	}

	// 内容页
	for _, slide := range p.Slides {
		pdf.AddPage()
		pdf.SetFont(textFamily, "B", float64(r.style.HeadingFontSize))
		setTextColor(pdf, r.style.TitleColor)
		pdf.MultiCell(0, 10, tr(slide.Title), "", "", false)
		pdf.Ln(4)

		for _, line := range slide.Content {
			switch line.Kind {
			case deck.KindCode:
				// 空代码块不产生任何输出
				if len(line.Lines) == 0 {
					continue
				}
				pdf.SetFont(codeFamily, "", float64(r.style.CodeFontSize))
				setTextColor(pdf, r.style.CodeColor)
				pdf.MultiCell(0, 5.5, tr(line.CodeText()), "", "", false)
				pdf.Ln(2)
			case deck.KindBullet:
				r.writeTextLine(pdf, textFamily, tr, r.style.BulletGlyph+line.Text, deck.ShouldEmphasize(line.Text))
			default:
				r.writeTextLine(pdf, textFamily, tr, line.Text, deck.ShouldEmphasize(line.Text))
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// setupFonts 准备字体族和文本转换函数
// 配置了字体文件时所有文本（含代码）都使用注册的UTF-8字体，
// 否则正文用Helvetica、代码用Courier，文本经cp1252转换器处理
func (r *PDFRenderer) setupFonts(pdf *gofpdf.Fpdf) (textFamily, codeFamily string, tr func(string) string) {
	if r.style.PDFFontFile != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", r.style.PDFFontFile)
		pdf.AddUTF8Font(pdfFontFamily, "B", r.style.PDFFontFile)
		return pdfFontFamily, pdfFontFamily, func(s string) string { return s }
	}
	return "Helvetica", "Courier", pdf.UnicodeTranslatorFromDescriptor("")
}

// writeTextLine 输出一行正文，命中强调关键词的行加粗
func (r *PDFRenderer) writeTextLine(pdf *gofpdf.Fpdf, family string, tr func(string) string, text string, emphasized bool) {
	fontStyle := ""
	if emphasized {
		fontStyle = "B"
	}
	pdf.SetFont(family, fontStyle, float64(r.style.ContentFontSize))
	setTextColor(pdf, r.style.ContentColor)
	pdf.MultiCell(0, 7, tr(text), "", "", false)
}

func setTextColor(pdf *gofpdf.Fpdf, c RGB) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
