package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/fyerfyer/slide-gen-system/internal/deck"
)

// 幻灯片页面与文本框几何参数，单位EMU（1英寸 = 914400 EMU）
const (
	slideWidthEMU  = 9144000 // 10英寸
	slideHeightEMU = 6858000 // 7.5英寸

	// 标题页：主标题与副标题文本框
	titleBoxX, titleBoxY, titleBoxW, titleBoxH         = 685800, 2130425, 7772400, 1470025
	subtitleBoxX, subtitleBoxY, subtitleBoxW, subtitleBoxH = 1371600, 3886200, 6400800, 1752600

	// 内容页：标题文本框位于(0.5",0.5")，尺寸9"x1"
	headingBoxX, headingBoxY, headingBoxW, headingBoxH = 457200, 457200, 8229600, 914400
	// 内容页：正文文本框位于(0.5",1.5")，尺寸9"x5.5"
	bodyBoxX, bodyBoxY, bodyBoxW, bodyBoxH = 457200, 1371600, 8229600, 5029200
)

// PPTXRenderer 把演示文稿渲染为独立的OOXML（pptx）文件
// 产物是一个zip包：内容类型清单、关系文件、演示文稿主文档、
// 母版/版式/主题链以及每页幻灯片的XML
// 内容页在空白版式上手工绘制文本框，列表项使用字面量的项目符号
// 并通过buNone关闭原生自动编号
type PPTXRenderer struct {
	style Style
}

// NewPPTXRenderer 创建pptx渲染器
func NewPPTXRenderer(style Style) *PPTXRenderer {
	return &PPTXRenderer{
		style: style,
	}
}

// Ext 返回产物扩展名
func (r *PPTXRenderer) Ext() string {
	return string(FormatPPTX)
}

// Render 渲染演示文稿为pptx字节内容
// 第一页为标题页，之后每页幻灯片各占一页
func (r *PPTXRenderer) Render(p *deck.Presentation) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// 标题页 + 内容页
	slideXMLs := make([]string, 0, len(p.Slides)+1)
	slideXMLs = append(slideXMLs, r.buildTitleSlide(p))
	for _, slide := range p.Slides {
		slideXMLs = append(slideXMLs, r.buildContentSlide(slide))
	}

	parts := []pptxPart{
		{"[Content_Types].xml", buildContentTypes(len(slideXMLs))},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", buildCoreProps(p.Title)},
		{"ppt/presentation.xml", buildPresentationXML(len(slideXMLs))},
		{"ppt/_rels/presentation.xml.rels", buildPresentationRels(len(slideXMLs))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}

	for i, slideXML := range slideXMLs {
		parts = append(parts,
			pptxPart{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML},
			pptxPart{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), slideRelsXML},
		)
	}

	for _, part := range parts {
		if err := writeZipPart(zw, part.name, part.content); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize pptx package: %w", err)
	}

	return buf.Bytes(), nil
}

// pptxPart zip包中的一个部件
type pptxPart struct {
	name    string
	content string
}

// writeZipPart 向zip包中写入一个部件
func writeZipPart(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		return fmt.Errorf("failed to write part %s: %w", name, err)
	}
	return nil
}

// buildTitleSlide 构建标题页XML
// 副标题为空时只输出主标题文本框
func (r *PPTXRenderer) buildTitleSlide(p *deck.Presentation) string {
	var shapes strings.Builder

	titlePara := r.textParagraph(p.Title, r.style.TitleFontSize, r.style.TitleColor, true)
	shapes.WriteString(buildTextBox(2, "Title 1", titleBoxX, titleBoxY, titleBoxW, titleBoxH, titlePara))

	if subtitle := p.Subtitle(); subtitle != "" {
		subtitlePara := r.textParagraph(subtitle, r.style.SubtitleFontSize, r.style.SubtitleColor, false)
		shapes.WriteString(buildTextBox(3, "Subtitle 2", subtitleBoxX, subtitleBoxY, subtitleBoxW, subtitleBoxH, subtitlePara))
	}

	return fmt.Sprintf(slideTmpl, shapes.String())
}

// buildContentSlide 构建内容页XML
// 标题文本框在上，正文文本框在下，每个内容项对应正文中的一个段落
func (r *PPTXRenderer) buildContentSlide(slide deck.Slide) string {
	var shapes strings.Builder

	headingPara := r.textParagraph(slide.Title, r.style.HeadingFontSize, r.style.TitleColor, true)
	shapes.WriteString(buildTextBox(2, "Title 1", headingBoxX, headingBoxY, headingBoxW, headingBoxH, headingPara))

	var body strings.Builder
	for _, line := range slide.Content {
		switch line.Kind {
		case deck.KindBullet:
			// 手工添加项目符号，原生编号已通过buNone关闭
			body.WriteString(r.textParagraph(r.style.BulletGlyph+line.Text, r.style.ContentFontSize, r.style.ContentColor, deck.ShouldEmphasize(line.Text)))
		case deck.KindCode:
			// 空代码块不产生任何输出
			if len(line.Lines) > 0 {
				body.WriteString(r.codeParagraph(line.Lines))
			}
		default:
			body.WriteString(r.textParagraph(line.Text, r.style.ContentFontSize, r.style.ContentColor, deck.ShouldEmphasize(line.Text)))
		}
	}
	if body.Len() == 0 {
		// 文本框至少要包含一个段落
		body.WriteString("<a:p/>")
	}

	shapes.WriteString(buildTextBox(3, "Content 2", bodyBoxX, bodyBoxY, bodyBoxW, bodyBoxH, body.String()))

	return fmt.Sprintf(slideTmpl, shapes.String())
}

// textParagraph 构建一个文本段落
// 所有段落统一关闭原生项目符号
func (r *PPTXRenderer) textParagraph(text string, sizePt int, color RGB, bold bool) string {
	boldAttr := ""
	if bold {
		boldAttr = ` b="1"`
	}
	return fmt.Sprintf(`<a:p><a:pPr><a:buNone/></a:pPr><a:r><a:rPr lang="ru-RU" sz="%d"%s><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:latin typeface="%s"/></a:rPr><a:t>%s</a:t></a:r></a:p>`,
		sizePt*100, boldAttr, color.Hex(), r.style.TextFont, escapeXML(text))
}

// codeParagraph 构建代码块段落
// 多行代码放在同一个段落中，行之间用换行元素分隔，使用等宽字体
func (r *PPTXRenderer) codeParagraph(lines []string) string {
	runs := make([]string, 0, len(lines))
	for _, line := range lines {
		runs = append(runs, fmt.Sprintf(`<a:r><a:rPr lang="ru-RU" sz="%d"><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:latin typeface="%s"/></a:rPr><a:t>%s</a:t></a:r>`,
			r.style.CodeFontSize*100, r.style.CodeColor.Hex(), r.style.CodeFont, escapeXML(line)))
	}
	return fmt.Sprintf(`<a:p><a:pPr><a:buNone/></a:pPr>%s</a:p>`, strings.Join(runs, "<a:br/>"))
}

// buildTextBox 构建一个矩形文本框形状
func buildTextBox(id int, name string, x, y, w, h int, paragraphs string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>%s</p:txBody></p:sp>`,
		id, name, x, y, w, h, paragraphs)
}

// escapeXML 转义XML文本中的特殊字符
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// buildContentTypes 构建内容类型清单，每页幻灯片各有一个Override项
func buildContentTypes(slideCount int) string {
	var overrides strings.Builder
	for i := 1; i <= slideCount; i++ {
		overrides.WriteString(fmt.Sprintf(`<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i))
	}
	return fmt.Sprintf(contentTypesTmpl, overrides.String())
}

// buildCoreProps 构建文档核心属性
func buildCoreProps(title string) string {
	return fmt.Sprintf(corePropsTmpl, escapeXML(title))
}

// buildPresentationXML 构建演示文稿主文档
// 幻灯片ID从256开始，关系ID从rId2开始（rId1为母版）
func buildPresentationXML(slideCount int) string {
	var slideIDs strings.Builder
	for i := 0; i < slideCount; i++ {
		slideIDs.WriteString(fmt.Sprintf(`<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2))
	}
	return fmt.Sprintf(presentationTmpl, slideIDs.String(), slideWidthEMU, slideHeightEMU)
}

// buildPresentationRels 构建演示文稿的关系文件
func buildPresentationRels(slideCount int) string {
	var rels strings.Builder
	rels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= slideCount; i++ {
		rels.WriteString(fmt.Sprintf(`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i))
	}
	return fmt.Sprintf(relationshipsTmpl, rels.String())
}

const contentTypesTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/><Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/><Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/><Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/><Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>%s</Types>`

const relationshipsTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">%s</Relationships>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/></Relationships>`

const corePropsTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><dc:title>%s</dc:title><dc:creator>slide-gen-system</dc:creator></cp:coreProperties>`

const presentationTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>%s</p:sldIdLst><p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`

const slideTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

const slideRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`

const slideMasterXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill><a:effectLst/></p:bgPr></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const slideMasterRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/></Relationships>`

const slideLayoutXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank"><p:cSld name="Blank"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`

const themeXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme"><a:themeElements><a:clrScheme name="Office"><a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1><a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2><a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2><a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4><a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6><a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme><a:fontScheme name="Office"><a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme><a:fmtScheme name="Office"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst><a:lnStyleLst><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst><a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst><a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme></a:themeElements></a:theme>`
