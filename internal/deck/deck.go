package deck

import "strings"

// ContentKind 内容行的分类类型
type ContentKind string

const (
	// KindParagraph 普通段落行
	KindParagraph ContentKind = "paragraph"
	// KindBullet 列表项行（原始行以"- "开头）
	KindBullet ContentKind = "bullet"
	// KindCode 代码块（由显式的开始/结束标记界定）
	KindCode ContentKind = "code"
)

// ContentLine 幻灯片正文中的一个内容单元
// 是一个带标签的变体类型：Paragraph/Bullet 使用 Text 字段，Code 使用 Lines 字段
type ContentLine struct {
	Kind  ContentKind // 内容类型
	Text  string      // 段落或列表项文本（列表项已去掉"- "前缀）
	Lines []string    // 代码块的代码行（保持原始顺序）
}

// Paragraph 构造一个段落内容行
func Paragraph(text string) ContentLine {
	return ContentLine{Kind: KindParagraph, Text: text}
}

// Bullet 构造一个列表项内容行，text 为去掉前缀后的文本
func Bullet(text string) ContentLine {
	return ContentLine{Kind: KindBullet, Text: text}
}

// Code 构造一个代码块内容行
func Code(lines []string) ContentLine {
	return ContentLine{Kind: KindCode, Lines: lines}
}

// CodeText 把代码块的各行用换行符拼接成单个文本
// 对非代码类型返回空字符串
func (c ContentLine) CodeText() string {
	if c.Kind != KindCode {
		return ""
	}
	return strings.Join(c.Lines, "\n")
}

// Slide 单页幻灯片
type Slide struct {
	Title   string        // 幻灯片标题
	Content []ContentLine // 正文内容，保持输入顺序
}

// Presentation 一个主题块对应的演示文稿
type Presentation struct {
	Title  string  // 演示文稿标题（完整的标题行文本）
	Level  string  // 级别元数据
	Module string  // 模块元数据（完整的模块行文本）
	Slides []Slide // 幻灯片序列，保持输入顺序
}

// Subtitle 拼接标题页的副标题
// 级别渲染为"Уровень: <级别>"，模块保留原始行文本，两者都非空时用" | "连接
// 级别和模块都为空时返回空字符串
func (p *Presentation) Subtitle() string {
	var parts []string
	if p.Level != "" {
		parts = append(parts, "Уровень: "+p.Level)
	}
	if p.Module != "" {
		parts = append(parts, p.Module)
	}
	return strings.Join(parts, " | ")
}
