package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/fyerfyer/slide-gen-system/internal/deck"
)

// Config 解析器的标记配置表
// 主题/幻灯片/元数据标记按行前缀匹配，代码块标记按整行精确匹配
type Config struct {
	TopicStart   string // 主题开始标记（前缀匹配）
	SlideStart   string // 幻灯片开始标记（前缀匹配）
	SlideTitle   string // 幻灯片标题前缀，取前缀后的剩余部分
	TitlePrefix  string // 演示文稿标题前缀，保留完整行文本
	LevelPrefix  string // 级别前缀，取前缀后的剩余部分
	ModulePrefix string // 模块前缀，保留完整行文本
	CodeBegin    string // 代码块开始标记（整行精确匹配）
	CodeEnd      string // 代码块结束标记（整行精确匹配）
	BulletPrefix string // 列表项前缀
}

// DefaultConfig 返回默认标记配置
func DefaultConfig() Config {
	return Config{
		TopicStart:   "##-TOPIC-START-##",
		SlideStart:   "#-SLIDE-START-#",
		SlideTitle:   "TITLE::",
		TitlePrefix:  "Практическая работа",
		LevelPrefix:  "Уровень:",
		ModulePrefix: "Модуль",
		CodeBegin:    "[CODE_BLOCK]",
		CodeEnd:      "[/CODE_BLOCK]",
		BulletPrefix: "- ",
	}
}

// Parser 标记驱动的行解析器
// 对输入做单次前向扫描，把原始文本行归组为演示文稿->幻灯片->内容行的嵌套结构
type Parser struct {
	config Config
}

// NewParser 创建新的解析器
func NewParser(config Config) *Parser {
	return &Parser{
		config: config,
	}
}

// parseState 单次解析过程的全部可变状态
// 由一次Parse调用独占持有，解析器本身不保存任何跨调用的可变状态
type parseState struct {
	result    []deck.Presentation
	pres      *deck.Presentation // 当前打开的演示文稿
	slide     *deck.Slide        // 当前打开的幻灯片
	inCode    bool               // 是否处于代码块模式
	codeLines []string           // 代码行缓冲
}

// flushSlide 把当前幻灯片并入当前演示文稿
// 没有打开的演示文稿时幻灯片被丢弃；同时退出代码块模式，
// 未闭合代码块缓冲的内容随之丢失
func (st *parseState) flushSlide() {
	if st.slide != nil && st.pres != nil {
		st.pres.Slides = append(st.pres.Slides, *st.slide)
	}
	st.slide = nil
	st.inCode = false
	st.codeLines = nil
}

// flushPresentation 把当前演示文稿并入结果序列
func (st *parseState) flushPresentation() {
	st.flushSlide()
	if st.pres != nil {
		st.result = append(st.result, *st.pres)
	}
	st.pres = nil
}

// Parse 解析标记文本，返回按输入顺序排列的演示文稿序列
// 解析是尽力而为的：错位的标记和无处归属的内容行被静默丢弃，不产生错误
func (p *Parser) Parse(text string) []deck.Presentation {
	st := &parseState{}

	for _, raw := range strings.Split(text, "\n") {
		p.consumeLine(st, strings.TrimSpace(raw))
	}

	// 输入结束时保存未关闭的幻灯片和演示文稿
	st.flushPresentation()

	return st.result
}

// ParseReader 从Reader读取全部内容后解析
func (p *Parser) ParseReader(r io.Reader) ([]deck.Presentation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return p.Parse(string(data)), nil
}

// consumeLine 处理一行已去除首尾空白的输入
// 各规则按优先级排列，先匹配者生效
func (p *Parser) consumeLine(st *parseState, line string) {
	switch {
	case strings.HasPrefix(line, p.config.TopicStart):
		// 新主题：保存之前的演示文稿，打开新的空演示文稿
		st.flushPresentation()
		st.pres = &deck.Presentation{}

	case strings.HasPrefix(line, p.config.SlideStart):
		// 新幻灯片：保存之前的幻灯片，打开新的空幻灯片
		// 没有打开的演示文稿时新幻灯片最终会在flush时被丢弃
		st.flushSlide()
		st.slide = &deck.Slide{}

	case strings.HasPrefix(line, p.config.SlideTitle):
		if st.slide != nil {
			st.slide.Title = strings.TrimSpace(strings.TrimPrefix(line, p.config.SlideTitle))
		}

	case strings.HasPrefix(line, p.config.TitlePrefix):
		// 演示文稿标题保留完整行
		if st.pres != nil {
			st.pres.Title = line
		}

	case strings.HasPrefix(line, p.config.LevelPrefix):
		if st.pres != nil {
			st.pres.Level = strings.TrimSpace(strings.TrimPrefix(line, p.config.LevelPrefix))
		}

	case strings.HasPrefix(line, p.config.ModulePrefix):
		// 模块元数据保留完整行
		if st.pres != nil {
			st.pres.Module = line
		}

	case line == p.config.CodeBegin:
		if st.slide != nil {
			st.inCode = true
			st.codeLines = nil
		}

	case line == p.config.CodeEnd:
		if st.slide != nil {
			st.inCode = false
			// 空代码块照样生成内容项，渲染时跳过
			st.slide.Content = append(st.slide.Content, deck.Code(st.codeLines))
			st.codeLines = nil
		}

	case line == "":
		// 空行在任何状态下都被丢弃，包括代码块模式

	case st.inCode:
		// 代码行原样缓冲，不做二次处理
		st.codeLines = append(st.codeLines, line)

	case st.slide != nil:
		if strings.HasPrefix(line, p.config.BulletPrefix) {
			st.slide.Content = append(st.slide.Content, deck.Bullet(strings.TrimPrefix(line, p.config.BulletPrefix)))
		} else {
			st.slide.Content = append(st.slide.Content, deck.Paragraph(line))
		}

	default:
		// 没有打开的幻灯片时内容行被静默丢弃
	}
}
