package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/slide-gen-system/internal/deck"
)

// samplePresentation 构造测试用的演示文稿
func samplePresentation() *deck.Presentation {
	return &deck.Presentation{
		Title:  "Практическая работа 1",
		Level:  "Базовый",
		Module: "Модуль 2. Циклы",
		Slides: []deck.Slide{
			{
				Title: "Введение",
				Content: []deck.ContentLine{
					deck.Paragraph("Цель: изучить тему"),
					deck.Bullet("пункт один"),
					deck.Code([]string{"print(1)", "print(2)"}),
				},
			},
			{
				Title:   "Пустой слайд",
				Content: nil,
			},
		},
	}
}

// unzipParts 解包pptx产物，返回部件名到内容的映射
func unzipParts(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err, "产物应是合法的zip包")

	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(content)
	}
	return parts
}

// TestPPTXRenderStructure 测试pptx包的部件结构
func TestPPTXRenderStructure(t *testing.T) {
	r := NewPPTXRenderer(DefaultStyle())
	data, err := r.Render(samplePresentation())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	parts := unzipParts(t, data)

	required := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideMasters/_rels/slideMaster1.xml.rels",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/slide3.xml",
		"ppt/slides/_rels/slide1.xml.rels",
	}
	for _, name := range required {
		assert.Contains(t, parts, name, "缺少必需的部件: %s", name)
	}

	// 标题页 + 两页内容页，不应有多余的幻灯片
	assert.NotContains(t, parts, "ppt/slides/slide4.xml")

	// 页面尺寸为10x7.5英寸
	assert.Contains(t, parts["ppt/presentation.xml"], `<p:sldSz cx="9144000" cy="6858000"/>`)
	assert.Contains(t, parts["ppt/presentation.xml"], `<p:sldId id="256" r:id="rId2"/>`, "幻灯片ID应从256开始")

	// 内容类型清单应覆盖每页幻灯片
	for i := 1; i <= 3; i++ {
		assert.Contains(t, parts["[Content_Types].xml"], fmt.Sprintf("/ppt/slides/slide%d.xml", i))
	}
}

// TestPPTXTitleSlide 测试标题页的渲染
func TestPPTXTitleSlide(t *testing.T) {
	style := DefaultStyle()
	r := NewPPTXRenderer(style)

	t.Run("with subtitle", func(t *testing.T) {
		data, err := r.Render(samplePresentation())
		require.NoError(t, err)

		slide1 := unzipParts(t, data)["ppt/slides/slide1.xml"]
		assert.Contains(t, slide1, "Практическая работа 1", "标题页应包含演示文稿标题")
		assert.Contains(t, slide1, "Уровень: Базовый | Модуль 2. Циклы", "副标题应由级别和模块拼接")
		assert.Contains(t, slide1, `sz="2800" b="1"`, "主标题应为28磅加粗")
		assert.Contains(t, slide1, `val="1F497D"`, "主标题应使用深蓝色")
		assert.Contains(t, slide1, `sz="2000"`, "副标题应为20磅")
		assert.Contains(t, slide1, `val="4472C4"`, "副标题应使用蓝色")
		assert.Contains(t, slide1, `typeface="Calibri"`)
	})

	t.Run("without subtitle", func(t *testing.T) {
		p := &deck.Presentation{Title: "Практическая работа 2"}
		data, err := r.Render(p)
		require.NoError(t, err)

		slide1 := unzipParts(t, data)["ppt/slides/slide1.xml"]
		assert.NotContains(t, slide1, "Subtitle 2", "级别和模块都为空时不应有副标题文本框")
	})
}

// TestPPTXContentSlide 测试内容页的渲染
func TestPPTXContentSlide(t *testing.T) {
	r := NewPPTXRenderer(DefaultStyle())
	data, err := r.Render(samplePresentation())
	require.NoError(t, err)

	// slide1是标题页，slide2是第一页内容页
	slide2 := unzipParts(t, data)["ppt/slides/slide2.xml"]

	t.Run("heading", func(t *testing.T) {
		assert.Contains(t, slide2, "Введение")
		assert.Contains(t, slide2, `sz="2000" b="1"`, "内容页标题沿用副标题字号并加粗")
	})

	t.Run("emphasized paragraph", func(t *testing.T) {
		assert.Contains(t, slide2, "Цель: изучить тему")
		assert.Contains(t, slide2, `sz="1400" b="1"`, "命中关键词的正文行应加粗")
	})

	t.Run("bullet glyph", func(t *testing.T) {
		assert.Contains(t, slide2, "• пункт один", "列表项应带手工项目符号")
		assert.Contains(t, slide2, "<a:buNone/>", "原生自动编号应关闭")
		assert.NotContains(t, slide2, "- пункт один", "原始的\"- \"前缀不应出现")
	})

	t.Run("code block", func(t *testing.T) {
		assert.Contains(t, slide2, "print(1)")
		assert.Contains(t, slide2, "print(2)")
		assert.Contains(t, slide2, `typeface="Consolas"`, "代码应使用等宽字体")
		assert.Contains(t, slide2, `val="006400"`, "代码应使用绿色")
		assert.Contains(t, slide2, `sz="1200"`, "代码应为12磅")
		assert.Contains(t, slide2, "<a:br/>", "多行代码应在同一段落中用换行元素分隔")
	})

	t.Run("geometry", func(t *testing.T) {
		assert.Contains(t, slide2, `<a:off x="457200" y="457200"/>`, "标题文本框应位于(0.5,0.5)英寸")
		assert.Contains(t, slide2, `<a:off x="457200" y="1371600"/>`, "正文文本框应位于(0.5,1.5)英寸")
		assert.Contains(t, slide2, `<a:ext cx="8229600" cy="5029200"/>`, "正文文本框尺寸应为9x5.5英寸")
	})
}

// TestPPTXEmptyContentSlide 测试空内容页仍然合法
func TestPPTXEmptyContentSlide(t *testing.T) {
	r := NewPPTXRenderer(DefaultStyle())
	data, err := r.Render(samplePresentation())
	require.NoError(t, err)

	slide3 := unzipParts(t, data)["ppt/slides/slide3.xml"]
	assert.Contains(t, slide3, "Пустой слайд")
	assert.Contains(t, slide3, "<a:p/>", "空正文应保留一个空段落")
}

// TestPPTXEmptyCodeBlockSkipped 测试空代码块在渲染时被跳过
func TestPPTXEmptyCodeBlockSkipped(t *testing.T) {
	p := &deck.Presentation{
		Title: "Практическая работа 3",
		Slides: []deck.Slide{
			{Title: "Код", Content: []deck.ContentLine{deck.Code(nil)}},
		},
	}

	r := NewPPTXRenderer(DefaultStyle())
	data, err := r.Render(p)
	require.NoError(t, err)

	slide2 := unzipParts(t, data)["ppt/slides/slide2.xml"]
	assert.NotContains(t, slide2, "Consolas", "空代码块不应产生代码段落")
	assert.Contains(t, slide2, "<a:p/>", "正文应退化为一个空段落")
}

// TestPPTXEscaping 测试XML特殊字符的转义
func TestPPTXEscaping(t *testing.T) {
	p := &deck.Presentation{
		Title: `Тема <1> & "кавычки"`,
		Slides: []deck.Slide{
			{
				Title: "Сравнения",
				Content: []deck.ContentLine{
					deck.Paragraph("x < y && y > z"),
					deck.Code([]string{`if a < b && c > d {`}),
				},
			},
		},
	}

	r := NewPPTXRenderer(DefaultStyle())
	data, err := r.Render(p)
	require.NoError(t, err)

	parts := unzipParts(t, data)
	slide1 := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, slide1, "Тема &lt;1&gt; &amp; &quot;кавычки&quot;")
	assert.NotContains(t, slide1, `Тема <1>`, "未转义的特殊字符不应出现")

	slide2 := parts["ppt/slides/slide2.xml"]
	assert.Contains(t, slide2, "x &lt; y &amp;&amp; y &gt; z")
	assert.Contains(t, slide2, "if a &lt; b &amp;&amp; c &gt; d {")

	// 核心属性中的标题同样需要转义
	assert.Contains(t, parts["docProps/core.xml"], "Тема &lt;1&gt; &amp; &quot;кавычки&quot;")
}

// TestPPTXCustomStyle 测试自定义样式生效
func TestPPTXCustomStyle(t *testing.T) {
	style := DefaultStyle()
	style.ContentFontSize = 18
	style.TextFont = "Arial"
	style.BulletGlyph = "- "

	p := &deck.Presentation{
		Title: "Практическая работа 4",
		Slides: []deck.Slide{
			{Title: "Слайд", Content: []deck.ContentLine{deck.Bullet("пункт")}},
		},
	}

	r := NewPPTXRenderer(style)
	data, err := r.Render(p)
	require.NoError(t, err)

	slide2 := unzipParts(t, data)["ppt/slides/slide2.xml"]
	assert.Contains(t, slide2, `sz="1800"`)
	assert.Contains(t, slide2, `typeface="Arial"`)
	assert.Contains(t, slide2, "- пункт")
}

// TestNewRenderer 测试渲染器工厂函数
func TestNewRenderer(t *testing.T) {
	cases := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{"pptx", "pptx", "pptx", false},
		{"pdf", "pdf", "pdf", false},
		{"default is pptx", "", "pptx", false},
		{"dotted format", ".pptx", "pptx", false},
		{"uppercase", "PPTX", "pptx", false},
		{"unknown format", "docx", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRenderer(tc.format, DefaultStyle())
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExt, r.Ext())
		})
	}
}

// TestRGBHex 测试颜色值的十六进制表示
func TestRGBHex(t *testing.T) {
	assert.Equal(t, "1F497D", RGB{31, 73, 125}.Hex())
	assert.Equal(t, "006400", RGB{0, 100, 0}.Hex())
	assert.Equal(t, "FFFFFF", RGB{255, 255, 255}.Hex())
}

// TestPPTXDeterministic 测试渲染结果的XML部件内容稳定
func TestPPTXDeterministic(t *testing.T) {
	r := NewPPTXRenderer(DefaultStyle())
	p := samplePresentation()

	first, err := r.Render(p)
	require.NoError(t, err)
	second, err := r.Render(p)
	require.NoError(t, err)

	firstParts := unzipParts(t, first)
	secondParts := unzipParts(t, second)
	require.Equal(t, len(firstParts), len(secondParts))
	for name, content := range firstParts {
		assert.Equal(t, content, secondParts[name], "部件 %s 的内容应保持稳定", name)
	}
}

// TestPPTXManySlides 测试大量幻灯片时的编号连续性
func TestPPTXManySlides(t *testing.T) {
	p := &deck.Presentation{Title: "Практическая работа 5"}
	for i := 1; i <= 12; i++ {
		p.Slides = append(p.Slides, deck.Slide{
			Title:   fmt.Sprintf("Слайд %d", i),
			Content: []deck.ContentLine{deck.Paragraph(fmt.Sprintf("текст %d", i))},
		})
	}

	r := NewPPTXRenderer(DefaultStyle())
	data, err := r.Render(p)
	require.NoError(t, err)

	parts := unzipParts(t, data)
	for i := 1; i <= 13; i++ {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i)
		assert.Contains(t, parts, name)
	}

	rels := parts["ppt/_rels/presentation.xml.rels"]
	assert.Equal(t, 13, strings.Count(rels, `Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"`), "演示文稿关系文件应引用全部幻灯片")
}
