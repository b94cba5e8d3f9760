package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContentLineConstructors 测试内容行构造函数
func TestContentLineConstructors(t *testing.T) {
	t.Run("paragraph", func(t *testing.T) {
		line := Paragraph("Цель: изучить тему")
		assert.Equal(t, KindParagraph, line.Kind)
		assert.Equal(t, "Цель: изучить тему", line.Text)
		assert.Empty(t, line.Lines)
	})

	t.Run("bullet", func(t *testing.T) {
		line := Bullet("пункт один")
		assert.Equal(t, KindBullet, line.Kind)
		assert.Equal(t, "пункт один", line.Text, "列表项文本不应包含前缀")
	})

	t.Run("code", func(t *testing.T) {
		line := Code([]string{"print(1)", "print(2)"})
		assert.Equal(t, KindCode, line.Kind)
		assert.Equal(t, "print(1)\nprint(2)", line.CodeText(), "代码行应按原始顺序用换行符拼接")
	})

	t.Run("code text on non-code line", func(t *testing.T) {
		line := Paragraph("обычный текст")
		assert.Equal(t, "", line.CodeText(), "非代码类型应返回空字符串")
	})

	t.Run("empty code block", func(t *testing.T) {
		line := Code(nil)
		assert.Equal(t, KindCode, line.Kind)
		assert.Equal(t, "", line.CodeText())
	})
}

// TestShouldEmphasize 测试强调关键词匹配规则
func TestShouldEmphasize(t *testing.T) {
	cases := []struct {
		name string
		line string
		want bool
	}{
		{"goal keyword", "Цель: изучить тему", true},
		{"tasks keyword", "Задачи: выполнить упражнения", true},
		{"example keyword", "Пример использования цикла", true},
		{"assignment keyword", "Задание для самостоятельной работы", true},
		{"step keyword", "Шаг 1: установка", true},
		{"keyword in the middle", "Рассмотрим Пример из лекции", true},
		{"plain text", "обычная строка без ключевых слов", false},
		{"case sensitive", "цель: изучить тему", false},
		{"empty line", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldEmphasize(tc.line), "关键词匹配结果不符合预期: %q", tc.line)
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		// 纯函数：重复计算结果必须一致
		line := "Цель: изучить тему"
		first := ShouldEmphasize(line)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, ShouldEmphasize(line), "重复分类同一文本应得到相同结果")
		}
	})

	t.Run("custom keyword table", func(t *testing.T) {
		keywords := EmphasisKeywords{"Goal:", "Step"}
		assert.True(t, keywords.Match("Goal: learn the topic"))
		assert.True(t, keywords.Match("Step 1: install"))
		assert.False(t, keywords.Match("Цель: изучить тему"), "自定义关键词表不应匹配默认关键词")
	})
}

// TestSubtitle 测试副标题拼接规则
func TestSubtitle(t *testing.T) {
	t.Run("level and module", func(t *testing.T) {
		p := Presentation{Level: "Базовый", Module: "Модуль 2. Циклы"}
		assert.Equal(t, "Уровень: Базовый | Модуль 2. Циклы", p.Subtitle())
	})

	t.Run("level only", func(t *testing.T) {
		p := Presentation{Level: "Базовый"}
		assert.Equal(t, "Уровень: Базовый", p.Subtitle())
	})

	t.Run("module only", func(t *testing.T) {
		p := Presentation{Module: "Модуль 1. Введение"}
		assert.Equal(t, "Модуль 1. Введение", p.Subtitle())
	})

	t.Run("empty", func(t *testing.T) {
		p := Presentation{}
		assert.Equal(t, "", p.Subtitle(), "级别和模块都为空时副标题应为空")
	})
}

// TestSlugify 测试标题转slug规则
func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"russian title", "Практическая работа 1", "Практическая_работа_1"},
		{"punctuation stripped", "Тема: введение в Python!", "Тема_введение_в_Python"},
		{"hyphen runs collapse", "интернет - магазин", "интернет_магазин"},
		{"mixed whitespace", "a \t b", "a_b"},
		{"no trailing underscore", "Тема :", "Тема"},
		{"keeps underscores", "уже_готовый_slug", "уже_готовый_slug"},
		{"keeps case", "Python И SQL", "Python_И_SQL"},
		{"empty title", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.title))
		})
	}
}

// TestArtifactFileName 测试产物文件名生成
func TestArtifactFileName(t *testing.T) {
	t.Run("two digit index", func(t *testing.T) {
		name := ArtifactFileName(1, "Практическая работа 1", "pptx")
		assert.Equal(t, "presentation_01_Практическая_работа_1.pptx", name)
	})

	t.Run("index above nine", func(t *testing.T) {
		name := ArtifactFileName(12, "Тема", "pptx")
		assert.Equal(t, "presentation_12_Тема.pptx", name)
	})

	t.Run("dotted extension", func(t *testing.T) {
		name := ArtifactFileName(2, "Тема", ".pdf")
		assert.Equal(t, "presentation_02_Тема.pdf", name, "扩展名带点时不应重复点号")
	})

	t.Run("empty title", func(t *testing.T) {
		name := ArtifactFileName(3, "", "pptx")
		assert.Equal(t, "presentation_03_.pptx", name)
	})
}
