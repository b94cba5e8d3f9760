package deck

import "strings"

// EmphasisKeywords 强调关键词表
// 命中任一关键词的内容行在渲染时加粗显示
type EmphasisKeywords []string

// DefaultEmphasisKeywords 返回默认的强调关键词表
// 关键词匹配区分大小写，按子串匹配而非整词匹配
func DefaultEmphasisKeywords() EmphasisKeywords {
	return EmphasisKeywords{
		"Цель:",
		"Задачи:",
		"Пример",
		"Задание",
		"Шаг",
	}
}

// Match 判断文本是否包含任一关键词
func (k EmphasisKeywords) Match(line string) bool {
	for _, keyword := range k {
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}

// ShouldEmphasize 使用默认关键词表判断内容行是否需要强调
// 纯函数：相同输入永远得到相同结果，渲染各处都通过它重新计算强调标记
func ShouldEmphasize(line string) bool {
	return DefaultEmphasisKeywords().Match(line)
}
