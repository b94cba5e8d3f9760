package deck

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// 匹配既不是字母数字下划线也不是空白或连字符的字符
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	// 匹配连续的空白或连字符
	collapseRe = regexp.MustCompile(`[-\s]+`)
)

// Slugify 把演示文稿标题转换为文件名安全的 slug
// 先去掉所有非单词字符（字母、数字、下划线、空白和连字符以外的字符），
// 去掉首尾空白后再把连续的空白或连字符折叠为单个下划线；不做大小写转换
func Slugify(title string) string {
	s := nonWordRe.ReplaceAllString(title, "")
	s = strings.TrimSpace(s)
	return collapseRe.ReplaceAllString(s, "_")
}

// ArtifactFileName 生成产物文件名
// 格式为 presentation_<2位序号>_<slug>.<扩展名>，序号从1开始
func ArtifactFileName(index int, title, ext string) string {
	return fmt.Sprintf("presentation_%02d_%s.%s", index, Slugify(title), strings.TrimPrefix(ext, "."))
}
