package reader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownReader Markdown输入读取器
// 将Markdown结构还原为逐行的标记文本：围栏代码块映射为代码标记对，
// 列表项映射为"- "前缀，块与块之间以空行分隔
type MarkdownReader struct{}

// NewMarkdownReader 创建新的Markdown读取器
func NewMarkdownReader() Reader {
	return &MarkdownReader{}
}

// ReadText 读取Markdown文件
func (p *MarkdownReader) ReadText(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open markdown file: %v", err)
	}
	defer file.Close()

	return p.ReadFrom(file)
}

// ReadFrom 从Reader读取Markdown内容
func (p *MarkdownReader) ReadFrom(r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown content: %v", err)
	}

	// 创建Markdown解析器
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	// 解析为AST后逐块展开
	doc := mdParser.Parse(content)

	return flattenMarkdown(doc), nil
}

// flattenMarkdown 遍历AST，按块输出标记文本
// 行结构必须保留：后续的标记解析按行匹配
func flattenMarkdown(doc ast.Node) string {
	var b strings.Builder

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.CodeBlock:
			if entering {
				// 围栏代码块映射为代码标记对
				b.WriteString("[CODE_BLOCK]\n")
				code := strings.TrimRight(string(n.Literal), "\n")
				if code != "" {
					b.WriteString(code)
					b.WriteString("\n")
				}
				b.WriteString("[/CODE_BLOCK]\n\n")
			}
			return ast.GoToNext
		case *ast.ListItem:
			if entering {
				b.WriteString("- ")
			}
		case *ast.Paragraph:
			if !entering {
				// 列表项内的段落只结束当前行，块级段落后留空行
				if _, inList := n.GetParent().(*ast.ListItem); inList {
					b.WriteString("\n")
				} else {
					b.WriteString("\n\n")
				}
			}
		case *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}
		case *ast.List:
			if !entering {
				b.WriteString("\n")
			}
		case *ast.Text:
			if entering {
				b.Write(n.Literal)
			}
		case *ast.Code:
			if entering {
				b.Write(n.Literal)
			}
		case *ast.Softbreak, *ast.Hardbreak:
			if entering {
				b.WriteString("\n")
			}
		}
		return ast.GoToNext
	})

	return strings.TrimSpace(b.String())
}
