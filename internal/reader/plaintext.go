package reader

import (
	"fmt"
	"io"
	"os"
)

// PlainTextReader 纯文本读取器
type PlainTextReader struct{}

// NewPlainTextReader 创建一个新的纯文本读取器
func NewPlainTextReader() Reader {
	return &PlainTextReader{}
}

// ReadText 读取纯文本文件
func (p *PlainTextReader) ReadText(path string) (string, error) {
	// 打开文件
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open text file: %v", err)
	}
	defer file.Close()

	return p.ReadFrom(file)
}

// ReadFrom 从Reader读取纯文本内容
func (p *PlainTextReader) ReadFrom(r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text content: %v", err)
	}

	return string(content), nil
}
