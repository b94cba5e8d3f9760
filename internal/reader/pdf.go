package reader

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFReader PDF输入读取器
// 仅支持文本型PDF，扫描件不在处理范围内
type PDFReader struct{}

// NewPDFReader 创建一个新的PDF读取器
func NewPDFReader() Reader {
	return &PDFReader{}
}

// ReadText 读取PDF文件并提取其文本内容
func (p *PDFReader) ReadText(path string) (string, error) {
	// 创建临时目录用于存放提取的文本
	tmpDir, err := ioutil.TempDir("", "slidegen_extract_")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// 使用默认配置
	conf := model.NewDefaultConfiguration()

	// 提取文本到临时目录
	if err := api.ExtractContentFile(path, tmpDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %v", err)
	}

	// 读取所有提取出来的txt文件
	files, err := ioutil.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text dir: %v", err)
	}

	// 按文件名排序（页码顺序）
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	var allText strings.Builder
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmpDir, f.Name()))
		if err != nil {
			continue
		}
		if allText.Len() > 0 {
			allText.WriteString("\n\n")
		}
		allText.WriteString(string(data))
	}

	result := strings.TrimSpace(allText.String())
	if result == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return result, nil
}

// ReadFrom 从Reader读取PDF内容
// pdfcpu的内容提取基于文件路径，先落盘到临时文件
func (p *PDFReader) ReadFrom(r io.Reader) (string, error) {
	tmpFile, err := ioutil.TempFile("", "slidegen_input_*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to buffer pdf content: %v", err)
	}
	tmpFile.Close()

	return p.ReadText(tmpFile.Name())
}
