package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyerfyer/slide-gen-system/internal/deck"
	"github.com/fyerfyer/slide-gen-system/internal/parser"
	"github.com/fyerfyer/slide-gen-system/internal/reader"
	"github.com/fyerfyer/slide-gen-system/internal/render"
	"github.com/joho/godotenv"
)

func main() {
	// 加载.env文件（如果存在）
	_ = godotenv.Load()

	// 解析命令行参数
	var (
		outputDir string
		format    string
		pdfFont   string
	)

	flag.StringVar(&outputDir, "output", "presentations", "Output directory for generated presentations")
	flag.StringVar(&outputDir, "o", "presentations", "Output directory (shorthand)")
	flag.StringVar(&format, "format", "pptx", "Output format (pptx or pdf)")
	flag.StringVar(&pdfFont, "pdf-font", "", "Path to a TTF font file for PDF output")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] <input_file>\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	inputPath := flag.Arg(0)

	// 读取输入文件
	content, err := readInput(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Printf("Ошибка: Файл %s не найден\n", inputPath)
		} else {
			fmt.Printf("Ошибка при чтении файла: %v\n", err)
		}
		return
	}

	// 解析标记文本
	presentations := parser.NewParser(parser.DefaultConfig()).Parse(content)

	// 创建渲染器
	style := render.DefaultStyle()
	style.PDFFontFile = pdfFont

	renderer, err := render.NewRenderer(format, style)
	if err != nil {
		fmt.Printf("Ошибка: неподдерживаемый формат %s\n", format)
		os.Exit(1)
	}

	// 创建输出目录
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Ошибка при создании директории: %v\n", err)
		os.Exit(1)
	}

	// 渲染每个演示文稿并写入文件
	var createdFiles []string
	for i, pres := range presentations {
		data, err := renderer.Render(&pres)
		if err != nil {
			fmt.Printf("Ошибка при создании презентации: %v\n", err)
			os.Exit(1)
		}

		fileName := deck.ArtifactFileName(i+1, pres.Title, renderer.Ext())
		outputPath := filepath.Join(outputDir, fileName)

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Printf("Ошибка при записи файла: %v\n", err)
			os.Exit(1)
		}

		createdFiles = append(createdFiles, outputPath)
		fmt.Printf("Создана презентация: %s\n", outputPath)
	}

	fmt.Printf("\nВсего создано презентаций: %d\n", len(createdFiles))
	for _, filePath := range createdFiles {
		fmt.Printf("  - %s\n", filePath)
	}
}

// readInput 读取输入文件的文本内容
// 已知的扩展名走对应的读取器，未知扩展名按纯文本处理
func readInput(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}

	r, err := reader.NewReader(path)
	if err != nil {
		if errors.Is(err, reader.ErrUnsupportedInput) {
			return reader.NewPlainTextReader().ReadText(path)
		}
		return "", err
	}

	return r.ReadText(path)
}
