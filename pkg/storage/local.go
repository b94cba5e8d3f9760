package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// errStopWalk 提前结束目录遍历的信号，不是真正的错误
var errStopWalk = errors.New("stop walk")

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	// 确保路径是绝对路径
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// Save 保存文件到本地存储
// 文件按年/月/日目录组织，文件名使用生成的唯一标识符
func (s *LocalStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)

	now := time.Now()
	datePath := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"))
	relPath := filepath.Join(datePath, id+ext)

	size, err := s.writeFile(relPath, reader)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     size,
		MimeType: getMimeType(filename),
		Path:     relPath,
	}, nil
}

// SaveAs 以指定的相对路径保存文件
// 已存在的文件会被覆盖
func (s *LocalStorage) SaveAs(reader io.Reader, relPath string) (FileInfo, error) {
	cleanPath, err := normalizeRelPath(relPath)
	if err != nil {
		return FileInfo{}, err
	}

	size, err := s.writeFile(cleanPath, reader)
	if err != nil {
		return FileInfo{}, err
	}

	fileName := filepath.Base(cleanPath)

	return FileInfo{
		ID:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		Name:     fileName,
		Size:     size,
		MimeType: getMimeType(fileName),
		Path:     cleanPath,
	}, nil
}

// writeFile 将内容写入基础路径下的相对路径，返回写入字节数
func (s *LocalStorage) writeFile(relPath string, reader io.Reader) (int64, error) {
	filePath := filepath.Join(s.basePath, relPath)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %v", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %v", err)
	}

	return size, nil
}

// Get 获取文件内容
func (s *LocalStorage) Get(id string) (io.ReadCloser, error) {
	filePath, err := s.locateByID(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}

	return file, nil
}

// GetByPath 根据存储路径获取文件内容
func (s *LocalStorage) GetByPath(relPath string) (io.ReadCloser, error) {
	cleanPath, err := normalizeRelPath(relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, relPath)
		}
		return nil, fmt.Errorf("failed to open file: %v", err)
	}

	return file, nil
}

// Delete 删除文件
func (s *LocalStorage) Delete(id string) error {
	filePath, err := s.locateByID(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}

	return nil
}

// DeleteByPath 根据存储路径删除文件
func (s *LocalStorage) DeleteByPath(relPath string) error {
	cleanPath, err := normalizeRelPath(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.basePath, cleanPath)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, relPath)
		}
		return fmt.Errorf("failed to delete file: %v", err)
	}

	return nil
}

// List 列出所有文件
func (s *LocalStorage) List() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		// 文件名去掉扩展名即为ID
		fileName := d.Name()
		files = append(files, FileInfo{
			ID:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
			Name:     fileName,
			Size:     info.Size(),
			MimeType: getMimeType(fileName),
			Path:     relPath,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}

	return files, nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(id string) (bool, error) {
	_, err := s.locateByID(id)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// locateByID 遍历存储目录查找指定ID的文件
func (s *LocalStorage) locateByID(id string) (string, error) {
	var filePath string

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		fileName := d.Name()
		if strings.TrimSuffix(fileName, filepath.Ext(fileName)) == id {
			filePath = path
			return errStopWalk
		}
		return nil
	})

	if err != nil && !errors.Is(err, errStopWalk) {
		return "", fmt.Errorf("error searching for file: %v", err)
	}

	if filePath == "" {
		return "", fmt.Errorf("%w: id %s", ErrFileNotFound, id)
	}

	return filePath, nil
}

// normalizeRelPath 规范化相对路径，拒绝越出存储根目录的路径
func normalizeRelPath(relPath string) (string, error) {
	cleanPath := filepath.Clean(relPath)
	if cleanPath == "." || cleanPath == ".." ||
		strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("invalid storage path: %s", relPath)
	}
	return cleanPath, nil
}

// getMimeType 简单根据文件扩展名判断MIME类型
func getMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}
