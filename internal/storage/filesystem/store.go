package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store 附件落盘存储
//
// 文件按附件原始名称写入目标目录，重名直接覆盖
type Store struct {
	basePath string // 附件存储根目录
}

// NewStore 创建文件系统存储实例
func NewStore(basePath string) (*Store, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("attachment base path must not be empty")
	}

	normalized := filepath.Clean(basePath)

	// 确保基础目录存在
	if err := os.MkdirAll(normalized, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{basePath: normalized}, nil
}

// BasePath 返回附件存储根目录
func (s *Store) BasePath() string {
	return s.basePath
}

// EnsureDir 确保 basePath 下的子目录存在，返回绝对目录路径
//
// MkdirAll 幂等，目录已存在时不报错
func (s *Store) EnsureDir(subdir string) (string, error) {
	dir := s.basePath
	if subdir != "" {
		dir = filepath.Join(s.basePath, sanitizeName(subdir))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	return dir, nil
}

// WriteAttachment 将附件内容写入目录下的指定文件名
//
// 文件名只取基名，丢弃任何路径分量；已存在的同名文件被整体覆盖
func (s *Store) WriteAttachment(dir, filename string, content []byte) (string, error) {
	name := sanitizeName(filename)
	if name == "" {
		return "", fmt.Errorf("attachment filename must not be empty")
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write attachment %s: %w", name, err)
	}

	return path, nil
}

// sanitizeName 清理文件名中的路径分量，防止目录穿越
func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

// Close 关闭存储（文件系统实现为空操作）
func (s *Store) Close() error {
	return nil
}

// Health 检查存储根目录可用性
func (s *Store) Health() error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("attachment directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("attachment path is not a directory: %s", s.basePath)
	}
	return nil
}
