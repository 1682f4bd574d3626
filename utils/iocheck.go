package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// CheckDirectory 确认输入目录存在
func CheckDirectory(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("directory %s does not exist", path)
	case err != nil:
		return fmt.Errorf("failed to stat %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// CheckFile 确认文件存在且可读
func CheckFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file %s does not exist", path)
	case err != nil:
		return fmt.Errorf("failed to stat %s: %w", path, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s is not a regular file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	return f.Close()
}

// CheckOutputDir 创建缺失的输出目录并确认可写
func CheckOutputDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("could not create output directory %s: %w", path, err)
	}
	if err := CheckDirectory(path); err != nil {
		return err
	}

	probe, err := os.CreateTemp(path, ".probe-")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", path, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}
