package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Staging 将一次运行的多个输出先写入目标目录下的临时文件
// Commit 时统一重命名到目标路径, Discard 删除临时文件和本次新建的目录
type Staging struct {
	files []stagedFile
}

type stagedFile struct {
	tmp     string
	target  string
	created []string // 本次新建的目录, 由深到浅
}

// Stage 调用 write 把内容写入 target 同目录下的临时文件
func (s *Staging) Stage(target string, write func(w io.Writer) error) error {
	dir := filepath.Dir(target)
	created := missingDirs(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFile, err)
	}
	sf := stagedFile{target: target, created: created}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		s.files = append(s.files, sf)
		return fmt.Errorf("%w: %v", ErrWriteFile, err)
	}
	sf.tmp = tmp.Name()
	s.files = append(s.files, sf)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFile, err)
	}
	return nil
}

// Commit 把所有临时文件重命名到目标路径
func (s *Staging) Commit() error {
	for i, sf := range s.files {
		if err := os.Rename(sf.tmp, sf.target); err != nil {
			s.files = s.files[i:]
			return fmt.Errorf("%w: %v", ErrWriteFile, err)
		}
	}
	s.files = nil
	return nil
}

// Discard 删除尚未提交的临时文件, 以及为它们新建的空目录
func (s *Staging) Discard() {
	for i := len(s.files) - 1; i >= 0; i-- {
		if s.files[i].tmp != "" {
			_ = os.Remove(s.files[i].tmp)
		}
	}
	for i := len(s.files) - 1; i >= 0; i-- {
		for _, d := range s.files[i].created {
			_ = os.Remove(d)
		}
	}
	s.files = nil
}

// missingDirs 返回 dir 及其上级中尚不存在的目录, 由深到浅
func missingDirs(dir string) []string {
	var out []string
	for d := dir; ; d = filepath.Dir(d) {
		_, err := os.Stat(d)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			break
		}
		out = append(out, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	return out
}
