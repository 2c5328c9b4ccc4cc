package capability

import (
	"io"
	"os"
	"path/filepath"
	"time"
)

// FS exposes the filesystem operations original_source/lib/LuaServer.cpp
// registers under fs_methods (ftype, modtime, readdir, is_readable,
// is_writeable, is_executable, exists, unlink, mkdir, rmdir, getcwd,
// chdir, copyfile, mvfile). Paths are used as given; sandboxing below a
// document root, if any, is the caller's responsibility.
type FS struct{}

func NewFS() *FS { return &FS{} }

// FType mirrors lua_fs_ftype: "file", "directory", "link", "other", or
// "" if the path does not exist.
func (FS) FType(path string) string {
	info, err := os.Lstat(path)
	if err != nil {
		return ""
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return "link"
	case info.IsDir():
		return "directory"
	case info.Mode().IsRegular():
		return "file"
	default:
		return "other"
	}
}

func (FS) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (FS) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (FS) IsReadable(path string) bool   { return accessCheck(path, 0o4) }
func (FS) IsWriteable(path string) bool  { return accessCheck(path, 0o2) }
func (FS) IsExecutable(path string) bool { return accessCheck(path, 0o1) }

func accessCheck(path string, bit os.FileMode) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	perm := info.Mode().Perm()
	return perm&bit != 0 || perm&(bit<<3) != 0 || perm&(bit<<6) != 0
}

func (FS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (FS) Unlink(path string) error { return os.Remove(path) }
func (FS) Mkdir(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
func (FS) Rmdir(path string) error { return os.Remove(path) }
func (FS) Getcwd() (string, error) { return os.Getwd() }
func (FS) Chdir(path string) error { return os.Chdir(path) }

func (FS) Copyfile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func (f FS) Mvfile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := f.Copyfile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyTmpfile copies an uploaded temp file to a permanent destination,
// the capability behind script.copyTmpfile — used by handlers that keep
// an upload beyond the request's Teardown.
func (f FS) CopyTmpfile(tmpPath, dst string) error { return f.Copyfile(tmpPath, dst) }
