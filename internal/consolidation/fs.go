package consolidation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func ensureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeBytesAtomic grava em path+".tmp" e renomeia; o arquivo de destino nunca
// fica truncado ou parcialmente escrito.
func writeBytesAtomic(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := osWriteFile(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := osRename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

var (
	osWriteFile = writeFileSync
	osRename    = func(old string, new string) error { return os.Rename(old, new) }
)

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// uniquePath evita sobrescrever um backup existente criado no mesmo segundo
func uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if !fileExists(path) {
		return path
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !fileExists(path) {
			return path
		}
	}
}
