package persist

import (
	"fmt"
	"os"
)

// DefaultPerm is handed to open(2); the process umask still applies.
const DefaultPerm os.FileMode = 0666

// FileWriter stores each piece in its own file, creating it or truncating
// whatever was there before.
type FileWriter struct {
	Perm os.FileMode
}

func NewFileWriter() *FileWriter {
	return &FileWriter{Perm: DefaultPerm}
}

func (w *FileWriter) WriteFile(name string, data []byte) (err error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, w.Perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close '%s': %w", name, closeErr)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	return nil
}
