package corpus

import (
	"errors"
	"os"
)

// ErrNotADirectory is returned when the target folder does not exist or is
// not a directory.
var ErrNotADirectory = errors.New("not a directory")

// ErrEmpty is returned when the target folder contains no ".txt" files.
var ErrEmpty = errors.New("no documents found")

func fsStat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
