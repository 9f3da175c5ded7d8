// Package stopwords loads the stopword set consumed by internal/normalize.
package stopwords

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
)

// Load reads one stopword per line from path, trimming whitespace and
// lowercasing before inserting into the returned set. A missing file is
// logged as a warning and yields an empty set, not an error — the spec
// treats an absent stopword file as "no stopwords configured," never as a
// fatal condition.
func Load(path string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	if path == "" {
		return set, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Default().With("component", "stopwords").
				Warn("stopwords file not found, continuing with empty stopword set", "path", path)
			return set, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		set[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
