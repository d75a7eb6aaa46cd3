package dictionary

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bastiangx/typr/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// ReadWordList reads the words from a text or packed word list, keeping file order.
func ReadWordList(path string) ([]string, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatText:
		lines, err := utils.ReadLines(path)
		if err != nil {
			return nil, err
		}
		words := make([]string, 0, len(lines))
		for _, l := range lines {
			// tolerate "word<TAB>frequency" style lists
			if i := strings.IndexAny(l, " \t"); i > 0 {
				l = l[:i]
			}
			words = append(words, l)
		}
		return words, nil
	case FormatPacked:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var words []string
		if err := msgpack.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return words, nil
	}
	return nil, fmt.Errorf("unsupported format %v for %s", format, path)
}

// WritePackedWordList stores words as a msgpack array for faster startup.
func WritePackedWordList(path string, words []string) error {
	data, err := msgpack.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode word list: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadFile adds the words of a single list to the engine and returns how many were new.
func (e *Engine) LoadFile(path string) (int, error) {
	words, err := ReadWordList(path)
	if err != nil {
		return 0, err
	}
	added := e.AddWords(words)
	log.Debugf("Loaded %d words (%d new) from %s", len(words), added, path)
	return added, nil
}

// LoadFiles loads every list it can. Failures are collected, not fatal.
func (e *Engine) LoadFiles(paths []string) (int, error) {
	var errs []error
	total := 0
	for _, p := range paths {
		n, err := e.LoadFile(p)
		if err != nil {
			log.Warnf("Skipping word list %s: %v", p, err)
			errs = append(errs, err)
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}
