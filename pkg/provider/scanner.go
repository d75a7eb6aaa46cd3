package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/dictionary"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/charmbracelet/log"
)

// scanExtensions are the files ScanDir reads.
var scanExtensions = map[string]bool{".md": true, ".markdown": true, ".txt": true}

// FileScanner suggests words that appear in scanned documents.
type FileScanner struct {
	engine *dictionary.Engine

	mu      sync.Mutex
	pattern string
	tokenRe *regexp.Regexp
}

func NewFileScanner() *FileScanner {
	return &FileScanner{engine: dictionary.NewEngine()}
}

func (s *FileScanner) Name() string                  { return "file_scanner" }
func (s *FileScanner) BlocksAllOtherProviders() bool { return false }

// Engine exposes the underlying dictionary.
func (s *FileScanner) Engine() *dictionary.Engine { return s.engine }

func (s *FileScanner) Suggestions(_ context.Context, sc *suggest.Context, settings *config.Config) suggest.Result {
	if !settings.Providers.FileScanner {
		return suggest.Empty()
	}
	return suggest.Ready(s.engine.Query(sc.Query, dictionary.OptionsFromConfig(settings)))
}

// ScanText indexes the words of text and returns how many were new.
func (s *FileScanner) ScanText(text string, settings *config.Config) (int, error) {
	re, err := s.tokenizer(settings.Trigger.CharacterRegex)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, tok := range re.FindAllString(text, -1) {
		if utils.IsIndexable(tok, settings.Trigger.MinWordLength) && s.engine.AddWord(tok) {
			added++
		}
	}
	return added, nil
}

// ScanFile indexes one document.
func (s *FileScanner) ScanFile(path string, settings *config.Config) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return s.ScanText(string(data), settings)
}

// ScanDir indexes every markdown or text file below dir and calls visit with
// each file's contents, if visit is not nil. Unreadable files are skipped.
func (s *FileScanner) ScanDir(dir string, settings *config.Config, visit func(path, text string)) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !scanExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		n, err := s.ScanText(string(data), settings)
		if err != nil {
			return err
		}
		total += n
		if visit != nil {
			visit(path, string(data))
		}
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("scan %s: %w", dir, err)
	}
	log.Debugf("Scanned %s: %d new words", dir, total)
	return total, nil
}

// tokenizer compiles the word pattern for charClass, reusing the last one.
func (s *FileScanner) tokenizer(charClass string) (*regexp.Regexp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokenRe != nil && s.pattern == charClass {
		return s.tokenRe, nil
	}
	re, err := regexp.Compile("[" + charClass + "]+")
	if err != nil {
		return nil, fmt.Errorf("invalid character_regex %q: %w", charClass, err)
	}
	s.pattern, s.tokenRe = charClass, re
	return re, nil
}
