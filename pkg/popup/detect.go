// Package popup drives the suggestion popup: it decides when to query,
// holds the merged items and selection, and applies the accepted one.
package popup

import (
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/suggest"
)

var (
	patternMu sync.Mutex
	patterns  = map[string]*regexp.Regexp{}
)

func queryPattern(charClass string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patterns[charClass]; ok {
		return re, nil
	}
	re, err := regexp.Compile("[" + charClass + "]*$")
	if err != nil {
		return nil, fmt.Errorf("invalid character_regex %q: %w", charClass, err)
	}
	patterns[charClass] = re
	return re, nil
}

// Detect builds the query context at the editor cursor. The query is the
// run of trigger characters ending at the cursor, looking back at most
// max_look_back_distance runes; the separator is the rune just before it,
// or empty when the look-back limit cut the query short.
func Detect(ed suggest.Editor, settings *config.Config, source suggest.TriggerSource) (*suggest.Context, error) {
	re, err := queryPattern(settings.Trigger.CharacterRegex)
	if err != nil {
		return nil, err
	}
	end := ed.Cursor()
	line := []rune(ed.Range(suggest.Position{Line: end.Line}, end))

	from := 0
	if limit := settings.Trigger.MaxLookBackDistance; limit > 0 && len(line) > limit {
		from = len(line) - limit
	}
	window := string(line[from:])
	query := re.FindString(window)
	qlen := utf8.RuneCountInString(query)

	start := suggest.Position{Line: end.Line, Ch: end.Ch - qlen}
	sep := ""
	truncated := from > 0 && qlen == len(line)-from
	if i := len(line) - qlen - 1; i >= 0 && !truncated {
		sep = string(line[i])
	}
	return &suggest.Context{
		Editor:    ed,
		Start:     start,
		End:       end,
		Query:     query,
		Separator: sep,
		Trigger:   source,
	}, nil
}
