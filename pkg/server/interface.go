/*
Package server implements msgpack IPC so a host editor can drive typr.

Requests arrive as a stream of msgpack maps on stdin and every request gets
exactly one msgpack map back on stdout. Logs go to stderr. Completions run
concurrently, so their replies may come back out of order and must be matched
by "id". Every other action waits for the completions sent before it and is
answered in arrival order. Each response carries timing info.

# IPC

Each message carries an "id" echoed in the reply and an action "a".
Completion is the default action:

	{"id": "req_001", "a": "complete", "text": "the wor", "tr": "auto"}

"ln" and "ch" place the cursor; without them it sits at the end of "text".
The reply lists the merged suggestions in display order:

	{"id": "req_001", "s": [{"d": "word", "r": "word", "k": 1}, {"d": "work", "r": "work", "k": 2}], "c": 2, "st": {"ln": 0, "ch": 4}, "t": 145}

"st" is where replacement starts. It differs from the start of the typed
word when a blocking provider matched a wider span, e.g. a callout header.

The blacklist can be edited at runtime and is saved right away:

	{"id": "bl_001", "a": "blacklist_add", "w": "teh"}
	{"id": "bl_002", "a": "blacklist_remove", "w": "teh"}

and "health" reports what is loaded:

	{"id": "h_001", "a": "health"}

Failures come back as {"id", "e", "c"} with an HTTP-like code.

msgpack encoding has ~30 to 50% smaller message sizes compared to JSON.
*/
package server

import "github.com/bastiangx/typr/pkg/suggest"

const (
	ActionComplete        = "complete"
	ActionBlacklistAdd    = "blacklist_add"
	ActionBlacklistRemove = "blacklist_remove"
	ActionHealth          = "health"
)

// Request is the single inbound message shape. Fields unused by an action are ignored.
type Request struct {
	ID      string `msgpack:"id"`
	Action  string `msgpack:"a,omitempty"`
	Text    string `msgpack:"text,omitempty"`
	Line    *int   `msgpack:"ln,omitempty"`
	Ch      *int   `msgpack:"ch,omitempty"`
	Trigger string `msgpack:"tr,omitempty"`
	Word    string `msgpack:"w,omitempty"`
	Limit   int    `msgpack:"l,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Display     string `msgpack:"d"`
	Replacement string `msgpack:"r"`
	Rank        uint16 `msgpack:"k"`
	Color       string `msgpack:"c,omitempty"`
	Icon        string `msgpack:"i,omitempty"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	Start       suggest.Position       `msgpack:"st"`
	End         suggest.Position       `msgpack:"en"`
	BlockedBy   string                 `msgpack:"b,omitempty"`
	Filtered    int                    `msgpack:"f,omitempty"`
	TimeTaken   int64                  `msgpack:"t"`
}

// BlacklistResponse - blacklist operation response
type BlacklistResponse struct {
	ID      string `msgpack:"id"`
	Status  string `msgpack:"status"`
	Changed bool   `msgpack:"changed"`
	Count   int    `msgpack:"count"`
}

// HealthResponse - health check response
type HealthResponse struct {
	ID          string   `msgpack:"id"`
	Status      string   `msgpack:"status"`
	Providers   []string `msgpack:"providers"`
	Blacklisted int      `msgpack:"blacklisted"`
	Requests    int64    `msgpack:"requests"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
