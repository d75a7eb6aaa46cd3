package llm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWords(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want []string
	}{
		{"flat array", `["alpha", "beta", 3, "alpha"]`, []string{"alpha", "beta"}},
		{"suggestions field", `{"suggestions": ["one", "two"]}`, []string{"one", "two"}},
		{"words field", `{"words": ["w"]}`, []string{"w"}},
		{"completions field", `{"completions": ["c"]}`, []string{"c"}},
		{"data field", `{"data": ["d"]}`, []string{"d"}},
		{
			"fenced json in chat content",
			`{"choices":[{"message":{"content":"` + "```json\\n[\\\"alpha\\\",\\\"beta\\\"]\\n```" + `"}}]}`,
			[]string{"alpha", "beta"},
		},
		{
			"raw json in chat content",
			`{"choices":[{"message":{"content":"{\"words\": [\"gamma\"]}"}}]}`,
			[]string{"gamma"},
		},
		{
			"bulleted lines",
			`{"choices":[{"message":{"content":"1. first\n2) second\n- third\n* \"fourth\",\n\n• fifth"}}]}`,
			[]string{"first", "second", "third", "fourth", "fifth"},
		},
		{"legacy text choice", `{"choices":[{"text":"delta\nepsilon"}]}`, []string{"delta", "epsilon"}},
		{"unknown object", `{"result": "nope"}`, nil},
		{"not json", `hello world`, nil},
		{"empty", ``, nil},
		{"scalar", `42`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseWords([]byte(tc.body)))
		})
	}
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, DefaultModel, resolveModel("https://api.openai.com/v1/chat/completions", ""))
	assert.Equal(t, DefaultModel, resolveModel("http://localhost:8080/v1/chat/completions/", " "))
	assert.Equal(t, "llama3", resolveModel("https://api.openai.com/v1/chat/completions", "llama3"))
	assert.Empty(t, resolveModel("http://localhost:9000/suggest", ""))
}

func TestResolveTemperature(t *testing.T) {
	assert.Equal(t, DefaultTemperature, resolveTemperature(math.NaN()))
	assert.Equal(t, 0.0, resolveTemperature(-1))
	assert.Equal(t, MaxTemperature, resolveTemperature(3.5))
	assert.Equal(t, 1.2, resolveTemperature(1.2))
}

func TestTailRunes(t *testing.T) {
	assert.Equal(t, "short", tailRunes("short", 10))
	assert.Equal(t, "äöü", tailRunes("abcäöü", 3))
	assert.Equal(t, "", tailRunes("abc", 0))
}

func TestToSuggestionsFiltersByQuery(t *testing.T) {
	got := toSuggestions([]string{"Café", "cafeteria", "caf", "tea", "cafes"}, "caf", 2)
	assert.Equal(t, []string{"Café", "cafeteria"}, namesOf(got))

	got = toSuggestions([]string{"next", "words"}, "", 0)
	assert.Equal(t, []string{"next", "words"}, namesOf(got))
}
