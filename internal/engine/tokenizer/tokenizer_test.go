package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Space War", []string{"space", "war"}},
		{"punctuation runs", "sci-fi...action!!", []string{"sci", "fi", "action"}},
		{"digits kept", "blade runner 2049", []string{"blade", "runner", "2049"}},
		{"empty", "", nil},
		{"only separators", "--- !!! ...", []string{}},
		{"mixed case", "LoVe StOrY", []string{"love", "story"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeFiltered(t *testing.T) {
	got := TokenizeFiltered("a war in space")
	want := []string{"war", "space"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokenizeFiltered = %v, want %v", got, want)
	}
}

func TestTokenizeFilteredAllStopWords(t *testing.T) {
	got := TokenizeFiltered("the and of in")
	if len(got) != 0 {
		t.Errorf("expected no terms, got %v", got)
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	text := "Love, war & robots: a space-romance in Paris (2049)"
	first := TokenizeFiltered(text)
	for i := 0; i < 10; i++ {
		if got := TokenizeFiltered(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("tokenization not deterministic: %v vs %v", got, first)
		}
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("the") {
		t.Error("expected 'the' to be a stop word")
	}
	if IsStopWord("space") {
		t.Error("did not expect 'space' to be a stop word")
	}
}
