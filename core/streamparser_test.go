package orchestration

import (
	"strings"
	"testing"
)

func feedAll(parser *StreamParser, fragments ...string) []SentenceUnit {
	var units []SentenceUnit
	for _, fragment := range fragments {
		units = append(units, parser.Feed(fragment)...)
	}
	return units
}

func TestFeedExtractsTaggedSentences(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("[happy]Hi there! [sad]I'm ")
	if len(units) != 1 {
		t.Fatalf("expected one completed sentence, got %d", len(units))
	}
	if units[0].Tag != "[happy]" || units[0].Text != "Hi there!" {
		t.Fatalf("expected ([happy], Hi there!), got (%s, %s)", units[0].Tag, units[0].Text)
	}

	units = parser.Feed("sorry.\n")
	if len(units) != 1 {
		t.Fatalf("expected one completed sentence, got %d", len(units))
	}
	if units[0].Tag != "[sad]" || units[0].Text != "I'm sorry." {
		t.Fatalf("expected ([sad], I'm sorry.), got (%s, %s)", units[0].Tag, units[0].Text)
	}
}

func TestFeedIsFragmentationInvariant(t *testing.T) {
	text := "[happy]こんにちは！元気ですか？ [sad]少し疲れました。また明日、ゆっくり話しましょう。"

	whole := feedAll(NewStreamParser(), text)

	fragmentations := [][]string{
		splitEveryNBytes(text, 1),
		splitEveryNBytes(text, 2),
		splitEveryNBytes(text, 3),
		splitEveryNBytes(text, 7),
		{text[:5], text[5:6], text[6:]},
	}

	for i, fragments := range fragmentations {
		got := feedAll(NewStreamParser(), fragments...)
		if len(got) != len(whole) {
			t.Fatalf("fragmentation %d: expected %d units, got %d", i, len(whole), len(got))
		}
		for j := range whole {
			if got[j] != whole[j] {
				t.Fatalf("fragmentation %d: unit %d differs: expected %+v, got %+v", i, j, whole[j], got[j])
			}
		}
	}
}

// splitEveryNBytes splits at byte positions, deliberately cutting through
// multi-byte runes.
func splitEveryNBytes(s string, n int) []string {
	var fragments []string
	for len(s) > n {
		fragments = append(fragments, s[:n])
		s = s[n:]
	}
	return append(fragments, s)
}

func TestFeedTagPersistsAcrossSentences(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("[angry]First! Second! Third!")
	if len(units) != 3 {
		t.Fatalf("expected three sentences, got %d", len(units))
	}
	for _, unit := range units {
		if unit.Tag != "[angry]" {
			t.Fatalf("expected tag to persist, got %q on %q", unit.Tag, unit.Text)
		}
	}
}

func TestFeedConsecutiveTagsLastOneWins(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("[happy][sad]Oh no.")
	if len(units) != 1 {
		t.Fatalf("expected one sentence, got %d", len(units))
	}
	if units[0].Tag != "[sad]" {
		t.Fatalf("expected last tag to win, got %q", units[0].Tag)
	}
}

func TestFeedTagSplitAcrossFragments(t *testing.T) {
	parser := NewStreamParser()

	if units := parser.Feed("[ha"); len(units) != 0 {
		t.Fatalf("expected no units while tag incomplete, got %d", len(units))
	}
	units := parser.Feed("ppy]Done.")
	if len(units) != 1 || units[0].Tag != "[happy]" || units[0].Text != "Done." {
		t.Fatalf("expected ([happy], Done.), got %+v", units)
	}
}

func TestFeedTagAfterCompletedSentenceInLaterFragment(t *testing.T) {
	parser := NewStreamParser()

	if units := parser.Feed("Hi there! "); len(units) != 1 {
		t.Fatalf("expected one sentence, got %d", len(units))
	}
	units := parser.Feed("[sad]Oh no.")
	if len(units) != 1 || units[0].Tag != "[sad]" || units[0].Text != "Oh no." {
		t.Fatalf("expected ([sad], Oh no.), got %+v", units)
	}
}

func TestFeedUntaggedSentenceHasEmptyTag(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("Just a plain sentence.")
	if len(units) != 1 {
		t.Fatalf("expected one sentence, got %d", len(units))
	}
	if units[0].Tag != "" {
		t.Fatalf("expected empty tag, got %q", units[0].Tag)
	}
}

func TestFeedPunctuationOnlySentenceIsNotSpeakable(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("「」。That said, something real.")
	if len(units) != 2 {
		t.Fatalf("expected two sentences, got %d", len(units))
	}
	if units[0].Speakable {
		t.Fatalf("expected punctuation-only sentence %q to be non-speakable", units[0].Text)
	}
	if !units[1].Speakable {
		t.Fatalf("expected %q to be speakable", units[1].Text)
	}
}

func TestFeedCommaBreaksOnlyLongSentences(t *testing.T) {
	parser := NewStreamParser()

	if units := parser.Feed("short, one."); len(units) != 1 {
		t.Fatalf("expected comma in a short clause to not break, got %d units", len(units))
	} else if units[0].Text != "short, one." {
		t.Fatalf("expected full sentence, got %q", units[0].Text)
	}

	units := parser.Feed("this clause rambles on for a while, and then continues.")
	if len(units) != 2 {
		t.Fatalf("expected a long clause to break at the comma, got %d units", len(units))
	}
	if units[0].Text != "this clause rambles on for a while," {
		t.Fatalf("unexpected first clause %q", units[0].Text)
	}
}

func TestFeedUnterminatedTextStaysInRemainder(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("[relaxed]this text never ends")
	if len(units) != 0 {
		t.Fatalf("expected no units for unterminated text, got %d", len(units))
	}
	if got := parser.Remainder(); got != "this text never ends" {
		t.Fatalf("expected remainder to hold the buffered text, got %q", got)
	}
	if got := parser.CurrentTag(); got != "[relaxed]" {
		t.Fatalf("expected current tag [relaxed], got %q", got)
	}
}

func TestFeedUnclosedBracketWithTerminatorIsText(t *testing.T) {
	parser := NewStreamParser()

	units := parser.Feed("[this is not a tag. honest]")
	if len(units) != 1 {
		t.Fatalf("expected one sentence, got %d", len(units))
	}
	if !strings.HasPrefix(units[0].Text, "[") {
		t.Fatalf("expected the bracket to be kept as text, got %q", units[0].Text)
	}
}
