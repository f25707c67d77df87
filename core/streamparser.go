package orchestration

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SentenceUnit is one extracted sentence along with the emotion tag that
// was in effect when it started.
type SentenceUnit struct {
	// Tag is the bracketed emotion tag (e.g. "[happy]") or empty when no
	// tag preceded the sentence.
	Tag  string
	Text string
	// Speakable reports whether the sentence contains anything worth
	// synthesizing. Non-speakable units still belong in the transcript.
	Speakable bool
}

type parserState int

const (
	// stateAwaitingTag looks for an emotion tag at the sentence start.
	stateAwaitingTag parserState = iota
	// stateAccumulating gathers runes until a sentence terminator.
	stateAccumulating
)

// StreamParser incrementally extracts tagged sentences from streamed
// response text. Fragments can be split at arbitrary byte positions;
// feeding the same text in different fragmentations yields the same
// units.
//
// Feed("[happy]Hi there! [sad]I'm ") emits ("[happy]", "Hi there!") and
// holds "[sad]I'm " until its sentence is terminated.
type StreamParser struct {
	buffer     []rune
	pending    []byte // incomplete trailing rune held back between fragments
	currentTag string
	state      parserState
}

func NewStreamParser() *StreamParser {
	return &StreamParser{}
}

// minCommaBreak is the sentence length at which a comma is accepted as a
// sentence boundary, keeping short clauses together while bounding the
// synthesis latency of long rambling sentences.
const minCommaBreak = 10

// Feed appends a fragment to the internal buffer and returns every
// sentence completed by it, in order.
func (p *StreamParser) Feed(fragment string) []SentenceUnit {
	if p == nil {
		return nil
	}

	p.buffer = append(p.buffer, p.decodeFragment(fragment)...)

	var units []SentenceUnit
	for {
		if p.state == stateAwaitingTag {
			if !p.consumeTags() {
				break
			}
			if len(p.buffer) == 0 {
				// Nothing after the tags yet; the next fragment may still
				// open with another tag.
				break
			}
			p.state = stateAccumulating
		}

		boundary := sentenceBoundary(p.buffer)
		if boundary < 0 {
			break
		}

		sentence := string(p.buffer[:boundary+1])
		sentence = strings.TrimRightFunc(sentence, unicode.IsSpace)
		remainder := p.buffer[boundary+1:]
		for len(remainder) > 0 && unicode.IsSpace(remainder[0]) {
			remainder = remainder[1:]
		}
		p.buffer = remainder

		if sentence != "" {
			units = append(units, SentenceUnit{
				Tag:       p.currentTag,
				Text:      sentence,
				Speakable: isSpeakable(sentence),
			})
		}
		p.state = stateAwaitingTag
	}

	return units
}

// decodeFragment converts a fragment into runes, holding back a trailing
// rune that was cut mid-sequence until its remaining bytes arrive.
func (p *StreamParser) decodeFragment(fragment string) []rune {
	data := append(p.pending, fragment...)

	cut := len(data)
	for i := len(data) - 1; i >= 0 && len(data)-i < utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}

	p.pending = append([]byte(nil), data[cut:]...)
	return []rune(string(data[:cut]))
}

// consumeTags strips leading emotion tags from the buffer, keeping the
// last one seen. It reports false when the buffer may still start with an
// incomplete tag and more input is needed to decide.
func (p *StreamParser) consumeTags() bool {
	for len(p.buffer) > 0 && p.buffer[0] == '[' {
		closing := -1
		for i, r := range p.buffer {
			if r == ']' {
				closing = i
				break
			}
			if isSentenceTerminator(r) {
				// A terminator inside an unclosed bracket: not a tag,
				// treat the bracket as sentence text.
				return true
			}
		}
		if closing < 0 {
			return false
		}

		p.currentTag = string(p.buffer[:closing+1])
		p.buffer = p.buffer[closing+1:]
	}
	return true
}

// Remainder returns buffered text that was never terminated. It belongs
// in the transcript but is never synthesized.
func (p *StreamParser) Remainder() string {
	if p == nil {
		return ""
	}
	return string(p.buffer) + string(p.pending)
}

// CurrentTag returns the emotion tag in effect for the buffered text.
func (p *StreamParser) CurrentTag() string {
	if p == nil {
		return ""
	}
	return p.currentTag
}

// sentenceBoundary returns the index of the first rune that ends a
// sentence, or -1 when the buffer holds no complete sentence yet.
func sentenceBoundary(buffer []rune) int {
	for i, r := range buffer {
		if isSentenceTerminator(r) {
			return i
		}
		if (r == '、' || r == ',') && i >= minCommaBreak {
			return i
		}
	}
	return -1
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '。', '．', '.', '！', '!', '？', '?', '\n':
		return true
	}
	return false
}

// isSpeakable reports whether the sentence contains at least one letter or
// digit; pure punctuation like "「」" gets a transcript entry but no
// synthesis.
func isSpeakable(sentence string) bool {
	for _, r := range sentence {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
