package orchestration

import "strings"

// TalkStyle is the emotional register a sentence is spoken with.
type TalkStyle string

const (
	TalkStyleNeutral TalkStyle = "neutral"
	TalkStyleHappy   TalkStyle = "happy"
	TalkStyleAngry   TalkStyle = "angry"
	TalkStyleSad     TalkStyle = "sad"
	TalkStyleRelaxed TalkStyle = "relaxed"
)

// VoiceParams places the synthesized voice on the provider's speaker map.
type VoiceParams struct {
	SpeakerX float64
	SpeakerY float64
}

// Talk is the synthesizable part of a screenplay.
type Talk struct {
	Message  string
	SpeakerX float64
	SpeakerY float64
	Style    TalkStyle
}

// Screenplay pairs one sentence of speech with the facial expression the
// avatar should hold while it plays.
type Screenplay struct {
	Talk       Talk
	Expression string
}

// BuildScreenplay turns an extracted sentence into a screenplay. It
// reports false for sentences with nothing to synthesize.
func BuildScreenplay(unit SentenceUnit, voice VoiceParams) (Screenplay, bool) {
	if !unit.Speakable {
		return Screenplay{}, false
	}

	style := styleFromTag(unit.Tag)
	return Screenplay{
		Talk: Talk{
			Message:  unit.Text,
			SpeakerX: voice.SpeakerX,
			SpeakerY: voice.SpeakerY,
			Style:    style,
		},
		Expression: expressionForStyle(style),
	}, true
}

// styleFromTag maps a bracketed emotion tag to a talk style; unknown or
// missing tags fall back to neutral.
func styleFromTag(tag string) TalkStyle {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(tag, "["), "]")
	switch TalkStyle(trimmed) {
	case TalkStyleHappy, TalkStyleAngry, TalkStyleSad, TalkStyleRelaxed, TalkStyleNeutral:
		return TalkStyle(trimmed)
	}
	return TalkStyleNeutral
}

// expressionForStyle picks the facial expression shown while a style is
// spoken.
func expressionForStyle(style TalkStyle) string {
	switch style {
	case TalkStyleHappy:
		return "happy"
	case TalkStyleAngry:
		return "angry"
	case TalkStyleSad:
		return "sad"
	case TalkStyleRelaxed:
		return "relaxed"
	}
	return "neutral"
}
