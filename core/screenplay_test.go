package orchestration

import "testing"

func TestBuildScreenplayMapsTagToStyleAndExpression(t *testing.T) {
	testCases := []struct {
		name       string
		tag        string
		expected   TalkStyle
		expression string
	}{
		{name: "happy", tag: "[happy]", expected: TalkStyleHappy, expression: "happy"},
		{name: "angry", tag: "[angry]", expected: TalkStyleAngry, expression: "angry"},
		{name: "sad", tag: "[sad]", expected: TalkStyleSad, expression: "sad"},
		{name: "relaxed", tag: "[relaxed]", expected: TalkStyleRelaxed, expression: "relaxed"},
		{name: "neutral", tag: "[neutral]", expected: TalkStyleNeutral, expression: "neutral"},
		{name: "unknown tag", tag: "[bewildered]", expected: TalkStyleNeutral, expression: "neutral"},
		{name: "no tag", tag: "", expected: TalkStyleNeutral, expression: "neutral"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			screenplay, ok := BuildScreenplay(SentenceUnit{Tag: testCase.tag, Text: "hello", Speakable: true}, VoiceParams{})
			if !ok {
				t.Fatalf("expected a screenplay for a speakable unit")
			}
			if screenplay.Talk.Style != testCase.expected {
				t.Fatalf("expected style %q, got %q", testCase.expected, screenplay.Talk.Style)
			}
			if screenplay.Expression != testCase.expression {
				t.Fatalf("expected expression %q, got %q", testCase.expression, screenplay.Expression)
			}
		})
	}
}

func TestBuildScreenplayCarriesVoiceParams(t *testing.T) {
	voice := VoiceParams{SpeakerX: 1.32, SpeakerY: 1.88}

	screenplay, ok := BuildScreenplay(SentenceUnit{Text: "hello", Speakable: true}, voice)
	if !ok {
		t.Fatalf("expected a screenplay for a speakable unit")
	}
	if screenplay.Talk.SpeakerX != voice.SpeakerX || screenplay.Talk.SpeakerY != voice.SpeakerY {
		t.Fatalf("expected voice params to be carried, got (%f, %f)", screenplay.Talk.SpeakerX, screenplay.Talk.SpeakerY)
	}
	if screenplay.Talk.Message != "hello" {
		t.Fatalf("expected message to be carried, got %q", screenplay.Talk.Message)
	}
}

func TestBuildScreenplaySkipsNonSpeakableUnits(t *testing.T) {
	if _, ok := BuildScreenplay(SentenceUnit{Tag: "[happy]", Text: "「」", Speakable: false}, VoiceParams{}); ok {
		t.Fatalf("expected no screenplay for a non-speakable unit")
	}
}
