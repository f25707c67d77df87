// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_prompt.*
//   - user_input.*
//   - assistant_response.*
//   - screenplay.*
//   - assistant_playback.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal immutable text/state for the current stream/turn phase.
//   - Ended: lifecycle boundary indicating stream or playback completion.
//
// user_prompt events
//
//   - UserPromptSubmitted (user_prompt.submitted): a typed or transcribed
//     prompt entered the conversation.
//
// user_input events
//
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptFinal (user_input.transcript_final): terminal full
//     transcript for the utterance.
//
// assistant_response events
//
//   - AssistantResponseSegment (assistant_response.segment): streamed response
//     text segment.
//   - AssistantResponseFinal (assistant_response.final): response text stream
//     is complete; carries the full assembled response.
//
// screenplay events
//
//   - ScreenplayEnqueued (screenplay.enqueued): a sentence was queued for
//     synthesis.
//   - ScreenplaySpeechStarted (screenplay.speech_started): playback of a
//     queued sentence began; carries the style and expression to apply.
//   - ScreenplaySpeechEnded (screenplay.speech_ended): playback of a queued
//     sentence finished or was skipped.
//
// assistant_playback events
//
//   - AssistantPlaybackEnded (assistant_playback.ended): every queued sentence
//     of the current response finished playing.
package events
