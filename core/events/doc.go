// Package events defines the typed events the orchestrator emits to its host.
//
// Event kinds are grouped by namespace:
//
//   - user_input.*: microphone level, speech activity and transcripts.
//   - assistant_state.*: state transitions and recognition gating.
//   - assistant_response.*: thinking indicator, partial and final text, images.
//   - assistant_speech.*: chunk playback progress and cancellation.
//   - widget.*: background color, timer, stopwatch, tones and settings mode.
//   - orchestrator.*: errors reported to the host.
//
// Updated events carry a mutable snapshot that replaces the previous one.
// Final events carry terminal text for the current response.
package events
