// Package events defines the event contract spoken by the tool panel.
//
// Two families live here.
//
// Wire events are exchanged with the realtime session as JSON objects
// discriminated by their "type" field:
//
//   - Inbound (session → panel): session.created, response.done, error and any
//     other type the session emits. Unknown types are kept as-is so the
//     ordered history stays complete.
//   - Outbound (panel → session): session.update, tool.output,
//     conversation.item.create and response.create.
//
// Panel events are local, typed notifications emitted to listeners of the
// panel (presentation, logging, tests):
//
// tool_registration events
//
//   - ToolsRegistered (tool_registration.sent): the registry payload was sent
//     for the current session activation.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): an invocation was detected.
//   - ToolCallCompleted (tool_call.completed): a result was emitted.
//   - ToolCallFailed (tool_call.failed): the invocation was aborted.
//   - ToolCallSkipped (tool_call.skipped): the invocation was already handled.
//
// tool_result events
//
//   - ToolResultChanged (tool_result.changed): a new result superseded the
//     previous one.
//   - ToolResultCleared (tool_result.cleared): the panel went back to idle.
//
// playback events
//
//   - PlaybackStarted (playback.started)
//   - PlaybackPaused (playback.paused)
//   - PlaybackEnded (playback.ended): the media reached its natural end.
//   - PlaybackFailed (playback.failed): play or toggle was rejected; carries
//     the retry message shown to the user.
//
// continuation events
//
//   - ContinuationScheduled (continuation.scheduled)
//   - ContinuationSent (continuation.sent)
//   - ContinuationCancelled (continuation.cancelled)
package events
