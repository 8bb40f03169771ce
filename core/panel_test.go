package toolpanel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/koscakluka/ema-toolpanel/core/catalog"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/playback"
)

const validSongArguments = `{"song":{"title":"T","artist":"A","filepath":"/music/t.wav","genre":"G"}}`

func newTestPanel(t *testing.T, opts ...PanelOption) (*Panel, *fakeChannel) {
	t.Helper()

	channel := newFakeChannel()
	opts = append([]PanelOption{WithChannel(channel), WithContinuationDelay(time.Hour)}, opts...)
	panel := NewPanel(opts...)
	t.Cleanup(panel.Close)
	return panel, channel
}

func TestRegistrationSentOncePerSession(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{sessionCreated()})
	panel.Observe([]events.Inbound{sessionCreated()})
	panel.Observe([]events.Inbound{{Type: events.TypeSessionUpdated}, sessionCreated()})
	panel.Observe([]events.Inbound{sessionCreated(), sessionCreated()})

	if got := len(channel.ofType(events.TypeSessionUpdate)); got != 1 {
		t.Fatalf("expected one session.update, got %d", got)
	}
	if !panel.Snapshot().Registered {
		t.Fatalf("expected registration latch to be set")
	}

	panel.SetSessionActive(false)
	if panel.Snapshot().Registered {
		t.Fatalf("expected deactivation to clear the latch")
	}
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{sessionCreated()})

	if got := len(channel.ofType(events.TypeSessionUpdate)); got != 2 {
		t.Fatalf("expected a new session.update for the new session, got %d", got)
	}
}

func TestRegistrationRequiresSessionCreatedAtTail(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{sessionCreated(), {Type: events.TypeSessionUpdated}})

	if got := len(channel.ofType(events.TypeSessionUpdate)); got != 0 {
		t.Fatalf("expected no registration when the oldest event is not session.created, got %d", got)
	}
}

func TestRegistrationPayloadDeclaresSongTool(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{sessionCreated()})

	sent := channel.ofType(events.TypeSessionUpdate)
	if len(sent) != 1 {
		t.Fatalf("expected one session.update, got %d", len(sent))
	}
	update := sent[0].(*events.SessionUpdate)
	if update.Session.ToolChoice != "auto" {
		t.Fatalf("expected tool_choice auto, got %q", update.Session.ToolChoice)
	}
	if len(update.Session.Tools) != 1 || update.Session.Tools[0].Name != "get_song_filepath" {
		t.Fatalf("expected get_song_filepath declaration, got %+v", update.Session.Tools)
	}
}

func TestObserveIgnoredWhileInactive(t *testing.T) {
	panel, channel := newTestPanel(t)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}")), sessionCreated()})

	if len(channel.ofType(events.TypeSessionUpdate)) != 0 || len(channel.ofType(events.TypeToolOutput)) != 0 {
		t.Fatalf("expected nothing to be sent while the session is inactive")
	}
	if display := panel.Snapshot().Display; display != DisplayInactive {
		t.Fatalf("expected inactive display, got %v", display)
	}
}

func TestInvocationProducesCorrelatedResult(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}")), sessionCreated()})

	outputs := channel.ofType(events.TypeToolOutput)
	if len(outputs) != 1 {
		t.Fatalf("expected one tool.output, got %d", len(outputs))
	}
	if id := events.CorrelationID(outputs[0]); id != "c1" {
		t.Fatalf("expected correlation id c1, got %q", id)
	}

	song, err := decodeSongOutput(outputs[0].(*events.ToolOutput).Output)
	if err != nil {
		t.Fatalf("expected output to be song JSON, got %v", err)
	}
	found := false
	for _, entry := range catalog.Default().Songs() {
		if entry.Title == song["title"] && entry.Artist == song["artist"] && entry.Genre == song["genre"] && entry.Filepath == song["filepath"] {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected output song to come from the catalog, got %v", song)
	}
	if _, ok := song["mood"]; ok {
		t.Fatalf("expected mood to stay local, got %v", song)
	}

	view := panel.Snapshot()
	if view.Display != DisplayResult || view.Result == nil || view.Result.CallID != "c1" {
		t.Fatalf("expected result for c1 to be shown, got %+v", view)
	}
	if view.Result.Song.Title != song["title"] {
		t.Fatalf("expected shown song %q, got %q", song["title"], view.Result.Song.Title)
	}
}

func TestOnlyNewestEventIsInspected(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{
		{Type: events.TypeSessionUpdated},
		responseDone(songCall("c1", "{}")),
		sessionCreated(),
	})

	if got := len(channel.ofType(events.TypeToolOutput)); got != 0 {
		t.Fatalf("expected older response.done to be ignored, got %d outputs", got)
	}

	panel.Observe([]events.Inbound{
		responseDone(songCall("c1", "{}")),
		{Type: events.TypeSessionUpdated},
		sessionCreated(),
	})

	if got := len(channel.ofType(events.TypeToolOutput)); got != 1 {
		t.Fatalf("expected newest response.done to be handled, got %d outputs", got)
	}
}

func TestUnregisteredToolIgnored(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	call := songCall("c1", "{}")
	call.Name = "get_weather"
	panel.Observe([]events.Inbound{responseDone(call, events.OutputItem{Type: "message"})})

	if got := len(channel.ofType(events.TypeToolOutput)); got != 0 {
		t.Fatalf("expected unregistered tool to be ignored, got %d outputs", got)
	}
}

func TestInvalidArgumentsKeepPreviousResult(t *testing.T) {
	recorder := &eventRecorder{}
	panel, channel := newTestPanel(t, WithListener(recorder.listen), WithSelector(func(int) int { return 0 }))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
	before := panel.Snapshot().Result

	panel.Observe([]events.Inbound{responseDone(songCall("c2", "{not valid json"))})

	after := panel.Snapshot().Result
	if after == nil || before == nil || after.CallID != before.CallID {
		t.Fatalf("expected previous result to be kept, got %+v", after)
	}
	if got := len(channel.ofType(events.TypeToolOutput)); got != 1 {
		t.Fatalf("expected no output for invalid arguments, got %d", got)
	}
	if got := recorder.count(events.KindToolCallFailed); got != 1 {
		t.Fatalf("expected one tool_call.failed event, got %d", got)
	}

	// The observer keeps working after a failed invocation.
	panel.Observe([]events.Inbound{responseDone(songCall("c3", "{}"))})
	if result := panel.Snapshot().Result; result == nil || result.CallID != "c3" {
		t.Fatalf("expected c3 to be handled, got %+v", result)
	}
}

func TestRepeatedObservationHandledOnce(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	list := []events.Inbound{responseDone(songCall("c1", "{}")), sessionCreated()}
	panel.Observe(list)
	panel.Observe(list)
	panel.Observe(list)

	if got := len(channel.ofType(events.TypeToolOutput)); got != 1 {
		t.Fatalf("expected one tool.output, got %d", got)
	}

	panel.SetSessionActive(false)
	panel.SetSessionActive(true)
	panel.Observe(list)
	if got := len(channel.ofType(events.TypeToolOutput)); got != 2 {
		t.Fatalf("expected seen call ids to reset with the session, got %d outputs", got)
	}
}

func TestAtLeastOnceDeliveryRepeatsHandling(t *testing.T) {
	panel, channel := newTestPanel(t, WithAtLeastOnceDelivery())
	panel.SetSessionActive(true)

	list := []events.Inbound{responseDone(songCall("c1", "{}"))}
	panel.Observe(list)
	panel.Observe(list)

	if got := len(channel.ofType(events.TypeToolOutput)); got != 2 {
		t.Fatalf("expected every observation to be handled, got %d", got)
	}
}

func TestUniformSelection(t *testing.T) {
	panel, _ := newTestPanel(t)
	panel.SetSessionActive(true)

	const rounds = 5000
	counts := map[string]int{}
	for i := range rounds {
		call := songCall(fmt.Sprintf("call-%d", i), "{}")
		panel.Observe([]events.Inbound{responseDone(call)})
		counts[panel.Snapshot().Result.Song.Title]++
	}

	songs := catalog.Default().Songs()
	expected := rounds / len(songs)
	for _, song := range songs {
		got := counts[song.Title]
		if got < expected*85/100 || got > expected*115/100 {
			t.Fatalf("expected about %d picks of %q, got %d (%v)", expected, song.Title, got, counts)
		}
	}
}

func TestSelectorOutOfRangeFails(t *testing.T) {
	recorder := &eventRecorder{}
	panel, channel := newTestPanel(t, WithListener(recorder.listen), WithSelector(func(n int) int { return n }))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	if got := len(channel.ofType(events.TypeToolOutput)); got != 0 {
		t.Fatalf("expected no output, got %d", got)
	}
	if got := recorder.count(events.KindToolCallFailed); got != 1 {
		t.Fatalf("expected tool_call.failed, got %d", got)
	}
}

func TestPassThroughRendersModelSong(t *testing.T) {
	panel, channel := newTestPanel(t, WithPassThrough())
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", validSongArguments))})

	result := panel.Snapshot().Result
	if result == nil {
		t.Fatalf("expected a result")
	}
	expected := catalog.Song{Title: "T", Artist: "A", Filepath: "/music/t.wav", Genre: "G"}
	if result.Song != expected {
		t.Fatalf("expected %+v, got %+v", expected, result.Song)
	}

	output := channel.ofType(events.TypeToolOutput)[0].(*events.ToolOutput).Output
	song, err := decodeSongOutput(output)
	if err != nil || song["title"] != "T" {
		t.Fatalf("expected output to echo the model song, got %q (%v)", output, err)
	}
}

func TestPassThroughWithoutSongFails(t *testing.T) {
	panel, channel := newTestPanel(t, WithPassThrough())
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", `{"other":1}`))})

	if panel.Snapshot().Result != nil {
		t.Fatalf("expected no result without a song")
	}
	if got := len(channel.ofType(events.TypeToolOutput)); got != 0 {
		t.Fatalf("expected no output, got %d", got)
	}
}

func TestConversationItemOutputFormat(t *testing.T) {
	panel, channel := newTestPanel(t, WithOutputFormat(OutputConversationItem))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	items := channel.ofType(events.TypeConversationItemCreate)
	if len(items) != 1 {
		t.Fatalf("expected one conversation.item.create, got %d", len(items))
	}
	item := items[0].(*events.ConversationItemCreate).Item
	if item.Type != "function_output" || item.Name != "get_song_filepath" || item.CallID != "c1" {
		t.Fatalf("unexpected item %+v", item)
	}
	if len(channel.ofType(events.TypeToolOutput)) != 0 {
		t.Fatalf("expected no tool.output in conversation item mode")
	}
}

func TestChannelFailureStillShowsResult(t *testing.T) {
	panel, channel := newTestPanel(t)
	channel.err = errors.New("closed")
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	if result := panel.Snapshot().Result; result == nil || result.CallID != "c1" {
		t.Fatalf("expected result to be shown, got %+v", result)
	}
}

func TestErrorEventDoesNotStopObserver(t *testing.T) {
	panel, channel := newTestPanel(t)
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{{
		Type:  events.TypeError,
		Error: &events.ErrorDetails{Type: "invalid_request_error", Message: "bad"},
	}, sessionCreated()})
	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}")), sessionCreated()})

	if got := len(channel.ofType(events.TypeToolOutput)); got != 1 {
		t.Fatalf("expected observer to keep handling invocations, got %d", got)
	}
}

func TestReplacingResultReleasesPriorHandle(t *testing.T) {
	log := &orderLog{}
	pool := &fakeMediaPool{log: log}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory), WithPassThrough())
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", `{"song":{"title":"one","filepath":"/one.wav"}}`))})
	panel.Observe([]events.Inbound{responseDone(songCall("c2", `{"song":{"title":"two","filepath":"/two.wav"}}`))})

	if pool.maxLive != 1 {
		t.Fatalf("expected at most one live handle, got %d", pool.maxLive)
	}
	expected := []string{"play /one.wav", "close /one.wav", "play /two.wav"}
	entries := log.snapshot()
	if len(entries) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, entries)
	}
	for i := range expected {
		if entries[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, entries)
		}
	}
}

func TestDeactivationWhilePlayingReleasesPlayback(t *testing.T) {
	pool := &fakeMediaPool{}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	if state := panel.Snapshot().Playback.State; state != playback.StatePlaying {
		t.Fatalf("expected playing, got %s", state)
	}

	panel.SetSessionActive(false)

	view := panel.Snapshot()
	if pool.liveCount() != 0 {
		t.Fatalf("expected media handle to be released")
	}
	if view.Playback.State != playback.StateIdle || view.Result != nil {
		t.Fatalf("expected idle playback and no result, got %+v", view)
	}
	if view.Display != DisplayInactive || view.Display.String() != "Start the session to use this tool..." {
		t.Fatalf("expected start-the-session display, got %q", view.Display)
	}
}

func TestDeactivationFromPausedAndErrorStates(t *testing.T) {
	for _, name := range []string{"paused", "error"} {
		t.Run(name, func(t *testing.T) {
			pool := &fakeMediaPool{}
			if name == "error" {
				pool.playErr = errors.New("autoplay blocked")
			}
			panel, _ := newTestPanel(t, WithMediaFactory(pool.factory))
			panel.SetSessionActive(true)
			panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
			if name == "paused" {
				if err := panel.Toggle(context.Background()); err != nil {
					t.Fatalf("unexpected toggle error: %v", err)
				}
			}

			panel.SetSessionActive(false)

			view := panel.Snapshot()
			if pool.liveCount() != 0 || view.Playback.State != playback.StateIdle || view.Result != nil {
				t.Fatalf("expected everything released, got %+v (live %d)", view, pool.liveCount())
			}
		})
	}
}

func TestAutoplayFailureShowsRetryMessage(t *testing.T) {
	pool := &fakeMediaPool{playErr: errors.New("autoplay blocked")}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	view := panel.Snapshot()
	if view.Result == nil {
		t.Fatalf("expected result to be shown despite playback failure")
	}
	if view.Playback.LastError != playback.AutoplayFailedMessage {
		t.Fatalf("expected %q, got %q", playback.AutoplayFailedMessage, view.Playback.LastError)
	}
}

func TestTrackEndClearsResult(t *testing.T) {
	pool := &fakeMediaPool{}
	panel, channel := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}")), sessionCreated()})

	pool.last().end()

	view := panel.Snapshot()
	if view.Result != nil || view.Display != DisplayWaiting {
		t.Fatalf("expected waiting display after the song ended, got %+v", view)
	}
	if view.Display.String() != "Ask me to recommend a song..." {
		t.Fatalf("unexpected waiting text %q", view.Display.String())
	}
	if pool.liveCount() != 0 {
		t.Fatalf("expected media handle to be released")
	}
	if got := len(channel.ofType(events.TypeSessionUpdate)); got != 1 {
		t.Fatalf("expected registration not to be re-sent, got %d", got)
	}
}

func TestContinuationPromptSentAfterDelay(t *testing.T) {
	panel, channel := newTestPanel(t, WithContinuationDelay(10*time.Millisecond))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	event, ok := channel.waitFor(events.TypeResponseCreate, 2*time.Second)
	if !ok {
		t.Fatalf("expected response.create")
	}
	if event.(*events.ResponseCreate).Response.Instructions != feedbackInstructions {
		t.Fatalf("expected feedback instructions, got %q", event.(*events.ResponseCreate).Response.Instructions)
	}
}

func TestContinuationCancelledOnDeactivation(t *testing.T) {
	panel, channel := newTestPanel(t, WithContinuationDelay(30*time.Millisecond))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
	panel.SetSessionActive(false)

	if _, ok := channel.waitFor(events.TypeResponseCreate, 150*time.Millisecond); ok {
		t.Fatalf("expected pending prompt to be cancelled")
	}
}

func TestContinuationCancelledOnClose(t *testing.T) {
	panel, channel := newTestPanel(t, WithContinuationDelay(30*time.Millisecond))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
	panel.Close()

	if _, ok := channel.waitFor(events.TypeResponseCreate, 150*time.Millisecond); ok {
		t.Fatalf("expected pending prompt to be cancelled")
	}
}

func TestSupersessionCancelsPendingPrompt(t *testing.T) {
	recorder := &eventRecorder{}
	panel, channel := newTestPanel(t, WithContinuationDelay(50*time.Millisecond), WithListener(recorder.listen))
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
	panel.Observe([]events.Inbound{responseDone(songCall("c2", "{}"))})

	if _, ok := channel.waitFor(events.TypeResponseCreate, 2*time.Second); !ok {
		t.Fatalf("expected one response.create")
	}
	time.Sleep(100 * time.Millisecond)
	if got := len(channel.ofType(events.TypeResponseCreate)); got != 1 {
		t.Fatalf("expected one response.create, got %d", got)
	}
	if got := recorder.count(events.KindContinuationCancelled); got != 1 {
		t.Fatalf("expected one continuation.cancelled, got %d", got)
	}
}

func TestGatedPlaybackStopsAndRestartsSession(t *testing.T) {
	log := &orderLog{}
	pool := &fakeMediaPool{log: log}
	lifecycle := &fakeLifecycle{active: true, log: log}
	panel, channel := newTestPanel(t,
		WithMediaFactory(pool.factory),
		WithPlaybackGating(lifecycle),
		WithContinuationDelay(10*time.Millisecond),
	)
	panel.SetSessionActive(true)

	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}")), sessionCreated()})

	entries := log.snapshot()
	if len(entries) < 2 || entries[0] != "stop" || entries[1][:4] != "play" {
		t.Fatalf("expected the session to stop before playback, got %v", entries)
	}

	// The transport reports the stop asynchronously.
	panel.SetSessionActive(false)

	view := panel.Snapshot()
	if view.Result == nil || view.Playback.State != playback.StatePlaying {
		t.Fatalf("expected result and playback to survive the self-initiated stop, got %+v", view)
	}
	if view.Registered {
		t.Fatalf("expected the latch to be cleared")
	}
	if _, ok := channel.waitFor(events.TypeResponseCreate, 50*time.Millisecond); ok {
		t.Fatalf("expected no feedback prompt while the session is stopped")
	}

	pool.last().end()

	if lifecycle.starts != 1 {
		t.Fatalf("expected the session to be restarted, got %d starts", lifecycle.starts)
	}
	event, ok := channel.waitFor(events.TypeResponseCreate, 2*time.Second)
	if !ok {
		t.Fatalf("expected follow-up prompt after playback")
	}
	if event.(*events.ResponseCreate).Response.Instructions != followUpInstructions {
		t.Fatalf("expected follow-up instructions, got %q", event.(*events.ResponseCreate).Response.Instructions)
	}
	if view := panel.Snapshot(); view.Result != nil || view.Display != DisplayWaiting {
		t.Fatalf("expected waiting display after playback, got %+v", view)
	}
}

func TestGatedExternalStopReleasesPlayback(t *testing.T) {
	pool := &fakeMediaPool{}
	lifecycle := &fakeLifecycle{active: true}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory), WithPlaybackGating(lifecycle))
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
	panel.SetSessionActive(false)

	// The user starts and stops the session before the song ends.
	panel.SetSessionActive(true)
	panel.SetSessionActive(false)

	if pool.liveCount() != 0 || panel.Snapshot().Result != nil {
		t.Fatalf("expected an external stop to release everything")
	}
}

func TestToggleWithoutResult(t *testing.T) {
	panel, _ := newTestPanel(t)
	if err := panel.Toggle(context.Background()); !errors.Is(err, playback.ErrNoMedia) {
		t.Fatalf("expected ErrNoMedia, got %v", err)
	}
}

func TestPlayLocalFile(t *testing.T) {
	pool := &fakeMediaPool{}
	panel, channel := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)

	if err := panel.PlayLocalFile(context.Background(), "/tmp/mine.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view := panel.Snapshot()
	if view.Result == nil || view.Result.Song.Title != "mine.wav" {
		t.Fatalf("expected local file result, got %+v", view.Result)
	}
	if view.Playback.Source != "/tmp/mine.wav" || !view.Playback.IsPlaying {
		t.Fatalf("expected local file to play, got %+v", view.Playback)
	}
	if len(channel.ofType(events.TypeToolOutput)) != 0 {
		t.Fatalf("expected nothing sent for a local file")
	}
}

func TestCloseReleasesPlayback(t *testing.T) {
	pool := &fakeMediaPool{}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})

	panel.Close()
	panel.Close()

	if pool.liveCount() != 0 {
		t.Fatalf("expected media handle to be released on close")
	}
	panel.Observe([]events.Inbound{responseDone(songCall("c2", "{}"))})
	if panel.Snapshot().Result != nil {
		t.Fatalf("expected closed panel to ignore events")
	}
}

func TestResultJSONShowsRenderedInvocation(t *testing.T) {
	panel, _ := newTestPanel(t, WithPassThrough())
	panel.SetSessionActive(true)
	panel.Observe([]events.Inbound{responseDone(songCall("c1", validSongArguments))})

	raw := panel.Snapshot().Result.JSON()
	for _, fragment := range []string{`"call_id": "c1"`, `"name": "get_song_filepath"`, `"type": "function_call"`} {
		if !strings.Contains(raw, fragment) {
			t.Fatalf("expected %s in %s", fragment, raw)
		}
	}
}

func TestSnapshotIsServedWhileMediaLoads(t *testing.T) {
	pool := &fakeMediaPool{loadGate: make(chan struct{}), loadStarted: make(chan struct{}, 1)}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)

	observed := make(chan struct{})
	go func() {
		panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
		close(observed)
	}()
	<-pool.loadStarted

	views := make(chan View, 1)
	go func() { views <- panel.Snapshot() }()
	select {
	case view := <-views:
		if view.Result == nil || view.Result.CallID != "c1" {
			t.Fatalf("expected result for c1 while loading, got %+v", view.Result)
		}
		if view.Playback.State != playback.StateLoading {
			t.Fatalf("expected loading playback, got %s", view.Playback.State)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected snapshot while media is loading")
	}

	close(pool.loadGate)
	<-observed

	if state := panel.Snapshot().Playback.State; state != playback.StatePlaying {
		t.Fatalf("expected playing after load, got %s", state)
	}
}

func TestDeactivationWhileLoadingDropsPlayback(t *testing.T) {
	pool := &fakeMediaPool{loadGate: make(chan struct{}), loadStarted: make(chan struct{}, 1)}
	panel, _ := newTestPanel(t, WithMediaFactory(pool.factory))
	panel.SetSessionActive(true)

	observed := make(chan struct{})
	go func() {
		panel.Observe([]events.Inbound{responseDone(songCall("c1", "{}"))})
		close(observed)
	}()
	<-pool.loadStarted

	panel.SetSessionActive(false)
	close(pool.loadGate)
	<-observed

	if pool.liveCount() != 0 {
		t.Fatalf("expected loading handle to be closed, got %d live", pool.liveCount())
	}
	if state := panel.Snapshot().Playback.State; state != playback.StateIdle {
		t.Fatalf("expected idle playback, got %s", state)
	}
}
