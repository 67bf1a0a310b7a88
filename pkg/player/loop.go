package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/funkwelle/funkwelle/pkg/graph"
	"github.com/funkwelle/funkwelle/pkg/recorder"
	"github.com/funkwelle/funkwelle/pkg/spectrum"
)

// changeState performs one state machine transition and notifies
// observers. Re-entering the current state is a no-op. Reaching Playing
// ends any recovery cycle: the attempt budget belongs to one outage.
func (e *Engine) changeState(to State, reason string) {
	from := e.state
	if from == to {
		return
	}
	e.state = to

	if to == StatePlaying && e.reconnect != nil {
		e.reconnect.cancelPending()
		e.reconnect = nil
	}

	e.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("reason", reason).
		Msg("State changed")

	e.observers.emitStateChanged(StateChange{
		From:      from,
		To:        to,
		Timestamp: e.backend.Now(),
		Reason:    reason,
	})
}

// newError builds a classified error with the loop's clock.
func (e *Engine) newError(err error, category ErrorCategory, severity ErrorSeverity, retryable bool) *Error {
	return &Error{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: e.backend.Now(),
		Retryable: retryable,
	}
}

// handlePlay is the loop side of Play: tear down whatever is attached,
// remember the station and bring up a fresh graph.
func (e *Engine) handlePlay(station Station) error {
	e.cancelReconnect()
	e.teardownPlayback()

	e.station = station
	e.tags = map[string]string{}
	e.log.Info().Str("uri", station.URI).Str("station", station.Name).Msg("Starting playback")

	if err := e.startGraph(); err != nil {
		e.changeState(StateError, "graph start failed")
		return e.newError(err, CategoryTransport, SeverityHigh, false)
	}
	e.changeState(StatePlaying, "playback requested")
	return nil
}

func (e *Engine) handlePause() {
	if e.state != StatePlaying {
		return
	}
	if e.graph != nil {
		e.graph.SetPaused(true)
	}
	e.changeState(StatePaused, "pause requested")
}

func (e *Engine) handleResume() {
	if e.state != StatePaused {
		return
	}
	if e.graph != nil {
		e.graph.SetPaused(false)
	}
	e.changeState(StatePlaying, "resume requested")
}

func (e *Engine) handleStop(reason string) {
	e.cancelReconnect()
	e.teardownPlayback()
	e.changeState(StateStopped, reason)
}

// startGraph brings up a new graph for the current station. Its bus
// closure is stamped with a fresh generation so messages from this graph
// can be told apart from a torn down predecessor's.
func (e *Engine) startGraph() error {
	e.gen++
	gen := e.gen

	g := graph.New(e.cfg.Graph, e.backend.Opener, e.backend.Sink, func(m graph.Message) {
		select {
		case e.bus <- busMessage{generation: gen, msg: m}:
		default:
			e.log.Warn().Str("type", m.Type.String()).Msg("Bus queue full, dropping message")
		}
	}, e.log)

	if err := g.Start(e.station.URI, e.eq.EffectiveGains(), e.volume, false); err != nil {
		return err
	}
	e.graph = g
	e.graphGen = gen
	return nil
}

// teardownPlayback drives the playback side idle: the recording session
// is finalized, the analyzer branch released and the graph fully torn
// down. After it returns no branch of the old graph is still linked.
func (e *Engine) teardownPlayback() {
	e.finishRecording()
	e.detachSpectrumBranch()
	if e.graph != nil {
		e.graph.Teardown()
		e.graph = nil
	}
	e.tags = nil
}

func (e *Engine) cancelReconnect() {
	if e.reconnect != nil {
		e.reconnect.cancelPending()
		e.reconnect = nil
	}
}

// handleBusMessage dispatches one graph notification. Messages from any
// graph other than the current one are stale and dropped.
func (e *Engine) handleBusMessage(m busMessage) {
	if e.graph == nil || m.generation != e.graphGen {
		return
	}
	switch m.msg.Type {
	case graph.MsgBuffering:
		e.handleBuffering(m.msg.Percent)
	case graph.MsgTags:
		e.handleTags(m.msg.Tags)
	case graph.MsgStreamStarted:
		e.handleStreamStarted()
	case graph.MsgEOS:
		e.log.Info().Str("uri", e.station.URI).Msg("End of stream")
		e.handleStop("end of stream")
	case graph.MsgError:
		e.handleStreamError(m.msg.Err)
	}
}

func (e *Engine) handleBuffering(percent int) {
	e.observers.emitBuffering(percent)
	if percent < 100 {
		if e.state != StateBuffering {
			e.changeState(StateBuffering, fmt.Sprintf("buffering %d%%", percent))
		}
		return
	}
	if e.state == StateBuffering {
		e.changeState(StatePlaying, "buffering complete")
	}
}

func (e *Engine) handleTags(tags map[string]string) {
	if e.tags == nil {
		e.tags = map[string]string{}
	}
	for k, v := range tags {
		e.tags[k] = v
	}
	e.log.Debug().Interface("tags", tags).Msg("Stream tags changed")
	e.observers.emitTagsChanged(copyTags(e.tags))
}

func (e *Engine) handleStreamStarted() {
	e.log.Info().Str("uri", e.station.URI).Msg("Stream started")
	e.changeState(StatePlaying, "stream started")
	if e.spectrumOn && e.spectrum == nil {
		e.attachSpectrumBranch()
	}
}

// handleStreamError runs the recovery protocol: surface the error, drive
// the graph idle and either schedule the next attempt or settle in
// Stopped with a terminal report.
func (e *Engine) handleStreamError(err error) {
	retryable := true
	var status *graph.StatusError
	if errors.As(err, &status) {
		retryable = status.Retryable()
	}

	e.log.Error().Err(err).Bool("retryable", retryable).Msg("Stream error")
	e.changeState(StateError, err.Error())
	e.teardownPlayback()

	if !e.autoReconnect || !retryable {
		e.cancelReconnect()
		e.observers.emitError(e.newError(err, CategoryTransport, SeverityHigh, retryable))
		reason := "reconnect disabled"
		if !retryable {
			reason = "unrecoverable stream error"
		}
		e.changeState(StateStopped, reason)
		return
	}
	e.scheduleReconnect(err)
}

// scheduleReconnect arms the next recovery attempt, or reports terminal
// failure once the budget is spent. Exactly one terminal notification
// fires per outage because the cycle state is discarded with it.
func (e *Engine) scheduleReconnect(cause error) {
	if e.reconnect == nil {
		e.reconnect = &reconnectState{}
	}
	rs := e.reconnect

	if e.cfg.Reconnect.Exhausted(rs.attempts) {
		e.reconnect = nil
		terminal := fmt.Errorf("failed to reconnect after %d attempts: %w", rs.attempts, cause)
		e.log.Error().Int("attempts", rs.attempts).Msg("Reconnect attempts exhausted")
		e.observers.emitError(e.newError(terminal, CategoryTerminal, SeverityCritical, false))
		e.changeState(StateStopped, "reconnect attempts exhausted")
		return
	}

	rs.cancelPending()
	rs.attempts++
	rs.generation++
	gen := rs.generation
	delay := e.cfg.Reconnect.Delay(rs.attempts)

	status := fmt.Errorf("reconnecting in %s (%d/%d): %w",
		delay.Round(time.Millisecond), rs.attempts, e.cfg.Reconnect.MaxAttempts, cause)
	e.log.Warn().
		Dur("delay", delay).
		Int("attempt", rs.attempts).
		Int("max_attempts", e.cfg.Reconnect.MaxAttempts).
		Msg("Scheduling reconnect")
	e.observers.emitError(e.newError(status, CategoryTransport, SeverityLow, true))

	rs.cancel = e.backend.Schedule(delay, func() {
		e.postEvent(loopEvent{kind: eventReconnectFired, generation: gen})
	})
}

// handleLoopEvent dispatches timer fires and branch acknowledgements.
func (e *Engine) handleLoopEvent(ev loopEvent) {
	switch ev.kind {
	case eventReconnectFired:
		e.handleReconnectFired(ev.generation)
	case eventSleepTick:
		e.handleSleepTick(ev.generation)
	case eventRecordingDone:
		e.handleRecordingDone(ev)
	case eventSpectrumFrame:
		if e.spectrum != nil && ev.generation == e.graphGen {
			e.observers.emitSpectrumFrame(ev.frame)
		}
	}
}

// handleReconnectFired reattaches the current URI. A fire whose
// generation does not match the armed cycle is a cancelled timer's echo.
func (e *Engine) handleReconnectFired(gen uint64) {
	rs := e.reconnect
	if rs == nil || gen != rs.generation {
		return
	}
	rs.cancel = nil

	e.log.Info().
		Int("attempt", rs.attempts).
		Str("uri", e.station.URI).
		Msg("Reconnecting")
	if err := e.startGraph(); err != nil {
		e.scheduleReconnect(err)
	}
}

// handleStartRecording is the loop side of StartRecording. The branch is
// attached first and rolled back if the encoder cannot be opened, so a
// failure never leaves a half-built session behind.
func (e *Engine) handleStartRecording(path string) (string, error) {
	if e.recording != nil {
		return "", e.newError(ErrRecordingActive, CategoryRecording, SeverityLow, false)
	}
	if e.state != StatePlaying || e.graph == nil {
		return "", e.newError(ErrNotPlaying, CategoryRecording, SeverityLow, false)
	}

	branch, format, err := e.graph.AttachBranch(recordQueueDepth)
	if err != nil {
		return "", e.newError(fmt.Errorf("attach recording branch: %w", err), CategoryRecording, SeverityMedium, false)
	}

	sess, err := recorder.NewSession(recorder.Options{
		Path:       path,
		SampleRate: int(format.SampleRate),
		Bitrate:    e.cfg.Recording.Bitrate,
		FFmpegPath: e.cfg.Graph.FFmpegPath,
	}, e.backend.Now, e.log)
	if err != nil {
		e.graph.DetachBranch(branch)
		return "", e.newError(err, CategoryRecording, SeverityMedium, false)
	}

	sess.Start(branch.Frames())
	e.recording = &recordingSession{sess: sess, branch: branch}

	// The watcher turns the session's flush acknowledgement into a loop
	// event, covering sessions that end without a StopRecording call.
	go func() {
		<-sess.Done()
		e.postEvent(loopEvent{
			kind:     eventRecordingDone,
			path:     sess.Path(),
			duration: sess.Duration(),
			err:      sess.Err(),
		})
	}()

	e.observers.emitRecordingStarted(sess.Path())
	return sess.Path(), nil
}

// finishRecording detaches the recording branch, which ends the session's
// frame queue and lets the encoder flush. The caller keeps the returned
// session to await the acknowledgement.
func (e *Engine) finishRecording() *recordingSession {
	rec := e.recording
	if rec == nil {
		return nil
	}
	e.recording = nil
	if e.graph != nil {
		e.graph.DetachBranch(rec.branch)
	}
	return rec
}

// handleRecordingDone processes a session's flush acknowledgement. A
// session that died on its own (encoder failure) is detached here.
func (e *Engine) handleRecordingDone(ev loopEvent) {
	if e.recording != nil && e.recording.sess.Path() == ev.path {
		e.finishRecording()
	}
	if ev.err != nil {
		e.observers.emitError(e.newError(ev.err, CategoryRecording, SeverityHigh, false))
	}
	e.log.Info().
		Str("path", ev.path).
		Dur("duration", ev.duration).
		Msg("Recording stopped")
	e.observers.emitRecordingStopped(ev.path, ev.duration)
}

// handleStartSleep arms the sleep timer, replacing any armed one.
func (e *Engine) handleStartSleep(d time.Duration, action SleepAction) time.Duration {
	e.cancelSleep(false)
	d = ClampSleepDuration(d)

	e.sleepGen++
	s := &sleepState{
		deadline:   e.backend.Now().Add(d),
		action:     action,
		warned:     d <= SleepWarnThreshold,
		generation: e.sleepGen,
	}
	e.sleep = s
	e.armSleepTick(s)

	e.log.Info().Dur("duration", d).Str("action", action.String()).Msg("Sleep timer started")
	e.observers.emitSleepTimer(SleepEvent{Kind: SleepTick, Remaining: d, Action: action})
	return d
}

func (e *Engine) armSleepTick(s *sleepState) {
	gen := s.generation
	s.cancel = e.backend.Schedule(time.Second, func() {
		e.postEvent(loopEvent{kind: eventSleepTick, generation: gen})
	})
}

// handleSleepTick advances the sleep countdown by one tick: emit the
// warning once, fire the action at the deadline, otherwise tick and
// re-arm.
func (e *Engine) handleSleepTick(gen uint64) {
	s := e.sleep
	if s == nil || gen != s.generation {
		return
	}
	s.cancel = nil

	remaining := s.remaining(e.backend.Now())
	if remaining <= 0 {
		e.sleep = nil
		e.log.Info().Str("action", s.action.String()).Msg("Sleep timer fired")
		e.observers.emitSleepTimer(SleepEvent{Kind: SleepFired, Remaining: 0, Action: s.action})
		switch s.action {
		case SleepPause:
			e.handlePause()
		default:
			e.handleStop("sleep timer fired")
		}
		return
	}

	kind := SleepTick
	if !s.warned && remaining <= SleepWarnThreshold {
		s.warned = true
		kind = SleepWarning
	}
	e.observers.emitSleepTimer(SleepEvent{Kind: kind, Remaining: remaining, Action: s.action})
	e.armSleepTick(s)
}

// cancelSleep disarms the sleep timer; emit selects whether observers
// hear about it.
func (e *Engine) cancelSleep(emit bool) bool {
	s := e.sleep
	if s == nil {
		return false
	}
	e.sleep = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	e.log.Info().Msg("Sleep timer cancelled")
	if emit {
		e.observers.emitSleepTimer(SleepEvent{
			Kind:      SleepCancelled,
			Remaining: s.remaining(e.backend.Now()),
			Action:    s.action,
		})
	}
	return true
}

// attachSpectrumBranch links the analyzer to the rolling graph. Called
// again from handleStreamStarted when the chain is not up yet.
func (e *Engine) attachSpectrumBranch() {
	if e.graph == nil {
		return
	}
	branch, format, err := e.graph.AttachBranch(spectrumQueueDepth)
	if err != nil {
		return
	}
	gen := e.graphGen
	an := spectrum.NewAnalyzer(e.cfg.Spectrum, int(format.SampleRate), func(bins []float64) {
		// Level frames are droppable; never stall the analyzer on a busy
		// loop.
		select {
		case e.events <- loopEvent{kind: eventSpectrumFrame, generation: gen, frame: bins}:
		default:
		}
	})
	go an.Run(branch.Frames())
	e.spectrum = &spectrumSession{branch: branch}
	e.log.Debug().Msg("Spectrum branch attached")
}

func (e *Engine) detachSpectrumBranch() {
	if e.spectrum == nil {
		return
	}
	if e.graph != nil {
		e.graph.DetachBranch(e.spectrum.branch)
	}
	e.spectrum = nil
}
