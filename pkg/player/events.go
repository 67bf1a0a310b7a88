package player

import "time"

// EventHandler carries the typed observer callbacks for engine
// notifications. Nil fields are skipped. Callbacks run synchronously on the
// engine loop, so handlers must return quickly and must not call back into
// the engine's blocking API; hand long work to another goroutine.
type EventHandler struct {
	StateChanged     func(change StateChange)
	Error            func(err *Error)
	Buffering        func(percent int)
	TagsChanged      func(tags map[string]string)
	RecordingStarted func(path string)
	RecordingStopped func(path string, duration time.Duration)
	SpectrumFrame    func(bins []float64)
	SleepTimer       func(ev SleepEvent)
}

type subscription struct {
	id      int
	handler EventHandler
}

// observers is the engine's listener registry. It is owned by the loop
// goroutine; registration and emission are both marshalled there, which
// keeps emission ordering identical to transition ordering.
type observers struct {
	nextID int
	subs   []subscription
}

func (o *observers) add(h EventHandler) int {
	o.nextID++
	o.subs = append(o.subs, subscription{id: o.nextID, handler: h})
	return o.nextID
}

func (o *observers) remove(id int) {
	for i, sub := range o.subs {
		if sub.id == id {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

func (o *observers) emitStateChanged(change StateChange) {
	for _, sub := range o.subs {
		if sub.handler.StateChanged != nil {
			sub.handler.StateChanged(change)
		}
	}
}

func (o *observers) emitError(err *Error) {
	for _, sub := range o.subs {
		if sub.handler.Error != nil {
			sub.handler.Error(err)
		}
	}
}

func (o *observers) emitBuffering(percent int) {
	for _, sub := range o.subs {
		if sub.handler.Buffering != nil {
			sub.handler.Buffering(percent)
		}
	}
}

func (o *observers) emitTagsChanged(tags map[string]string) {
	for _, sub := range o.subs {
		if sub.handler.TagsChanged != nil {
			sub.handler.TagsChanged(tags)
		}
	}
}

func (o *observers) emitRecordingStarted(path string) {
	for _, sub := range o.subs {
		if sub.handler.RecordingStarted != nil {
			sub.handler.RecordingStarted(path)
		}
	}
}

func (o *observers) emitRecordingStopped(path string, duration time.Duration) {
	for _, sub := range o.subs {
		if sub.handler.RecordingStopped != nil {
			sub.handler.RecordingStopped(path, duration)
		}
	}
}

func (o *observers) emitSpectrumFrame(bins []float64) {
	for _, sub := range o.subs {
		if sub.handler.SpectrumFrame != nil {
			sub.handler.SpectrumFrame(bins)
		}
	}
}

func (o *observers) emitSleepTimer(ev SleepEvent) {
	for _, sub := range o.subs {
		if sub.handler.SleepTimer != nil {
			sub.handler.SleepTimer(ev)
		}
	}
}
