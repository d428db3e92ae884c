// Package journal keeps a rolling buffer of recent keyframes so observers can
// catch up on body state without replaying every tick.
package journal

import (
	"sync"
	"time"
)

// Telemetry receives eviction notices.
type Telemetry interface {
	RecordKeyframeEviction(reason string)
}

// Clock supplies the recording timestamp.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const (
	EvictionExpired = "expired"
	EvictionCount   = "count"
)

// Journal is safe for concurrent use.
type Journal struct {
	mu           sync.RWMutex
	keyframes    []Keyframe
	maxFrames    int
	maxAge       time.Duration
	clock        Clock
	telemetry    Telemetry
	lastSequence uint64
}

// New constructs a journal holding at most keyframeCapacity frames no older
// than maxAge. A zero maxAge disables age-based eviction.
func New(keyframeCapacity int, maxAge time.Duration) *Journal {
	keyframeCapacity = max(keyframeCapacity, 0)
	maxAge = max(maxAge, 0)
	return &Journal{
		keyframes: make([]Keyframe, 0, keyframeCapacity),
		maxFrames: keyframeCapacity,
		maxAge:    maxAge,
		clock:     systemClock{},
	}
}

type KeyframeEviction struct {
	Sequence uint64
	Tick     uint64
	Reason   string
}

type KeyframeRecordResult struct {
	Sequence       uint64
	Size           int
	OldestSequence uint64
	NewestSequence uint64
	Evicted        []KeyframeEviction
}

// RecordKeyframe stores a copy of frame, assigning the next sequence number
// when the frame has none, and enforces retention by age and count.
func (j *Journal) RecordKeyframe(frame Keyframe) KeyframeRecordResult {
	j.mu.Lock()
	defer j.mu.Unlock()

	if frame.Sequence == 0 {
		frame.Sequence = j.lastSequence + 1
	}
	j.lastSequence = max(j.lastSequence, frame.Sequence)

	if j.maxFrames == 0 {
		j.keyframes = j.keyframes[:0]
		return KeyframeRecordResult{Sequence: frame.Sequence}
	}

	frame = frame.clone()
	frame.RecordedAt = j.clock.Now()
	j.keyframes = append(j.keyframes, frame)

	var evicted []KeyframeEviction
	if j.maxAge > 0 {
		cutoff := frame.RecordedAt.Add(-j.maxAge)
		idx := 0
		for idx < len(j.keyframes) && j.keyframes[idx].RecordedAt.Before(cutoff) {
			evicted = append(evicted, eviction(j.keyframes[idx], EvictionExpired))
			idx++
		}
		j.keyframes = j.keyframes[idx:]
	}

	if overflow := len(j.keyframes) - j.maxFrames; overflow > 0 {
		for _, old := range j.keyframes[:overflow] {
			evicted = append(evicted, eviction(old, EvictionCount))
		}
		j.keyframes = j.keyframes[overflow:]
	}

	if j.telemetry != nil {
		for _, e := range evicted {
			j.telemetry.RecordKeyframeEviction(e.Reason)
		}
	}

	size := len(j.keyframes)
	result := KeyframeRecordResult{Sequence: frame.Sequence, Size: size, Evicted: evicted}
	if size > 0 {
		result.OldestSequence = j.keyframes[0].Sequence
		result.NewestSequence = j.keyframes[size-1].Sequence
	}
	return result
}

func eviction(frame Keyframe, reason string) KeyframeEviction {
	return KeyframeEviction{Sequence: frame.Sequence, Tick: frame.Tick, Reason: reason}
}

// Keyframes returns copies of the retained frames, oldest first.
func (j *Journal) Keyframes() []Keyframe {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.keyframes) == 0 {
		return nil
	}
	frames := make([]Keyframe, len(j.keyframes))
	for i, frame := range j.keyframes {
		frames[i] = frame.clone()
	}
	return frames
}

// KeyframeBySequence returns the keyframe matching sequence.
func (j *Journal) KeyframeBySequence(sequence uint64) (Keyframe, bool) {
	if sequence == 0 {
		return Keyframe{}, false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, frame := range j.keyframes {
		if frame.Sequence == sequence {
			return frame.clone(), true
		}
	}
	return Keyframe{}, false
}

// Latest returns the newest retained keyframe.
func (j *Journal) Latest() (Keyframe, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.keyframes) == 0 {
		return Keyframe{}, false
	}
	return j.keyframes[len(j.keyframes)-1].clone(), true
}

// KeyframeWindow reports the current retention window.
func (j *Journal) KeyframeWindow() (size int, oldest, newest uint64) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	size = len(j.keyframes)
	if size == 0 {
		return size, 0, 0
	}
	return size, j.keyframes[0].Sequence, j.keyframes[size-1].Sequence
}

func (j *Journal) AttachTelemetry(t Telemetry) {
	j.mu.Lock()
	j.telemetry = t
	j.mu.Unlock()
}

// SetClock replaces the timestamp source. A nil clock restores wall time.
func (j *Journal) SetClock(c Clock) {
	if c == nil {
		c = systemClock{}
	}
	j.mu.Lock()
	j.clock = c
	j.mu.Unlock()
}
