package journal

import (
	"fmt"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kamilpitula/platformer/internal/body"
)

// BodyState is the serialisable view of one moving body.
type BodyState struct {
	ID               string       `msgpack:"id" json:"id"`
	X                float64      `msgpack:"x" json:"x"`
	Y                float64      `msgpack:"y" json:"y"`
	VX               float64      `msgpack:"vx" json:"vx"`
	VY               float64      `msgpack:"vy" json:"vy"`
	Width            float64      `msgpack:"w" json:"width"`
	Height           float64      `msgpack:"h" json:"height"`
	Contact          body.Contact `msgpack:"contact" json:"contact"`
	OnOneWayPlatform bool         `msgpack:"oneWay" json:"onOneWayPlatform"`
	CollidingWith    []string     `msgpack:"colliding,omitempty" json:"collidingWith,omitempty"`
}

// Keyframe captures every body at the end of a tick.
type Keyframe struct {
	Tick       uint64      `msgpack:"tick" json:"tick"`
	Sequence   uint64      `msgpack:"seq" json:"sequence"`
	OriginX    float64     `msgpack:"ox" json:"originX"`
	OriginY    float64     `msgpack:"oy" json:"originY"`
	Bodies     []BodyState `msgpack:"bodies" json:"bodies"`
	RecordedAt time.Time   `msgpack:"at" json:"recordedAt"`
}

func (k Keyframe) clone() Keyframe {
	cloned := k
	if k.Bodies != nil {
		cloned.Bodies = make([]BodyState, len(k.Bodies))
		for i, state := range k.Bodies {
			state.CollidingWith = slices.Clone(state.CollidingWith)
			cloned.Bodies[i] = state
		}
	}
	return cloned
}

// Body returns the state recorded for id.
func (k Keyframe) Body(id string) (BodyState, bool) {
	for _, state := range k.Bodies {
		if state.ID == id {
			return state, true
		}
	}
	return BodyState{}, false
}

// Encode serialises a keyframe with msgpack.
func Encode(frame Keyframe) ([]byte, error) {
	data, err := msgpack.Marshal(&frame)
	if err != nil {
		return nil, fmt.Errorf("journal: encode keyframe %d: %w", frame.Sequence, err)
	}
	return data, nil
}

// Decode parses a keyframe produced by Encode.
func Decode(data []byte) (Keyframe, error) {
	var frame Keyframe
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		return Keyframe{}, fmt.Errorf("journal: decode keyframe: %w", err)
	}
	return frame, nil
}
