package scene

import "github.com/Faultbox/sceneport/pkg/math"

// VectorKey is a timed vector keyframe. Time is in ticks.
type VectorKey struct {
	Time  float64
	Value math.Vec3
}

// QuatKey is a timed rotation keyframe. Time is in ticks.
type QuatKey struct {
	Time  float64
	Value math.Quat
}

// NodeChannel animates one node by name.
type NodeChannel struct {
	NodeName string

	PositionKeys []VectorKey
	RotationKeys []QuatKey
	ScalingKeys  []VectorKey
}

// Animation groups the channels of one clip.
type Animation struct {
	Name          string
	TicksPerFrame float64
	Channels      []*NodeChannel
}
