// Package asset holds the format-neutral intermediate model sitting between
// the format importers and the scene graph assembler. Both the section
// parser (pkg/ase) and the structured-document decoder (pkg/gltf) produce a
// Document; the assembler consumes it without knowing which one did.
package asset

import "github.com/Faultbox/sceneport/pkg/math"

// Document is one decoded asset, rebuilt from scratch on every import.
type Document struct {
	// Roots are the declared root nodes; children are owned by their parent.
	Roots []*Node

	Meshes     []*Mesh
	Materials  []*Material
	Images     []*Image
	Cameras    []*Camera
	Lights     []*Light
	Animations []*Animation

	FormatVersion string
	Generator     string
	Copyright     string
}

// Node is a scene hierarchy element. Either Matrix or the TRS components
// describe its transform; when both are present, Matrix wins.
type Node struct {
	Name     string
	Children []*Node

	Matrix      *math.Mat4
	Translation *math.Vec3
	Rotation    *math.Quat
	Scale       *math.Vec3

	// Per-axis transform inheritance flags (true = inherit from parent).
	InheritPosition [3]bool
	InheritRotation [3]bool
	InheritScaling  [3]bool

	// Indices into the document's flat arrays; -1 means no reference.
	Meshes []int
	Camera int
	Light  int
}

// NewNode returns a node with no camera/light references.
func NewNode(name string) *Node {
	return &Node{Name: name, Camera: -1, Light: -1}
}

// PrimitiveMode is the topology of a primitive's index sequence.
type PrimitiveMode int

const (
	ModePoints PrimitiveMode = iota
	ModeLines
	ModeLineStrip
	ModeLineLoop
	ModeTriangles
	ModeTriangleStrip
	ModeTriangleFan
)

// UVSet is one texture coordinate channel with its component count (2 or 3).
type UVSet struct {
	Coords     []math.Vec3
	Components int
}

// Primitive is one drawable part of a mesh with already-decoded attribute
// accessors.
type Primitive struct {
	Mode PrimitiveMode

	Positions []math.Vec3
	Normals   []math.Vec3
	TexCoords []UVSet
	Colors    [][][4]float32

	// Indices into the attribute arrays; nil means the implied
	// sequence 0..len(Positions).
	Indices []uint32

	// Index into Document.Materials, -1 for none.
	Material int
}

// Mesh is a named, ordered list of primitives plus optional skinning data.
type Mesh struct {
	Name       string
	Primitives []Primitive
	Bones      []Bone
}

// Bone is a named bone owned by a mesh.
type Bone struct {
	Name    string
	Weights []VertexWeight
}

// VertexWeight attaches a bone influence to one mesh vertex.
type VertexWeight struct {
	Vertex uint32
	Weight float32
}

// TextureRef points a material channel at an image.
type TextureRef struct {
	Image int

	OffsetU, OffsetV float32
	ScaleU, ScaleV   float32
	Rotation         float32
	Blend            float32
}

// Channel is one material shading channel: a constant color, optionally
// overridden by a texture.
type Channel struct {
	Color   [4]float32
	Texture *TextureRef
}

// Material is a format-neutral material description.
type Material struct {
	Name string

	Ambient  Channel
	Diffuse  Channel
	Specular Channel
	Emissive Channel

	Transparency      float32
	Shininess         float32
	ShininessStrength float32
	TwoSided          bool
}

// Image is a texture image, referenced by path or embedded.
type Image struct {
	Name string
	URI  string
	Data []byte
	MIME string
}

// HasData reports whether the image payload is embedded in the asset.
func (img *Image) HasData() bool {
	return len(img.Data) > 0
}

// Camera mirrors the source camera parameters.
type Camera struct {
	Name   string
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
}

// LightKind enumerates source light types.
type LightKind int

const (
	LightPoint LightKind = iota
	LightDirectional
	LightSpot
	LightAmbient
)

// Light mirrors the source light parameters.
type Light struct {
	Name      string
	Kind      LightKind
	Color     [3]float32
	Intensity float32

	AngleInnerCone float32
	AngleOuterCone float32

	AttenuationConstant  float32
	AttenuationLinear    float32
	AttenuationQuadratic float32
}

// InterpKind tags how a keyframe track interpolates.
type InterpKind int

const (
	InterpTrack InterpKind = iota
	InterpBezier
	InterpTCB
)

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

// AnimChannel is a keyframe track set targeting one node by name.
type AnimChannel struct {
	Node string

	PositionInterp InterpKind
	RotationInterp InterpKind
	ScalingInterp  InterpKind

	PositionKeys []VectorKey
	RotationKeys []QuatKey
	ScalingKeys  []VectorKey
}

// Empty reports whether the channel carries no keyframes at all.
func (c *AnimChannel) Empty() bool {
	return len(c.PositionKeys) == 0 && len(c.RotationKeys) == 0 && len(c.ScalingKeys) == 0
}

// Animation is one clip.
type Animation struct {
	Name          string
	TicksPerFrame float64
	Channels      []*AnimChannel
}
