// Package scene defines the unified in-memory scene graph produced by an
// import. Every importer ends up here: one node tree, flat arrays for
// meshes, materials, textures, cameras, lights and animations, with plain
// indices for all cross-references.
package scene

import "github.com/Faultbox/sceneport/pkg/math"

// EmbeddedTexturePrefix marks a material texture reference that points at
// Scene.Textures instead of a file path. The prefix is followed by the
// decimal texture index, e.g. "*2".
const EmbeddedTexturePrefix = '*'

// Scene is the root of an imported asset.
type Scene struct {
	RootNode   *Node
	Meshes     []*Mesh
	Materials  []*Material
	Textures   []*Texture
	Cameras    []*Camera
	Lights     []*Light
	Animations []*Animation

	// Incomplete is set when the import produced no meshes.
	Incomplete bool

	// Source metadata, when the format declares any.
	FormatVersion string
	Generator     string
	Copyright     string
}

// Node is one element of the scene hierarchy. A node owns its children;
// everything else it refers to is an index into the scene's flat arrays.
type Node struct {
	Name      string
	Transform math.Mat4
	Parent    *Node
	Children  []*Node

	// Indices into Scene.Meshes.
	Meshes []int
}

// Color4 is an RGBA color.
type Color4 struct {
	R, G, B, A float32
}

// Texture is an embedded texture payload.
type Texture struct {
	Name string
	Data []byte

	// FormatHint is a 3-letter lowercase hint derived from the payload's
	// media type, e.g. "png" or "jpg". Empty when unknown.
	FormatHint string
}

// Camera describes a camera bound to the node carrying its name.
type Camera struct {
	Name   string
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
}

// LightType enumerates supported light sources.
type LightType int

const (
	LightPoint LightType = iota
	LightDirectional
	LightSpot
	LightAmbient
)

// Light describes a light source bound to the node carrying its name.
type Light struct {
	Name      string
	Type      LightType
	Color     Color4
	Intensity float32

	AngleInnerCone float32
	AngleOuterCone float32

	AttenuationConstant  float32
	AttenuationLinear    float32
	AttenuationQuadratic float32
}
