package scene

import "github.com/Faultbox/sceneport/pkg/math"

// MaxUVChannels is the number of UV sets a mesh can carry.
const MaxUVChannels = 4

// PrimitiveKind tags what a mesh's faces contain.
type PrimitiveKind int

const (
	PrimitivePoint PrimitiveKind = iota
	PrimitiveLine
	PrimitiveTriangle
)

// Face is one drawable primitive: 1 index for points, 2 for lines,
// 3 for triangles.
type Face struct {
	Indices []uint32
}

// Mesh is one output mesh. Source meshes with several primitives are split
// into one Mesh per primitive during assembly.
type Mesh struct {
	Name string
	Kind PrimitiveKind

	Vertices []math.Vec3
	Normals  []math.Vec3

	// TexCoords[c] is UV channel c, one entry per vertex. UVComponents[c]
	// records whether the channel holds 2 or 3 meaningful components.
	TexCoords    [MaxUVChannels][]math.Vec3
	UVComponents [MaxUVChannels]int

	Colors [][]Color4

	Faces []Face

	// Index into Scene.Materials.
	MaterialIndex int

	Bones []*Bone
}

// Bone is a named bone with its per-vertex influences.
type Bone struct {
	Name    string
	Weights []VertexWeight
}

// VertexWeight attaches a bone influence to one vertex.
type VertexWeight struct {
	VertexIndex uint32
	Weight      float32
}
