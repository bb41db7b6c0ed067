// Package ase parses the legacy 3D Studio ASCII scene-export text format
// (.ase, and the older .ask flavor) into the intermediate asset model.
//
// The format is a brace-nested tree of sections introduced by *KEYWORD
// markers. Real-world files are frequently malformed, so the parser is
// built to recover: field-level problems produce warnings and documented
// fallbacks, while only a premature end of file inside a nested section
// aborts the import.
package ase

import (
	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/math"
)

// maxUVChannels bounds the number of *MESH_MAPPINGCHANNEL sets kept.
const maxUVChannels = 4

// SceneInfo carries the *SCENE block fields.
type SceneInfo struct {
	Background [3]float32
	Ambient    [3]float32

	FirstFrame    uint32
	LastFrame     uint32
	FrameSpeed    uint32
	TicksPerFrame uint32
}

// ShadingType is the *MATERIAL_SHADING enum.
type ShadingType int

const (
	ShadingGouraud ShadingType = iota
	ShadingBlinn
	ShadingPhong
	ShadingFlat
	ShadingWire
)

// MapSlot is one *MAP_XXX texture block of a material.
type MapSlot struct {
	// Path is empty when no usable bitmap was declared, or when the
	// map class disabled path use.
	Path string

	OffsetU, OffsetV float32
	ScaleU, ScaleV   float32
	Rotation         float32
	Blend            float32
}

func newMapSlot() MapSlot {
	return MapSlot{ScaleU: 1, ScaleV: 1, Blend: 1}
}

// Material is one *MATERIAL or *SUBMATERIAL block.
type Material struct {
	Name string

	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [3]float32
	Emissive [3]float32

	Shading           ShadingType
	Transparency      float32
	Shininess         float32
	ShininessStrength float32
	TwoSided          bool

	TexDiffuse   MapSlot
	TexAmbient   MapSlot
	TexSpecular  MapSlot
	TexOpacity   MapSlot
	TexEmissive  MapSlot
	TexBump      MapSlot
	TexShininess MapSlot

	SubMaterials []Material
}

func newMaterial(name string) Material {
	return Material{
		Name:              name,
		Diffuse:           [3]float32{0.6, 0.6, 0.6},
		Transparency:      1,
		ShininessStrength: 1,
		TexDiffuse:        newMapSlot(),
		TexAmbient:        newMapSlot(),
		TexSpecular:       newMapSlot(),
		TexOpacity:        newMapSlot(),
		TexEmissive:       newMapSlot(),
		TexBump:           newMapSlot(),
		TexShininess:      newMapSlot(),
	}
}

// NodeType tags the concrete kind of a parsed object block.
type NodeType int

const (
	NodeMesh NodeType = iota
	NodeLight
	NodeCamera
	NodeDummy
)

// Animation is one keyframe track set of a *TM_ANIMATION block.
type Animation struct {
	PositionType asset.InterpKind
	RotationType asset.InterpKind
	ScalingType  asset.InterpKind

	PositionKeys []asset.VectorKey
	RotationKeys []asset.QuatKey
	ScalingKeys  []asset.VectorKey
}

func (a *Animation) empty() bool {
	return len(a.PositionKeys) == 0 && len(a.RotationKeys) == 0 && len(a.ScalingKeys) == 0
}

// BaseNode holds the fields every object block kind shares.
type BaseNode struct {
	Type   NodeType
	Name   string
	Parent string

	Transform      math.Mat4
	TargetPosition math.Vec3

	InheritPosition [3]bool
	InheritRotation [3]bool
	InheritScaling  [3]bool

	Anim       Animation
	TargetAnim Animation
}

func newBaseNode(typ NodeType) BaseNode {
	return BaseNode{
		Type:            typ,
		Name:            "UNNAMED",
		Transform:       math.Identity(),
		InheritPosition: [3]bool{true, true, true},
		InheritRotation: [3]bool{true, true, true},
		InheritScaling:  [3]bool{true, true, true},
	}
}

// Base gives handlers uniform access to the shared node fields.
func (n *BaseNode) Base() *BaseNode { return n }

type object interface {
	Base() *BaseNode
}

// Face is one *MESH_FACE record. Index arrays address the mesh-level
// vertex/UV/color lists.
type Face struct {
	ID      uint32
	Indices [3]uint32

	UVIndices    [maxUVChannels][3]uint32
	ColorIndices [3]uint32

	// One bit per smoothing group id 0..31.
	SmoothGroup uint32

	// Material slot override (*MESH_MTLID), selecting a submaterial.
	Material uint32
}

// Bone is a named bone owned by a mesh.
type Bone struct {
	Name string
}

// BoneWeight is one (bone, weight) influence.
type BoneWeight struct {
	Bone   int
	Weight float32
}

// BoneVertex is the influence list of one mesh vertex.
type BoneVertex struct {
	Weights []BoneWeight
}

// Mesh is a *GEOMOBJECT with its geometry blocks.
type Mesh struct {
	BaseNode

	Positions    []math.Vec3
	TexCoords    [maxUVChannels][]math.Vec3
	UVComponents [maxUVChannels]int
	VertexColors [][4]float32

	// Normals are stored per face corner (3 per face), accumulated from
	// the *MESH_NORMALS block and renormalized during lowering.
	Normals []math.Vec3

	Faces []Face

	Bones        []Bone
	BoneVertices []BoneVertex

	MaterialIndex  uint32
	WireframeColor [3]float32
}

func newMesh() *Mesh {
	m := &Mesh{BaseNode: newBaseNode(NodeMesh)}
	for i := range m.UVComponents {
		m.UVComponents[i] = 2
	}
	return m
}

// LightSource is the *LIGHT_TYPE enum.
type LightSource int

const (
	LightOmni LightSource = iota
	LightTarget
	LightFree
	LightDirectional
)

// Light is a *LIGHTOBJECT.
type Light struct {
	BaseNode

	Source    LightSource
	Color     [3]float32
	Intensity float32
	Angle     float32
	Falloff   float32
}

func newLight() *Light {
	return &Light{
		BaseNode:  newBaseNode(NodeLight),
		Color:     [3]float32{1, 1, 1},
		Intensity: 1,
		Angle:     45,
	}
}

// CameraKind is the *CAMERA_TYPE enum.
type CameraKind int

const (
	CameraFree CameraKind = iota
	CameraTarget
)

// Camera is a *CAMERAOBJECT.
type Camera struct {
	BaseNode

	Kind CameraKind
	FOV  float32
	Near float32
	Far  float32
}

func newCamera() *Camera {
	return &Camera{
		BaseNode: newBaseNode(NodeCamera),
		FOV:      0.75,
		Near:     0.1,
		Far:      1000,
	}
}

// Dummy is a *HELPEROBJECT: a node with no payload.
type Dummy struct {
	BaseNode
}

func newDummy() *Dummy {
	d := &Dummy{BaseNode: newBaseNode(NodeDummy)}
	d.Name = "DUMMY"
	return d
}
