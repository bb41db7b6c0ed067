package ase

import (
	"sort"
	"strconv"

	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/math"
)

// builder lowers the parsed blocks into an asset.Document.
type builder struct {
	p   *Parser
	doc *asset.Document

	// flat material table: matBase[i] is the document index of parser
	// material i (or of its first submaterial).
	matBase []int
	subs    []int

	defaultMat int
	images     map[string]int
}

// Build lowers everything parsed so far into a neutral document. Meshes
// with submaterials are split into one primitive per used material slot,
// with one vertex per face corner.
func (p *Parser) Build() *asset.Document {
	b := &builder{
		p:          p,
		doc:        &asset.Document{},
		defaultMat: -1,
		images:     make(map[string]int),
	}
	b.doc.FormatVersion = strconv.FormatUint(uint64(p.format), 10)

	b.buildMaterials()

	nodes := make(map[string]*asset.Node)
	var order []*asset.Node
	parents := make(map[*asset.Node]string)

	addNode := func(src *BaseNode) *asset.Node {
		n := asset.NewNode(src.Name)
		t := src.Transform
		n.Matrix = &t
		n.InheritPosition = src.InheritPosition
		n.InheritRotation = src.InheritRotation
		n.InheritScaling = src.InheritScaling
		if _, ok := nodes[src.Name]; ok {
			p.warnf("duplicate node name %q", src.Name)
		} else {
			nodes[src.Name] = n
		}
		order = append(order, n)
		if src.Parent != "" {
			parents[n] = src.Parent
		}
		return n
	}

	for _, m := range p.Meshes {
		n := addNode(&m.BaseNode)
		n.Meshes = append(n.Meshes, len(b.doc.Meshes))
		b.doc.Meshes = append(b.doc.Meshes, b.buildMesh(m))
	}
	for _, d := range p.Dummies {
		addNode(&d.BaseNode)
	}
	for _, l := range p.Lights {
		n := addNode(&l.BaseNode)
		n.Light = len(b.doc.Lights)
		b.doc.Lights = append(b.doc.Lights, buildLight(l))
		if l.Source == LightTarget {
			b.addTargetNode(&l.BaseNode, nodes, &order)
		}
	}
	for _, c := range p.Cameras {
		n := addNode(&c.BaseNode)
		n.Camera = len(b.doc.Cameras)
		b.doc.Cameras = append(b.doc.Cameras, &asset.Camera{
			Name: c.Name,
			FOV:  c.FOV,
			Near: c.Near,
			Far:  c.Far,
		})
		if c.Kind == CameraTarget {
			b.addTargetNode(&c.BaseNode, nodes, &order)
		}
	}

	// attach children; a parent name that matches nothing degrades the
	// node to a root
	for _, n := range order {
		parentName, ok := parents[n]
		if !ok {
			b.doc.Roots = append(b.doc.Roots, n)
			continue
		}
		parent, ok := nodes[parentName]
		if !ok || parent == n {
			p.warnf("node %q references unknown parent %q", n.Name, parentName)
			b.doc.Roots = append(b.doc.Roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	b.buildAnimation()
	return b.doc
}

// addTargetNode synthesizes the aim-point node of a target camera or spot
// light as a sibling named "<node>.Target".
func (b *builder) addTargetNode(src *BaseNode, nodes map[string]*asset.Node, order *[]*asset.Node) {
	n := asset.NewNode(src.Name + ".Target")
	t := math.Translate(src.TargetPosition.X, src.TargetPosition.Y, src.TargetPosition.Z)
	n.Matrix = &t
	nodes[n.Name] = n
	*order = append(*order, n)
}

// buildMaterials flattens the two-level material list: a material with
// submaterials contributes only its submaterials, since faces address those
// directly.
func (b *builder) buildMaterials() {
	b.matBase = make([]int, len(b.p.Materials))
	b.subs = make([]int, len(b.p.Materials))
	for i := range b.p.Materials {
		m := &b.p.Materials[i]
		b.matBase[i] = len(b.doc.Materials)
		b.subs[i] = len(m.SubMaterials)
		if len(m.SubMaterials) == 0 {
			b.doc.Materials = append(b.doc.Materials, b.convertMaterial(m))
			continue
		}
		for j := range m.SubMaterials {
			b.doc.Materials = append(b.doc.Materials, b.convertMaterial(&m.SubMaterials[j]))
		}
	}
}

func (b *builder) convertMaterial(m *Material) *asset.Material {
	out := &asset.Material{
		Name:              m.Name,
		Transparency:      m.Transparency,
		Shininess:         m.Shininess,
		ShininessStrength: m.ShininessStrength,
		TwoSided:          m.TwoSided,
	}
	out.Ambient = b.convertChannel(m.Ambient, &m.TexAmbient)
	out.Diffuse = b.convertChannel(m.Diffuse, &m.TexDiffuse)
	out.Specular = b.convertChannel(m.Specular, &m.TexSpecular)
	out.Emissive = b.convertChannel(m.Emissive, &m.TexEmissive)
	return out
}

func (b *builder) convertChannel(color [3]float32, slot *MapSlot) asset.Channel {
	ch := asset.Channel{Color: [4]float32{color[0], color[1], color[2], 1}}
	if slot.Path == "" {
		return ch
	}
	idx, ok := b.images[slot.Path]
	if !ok {
		idx = len(b.doc.Images)
		b.images[slot.Path] = idx
		b.doc.Images = append(b.doc.Images, &asset.Image{
			Name: slot.Path,
			URI:  slot.Path,
		})
	}
	ch.Texture = &asset.TextureRef{
		Image:    idx,
		OffsetU:  slot.OffsetU,
		OffsetV:  slot.OffsetV,
		ScaleU:   slot.ScaleU,
		ScaleV:   slot.ScaleV,
		Rotation: slot.Rotation,
		Blend:    slot.Blend,
	}
	return ch
}

// faceMaterial resolves the document material of one face, combining the
// mesh's material reference with the face's submaterial slot.
func (b *builder) faceMaterial(mesh *Mesh, face *Face) int {
	mi := int(mesh.MaterialIndex)
	if mi >= len(b.matBase) {
		return b.defaultMaterial()
	}
	if b.subs[mi] == 0 {
		return b.matBase[mi]
	}
	sub := int(face.Material)
	if sub >= b.subs[mi] {
		sub = b.subs[mi] - 1
	}
	return b.matBase[mi] + sub
}

// defaultMaterial lazily appends the fallback material referenced by meshes
// whose material index points past the declared list.
func (b *builder) defaultMaterial() int {
	if b.defaultMat == -1 {
		b.defaultMat = len(b.doc.Materials)
		gray := [4]float32{0.6, 0.6, 0.6, 1}
		b.doc.Materials = append(b.doc.Materials, &asset.Material{
			Name:         "DefaultMaterial",
			Ambient:      asset.Channel{Color: gray},
			Diffuse:      asset.Channel{Color: gray},
			Transparency: 1,
		})
	}
	return b.defaultMat
}

func (b *builder) buildMesh(src *Mesh) *asset.Mesh {
	out := &asset.Mesh{Name: src.Name}

	// group faces by resolved material; iteration must stay deterministic
	groups := make(map[int][]int)
	for fi := range src.Faces {
		mat := b.faceMaterial(src, &src.Faces[fi])
		groups[mat] = append(groups[mat], fi)
	}
	mats := make([]int, 0, len(groups))
	for mat := range groups {
		mats = append(mats, mat)
	}
	sort.Ints(mats)

	// which vertex of the lowered mesh each (face, corner) pair became,
	// for remapping bone weights
	cornerVertex := make([]uint32, len(src.Faces)*3)
	vertexCount := uint32(0)

	for _, mat := range mats {
		faces := groups[mat]
		prim := asset.Primitive{
			Mode:     asset.ModeTriangles,
			Material: mat,
		}
		n := len(faces) * 3
		prim.Positions = make([]math.Vec3, 0, n)
		hasNormals := len(src.Normals) == len(src.Faces)*3

		var uvChannels []int
		for c := 0; c < maxUVChannels; c++ {
			if len(src.TexCoords[c]) > 0 {
				uvChannels = append(uvChannels, c)
			}
		}
		prim.TexCoords = make([]asset.UVSet, len(uvChannels))
		for i, c := range uvChannels {
			prim.TexCoords[i].Components = src.UVComponents[c]
			prim.TexCoords[i].Coords = make([]math.Vec3, 0, n)
		}
		var colors [][4]float32
		if len(src.VertexColors) > 0 {
			colors = make([][4]float32, 0, n)
		}

		for _, fi := range faces {
			face := &src.Faces[fi]
			for corner := 0; corner < 3; corner++ {
				vi := face.Indices[corner]
				var pos math.Vec3
				if int(vi) < len(src.Positions) {
					pos = src.Positions[vi]
				} else {
					b.p.warnf("face %d references vertex %d past the end of the position list", face.ID, vi)
				}
				cornerVertex[fi*3+corner] = vertexCount + uint32(len(prim.Positions))
				prim.Positions = append(prim.Positions, pos)

				if hasNormals {
					prim.Normals = append(prim.Normals, src.Normals[fi*3+corner].Normalize())
				}
				for i, c := range uvChannels {
					var uv math.Vec3
					ti := face.UVIndices[c][corner]
					if int(ti) < len(src.TexCoords[c]) {
						uv = src.TexCoords[c][ti]
					}
					prim.TexCoords[i].Coords = append(prim.TexCoords[i].Coords, uv)
				}
				if colors != nil {
					var col [4]float32
					ci := face.ColorIndices[corner]
					if int(ci) < len(src.VertexColors) {
						col = src.VertexColors[ci]
					}
					colors = append(colors, col)
				}
			}
		}
		if colors != nil {
			prim.Colors = [][][4]float32{colors}
		}
		vertexCount += uint32(len(prim.Positions))
		out.Primitives = append(out.Primitives, prim)
	}

	out.Bones = b.buildBones(src, cornerVertex)
	return out
}

// buildBones remaps the per-source-vertex weights onto the duplicated
// per-corner vertices of the lowered mesh.
func (b *builder) buildBones(src *Mesh, cornerVertex []uint32) []asset.Bone {
	if len(src.Bones) == 0 || len(src.BoneVertices) == 0 {
		return nil
	}
	bones := make([]asset.Bone, len(src.Bones))
	for i := range src.Bones {
		bones[i].Name = src.Bones[i].Name
	}
	for fi := range src.Faces {
		face := &src.Faces[fi]
		for corner := 0; corner < 3; corner++ {
			vi := face.Indices[corner]
			if int(vi) >= len(src.BoneVertices) {
				continue
			}
			for _, w := range src.BoneVertices[vi].Weights {
				if w.Bone < 0 || w.Bone >= len(bones) {
					continue
				}
				bones[w.Bone].Weights = append(bones[w.Bone].Weights, asset.VertexWeight{
					Vertex: cornerVertex[fi*3+corner],
					Weight: w.Weight,
				})
			}
		}
	}
	return bones
}

func buildLight(l *Light) *asset.Light {
	out := &asset.Light{
		Name:      l.Name,
		Color:     l.Color,
		Intensity: l.Intensity,
	}
	switch l.Source {
	case LightDirectional:
		out.Kind = asset.LightDirectional
	case LightTarget:
		out.Kind = asset.LightSpot
		out.AngleInnerCone = l.Angle
		out.AngleOuterCone = l.Angle + l.Falloff
	default:
		out.Kind = asset.LightPoint
	}
	return out
}

// buildAnimation collects every non-empty node track into a single clip.
func (b *builder) buildAnimation() {
	var channels []*asset.AnimChannel

	add := func(node string, a *Animation) {
		if a.empty() {
			return
		}
		channels = append(channels, &asset.AnimChannel{
			Node:           node,
			PositionInterp: a.PositionType,
			RotationInterp: a.RotationType,
			ScalingInterp:  a.ScalingType,
			PositionKeys:   a.PositionKeys,
			RotationKeys:   a.RotationKeys,
			ScalingKeys:    a.ScalingKeys,
		})
	}
	collect := func(base *BaseNode) {
		add(base.Name, &base.Anim)
		add(base.Name+".Target", &base.TargetAnim)
	}
	for _, m := range b.p.Meshes {
		collect(&m.BaseNode)
	}
	for _, d := range b.p.Dummies {
		collect(&d.BaseNode)
	}
	for _, l := range b.p.Lights {
		collect(&l.BaseNode)
	}
	for _, c := range b.p.Cameras {
		collect(&c.BaseNode)
	}
	if len(channels) == 0 {
		return
	}
	ticks := float64(b.p.Scene.TicksPerFrame)
	if ticks == 0 {
		ticks = 1
	}
	b.doc.Animations = append(b.doc.Animations, &asset.Animation{
		TicksPerFrame: ticks,
		Channels:      channels,
	})
}
