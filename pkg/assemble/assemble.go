// Package assemble lowers a neutral asset.Document into the unified scene
// graph. It is format-agnostic: the section parser and the structured
// decoder both hand it the same document shape, and it never fails — every
// problem it meets degrades to a warning and a documented fallback.
package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/diag"
	"github.com/Faultbox/sceneport/pkg/math"
	"github.com/Faultbox/sceneport/pkg/scene"
)

type assembler struct {
	doc  *asset.Document
	out  *scene.Scene
	sink diag.Sink

	// meshOffsets[i] is the output index of source mesh i's first
	// primitive; the final entry is the total output count.
	meshOffsets []int

	// embedded[i] is the output texture slot of image i, -1 when the
	// image is referenced by path instead.
	embedded []int

	defaultMat int
	nodeNames  map[string]bool
}

// Build converts one document into a scene graph. The fixed stage order
// matters: materials need the embedded-texture table, nodes need every flat
// array they index into, and animations need the node names.
func Build(doc *asset.Document, sink diag.Sink) *scene.Scene {
	if sink == nil {
		sink = diag.Discard{}
	}
	a := &assembler{
		doc:        doc,
		out:        &scene.Scene{},
		sink:       sink,
		defaultMat: -1,
		nodeNames:  make(map[string]bool),
	}
	a.textures()
	a.materials()
	a.meshes()
	a.cameras()
	a.lights()
	a.nodes()
	a.animations()

	a.out.FormatVersion = doc.FormatVersion
	a.out.Generator = doc.Generator
	a.out.Copyright = doc.Copyright
	a.out.Incomplete = len(a.out.Meshes) == 0
	return a.out
}

func (a *assembler) warnf(format string, args ...any) {
	a.sink.Warn(0, fmt.Sprintf(format, args...))
}

// formatHint derives the 3-letter texture format hint from a media type.
func formatHint(mime string) string {
	slash := strings.IndexByte(mime, '/')
	if slash < 0 {
		return ""
	}
	sub := strings.ToLower(mime[slash+1:])
	if sub == "jpeg" {
		sub = "jpg"
	}
	if len(sub) > 3 {
		sub = sub[:3]
	}
	return sub
}

func (a *assembler) textures() {
	a.embedded = make([]int, len(a.doc.Images))
	for i, img := range a.doc.Images {
		if !img.HasData() {
			a.embedded[i] = -1
			continue
		}
		a.embedded[i] = len(a.out.Textures)
		a.out.Textures = append(a.out.Textures, &scene.Texture{
			Name:       img.Name,
			Data:       img.Data,
			FormatHint: formatHint(img.MIME),
		})
	}
}

func (a *assembler) materials() {
	for _, m := range a.doc.Materials {
		a.out.Materials = append(a.out.Materials, &scene.Material{
			Name:              m.Name,
			Ambient:           a.channel(m.Ambient),
			Diffuse:           a.channel(m.Diffuse),
			Specular:          a.channel(m.Specular),
			Emissive:          a.channel(m.Emissive),
			Opacity:           m.Transparency,
			Shininess:         m.Shininess,
			ShininessStrength: m.ShininessStrength,
			TwoSided:          m.TwoSided,
		})
	}
	if len(a.out.Materials) == 0 {
		a.defaultMat = 0
		a.out.Materials = append(a.out.Materials, scene.DefaultMaterial())
	}
}

func (a *assembler) channel(src asset.Channel) scene.MaterialChannel {
	ch := scene.MaterialChannel{
		Color: scene.Color4{R: src.Color[0], G: src.Color[1], B: src.Color[2], A: src.Color[3]},
	}
	ref := src.Texture
	if ref == nil {
		return ch
	}
	if ref.Image < 0 || ref.Image >= len(a.doc.Images) {
		a.warnf("material references image %d past the end of the image list", ref.Image)
		return ch
	}
	if slot := a.embedded[ref.Image]; slot >= 0 {
		ch.Texture = string(scene.EmbeddedTexturePrefix) + strconv.Itoa(slot)
	} else {
		img := a.doc.Images[ref.Image]
		ch.Texture = img.URI
		if ch.Texture == "" {
			ch.Texture = img.Name
		}
	}
	ch.Transform = scene.TextureTransform{
		OffsetU:  ref.OffsetU,
		OffsetV:  ref.OffsetV,
		ScaleU:   ref.ScaleU,
		ScaleV:   ref.ScaleV,
		Rotation: ref.Rotation,
		Blend:    ref.Blend,
	}
	return ch
}

// defaultMaterial lazily appends the placeholder for primitives with no
// material reference.
func (a *assembler) defaultMaterial() int {
	if a.defaultMat == -1 {
		a.defaultMat = len(a.out.Materials)
		a.out.Materials = append(a.out.Materials, scene.DefaultMaterial())
	}
	return a.defaultMat
}

func (a *assembler) meshes() {
	a.meshOffsets = make([]int, 0, len(a.doc.Meshes)+1)
	for _, src := range a.doc.Meshes {
		a.meshOffsets = append(a.meshOffsets, len(a.out.Meshes))

		// the mesh-level bone weights address the concatenation of
		// the primitives' vertex ranges
		base := uint32(0)
		for pi := range src.Primitives {
			prim := &src.Primitives[pi]
			name := src.Name
			if pi > 0 {
				name = fmt.Sprintf("%s-p%d", src.Name, pi)
			}
			m := a.convertPrimitive(name, prim)
			m.Bones = sliceBones(src.Bones, base, base+uint32(len(prim.Positions)))
			base += uint32(len(prim.Positions))
			a.out.Meshes = append(a.out.Meshes, m)
		}
	}
	a.meshOffsets = append(a.meshOffsets, len(a.out.Meshes))
}

func (a *assembler) convertPrimitive(name string, prim *asset.Primitive) *scene.Mesh {
	m := &scene.Mesh{Name: name}

	m.Vertices = append(m.Vertices, prim.Positions...)
	m.Normals = append(m.Normals, prim.Normals...)
	for c := 0; c < scene.MaxUVChannels && c < len(prim.TexCoords); c++ {
		set := prim.TexCoords[c]
		coords := make([]math.Vec3, len(set.Coords))
		for i, uv := range set.Coords {
			coords[i] = math.Vec3{X: uv.X, Y: 1 - uv.Y, Z: uv.Z}
		}
		m.TexCoords[c] = coords
		m.UVComponents[c] = set.Components
	}
	for _, set := range prim.Colors {
		colors := make([]scene.Color4, len(set))
		for i, c := range set {
			colors[i] = scene.Color4{R: c[0], G: c[1], B: c[2], A: c[3]}
		}
		m.Colors = append(m.Colors, colors)
	}

	if prim.Material >= 0 && prim.Material < len(a.doc.Materials) {
		m.MaterialIndex = prim.Material
	} else if prim.Material >= 0 {
		a.warnf("mesh %q references material %d past the end of the material list", name, prim.Material)
		m.MaterialIndex = a.defaultMaterial()
	} else {
		m.MaterialIndex = a.defaultMaterial()
	}

	indices := prim.Indices
	if indices == nil {
		indices = make([]uint32, len(prim.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	m.Kind, m.Faces = synthesizeFaces(prim.Mode, indices, name, a.sink)

	// out-of-range indices are reported but the mesh is still emitted
	n := uint32(len(m.Vertices))
	bad := 0
	for fi := range m.Faces {
		for _, idx := range m.Faces[fi].Indices {
			if idx >= n {
				bad++
			}
		}
	}
	if bad > 0 {
		a.warnf("mesh %q has %d face indices outside its %d vertices", name, bad, n)
	}
	return m
}

// synthesizeFaces expands a topology mode over an index sequence into
// uniform point/line/triangle faces.
func synthesizeFaces(mode asset.PrimitiveMode, indices []uint32, name string, sink diag.Sink) (scene.PrimitiveKind, []scene.Face) {
	count := len(indices)
	switch mode {
	case asset.ModePoints:
		faces := make([]scene.Face, count)
		for i, idx := range indices {
			faces[i] = scene.Face{Indices: []uint32{idx}}
		}
		return scene.PrimitivePoint, faces

	case asset.ModeLines:
		if count%2 != 0 {
			sink.Warn(0, fmt.Sprintf("mesh %q: odd index count %d for line topology, dropping the last index", name, count))
			count--
		}
		faces := make([]scene.Face, 0, count/2)
		for i := 0; i < count; i += 2 {
			faces = append(faces, scene.Face{Indices: []uint32{indices[i], indices[i+1]}})
		}
		return scene.PrimitiveLine, faces

	case asset.ModeLineStrip, asset.ModeLineLoop:
		if count < 2 {
			return scene.PrimitiveLine, nil
		}
		faces := make([]scene.Face, 0, count)
		for i := 1; i < count; i++ {
			faces = append(faces, scene.Face{Indices: []uint32{indices[i-1], indices[i]}})
		}
		if mode == asset.ModeLineLoop {
			faces = append(faces, scene.Face{Indices: []uint32{indices[count-1], indices[0]}})
		}
		return scene.PrimitiveLine, faces

	case asset.ModeTriangleStrip:
		if count < 3 {
			return scene.PrimitiveTriangle, nil
		}
		faces := make([]scene.Face, 0, count-2)
		for i := 2; i < count; i++ {
			faces = append(faces, scene.Face{Indices: []uint32{indices[i-2], indices[i-1], indices[i]}})
		}
		return scene.PrimitiveTriangle, faces

	case asset.ModeTriangleFan:
		if count < 3 {
			return scene.PrimitiveTriangle, nil
		}
		faces := make([]scene.Face, 0, count-2)
		for i := 2; i < count; i++ {
			faces = append(faces, scene.Face{Indices: []uint32{indices[0], indices[i-1], indices[i]}})
		}
		return scene.PrimitiveTriangle, faces

	default: // triangles
		if rem := count % 3; rem != 0 {
			sink.Warn(0, fmt.Sprintf("mesh %q: index count %d is not a multiple of 3, dropping %d trailing indices", name, count, rem))
			count -= rem
		}
		faces := make([]scene.Face, 0, count/3)
		for i := 0; i < count; i += 3 {
			faces = append(faces, scene.Face{Indices: []uint32{indices[i], indices[i+1], indices[i+2]}})
		}
		return scene.PrimitiveTriangle, faces
	}
}

// sliceBones extracts the bone influences falling into one primitive's
// vertex range, rebasing the vertex indices onto that range.
func sliceBones(bones []asset.Bone, lo, hi uint32) []*scene.Bone {
	var out []*scene.Bone
	for i := range bones {
		var weights []scene.VertexWeight
		for _, w := range bones[i].Weights {
			if w.Vertex < lo || w.Vertex >= hi {
				continue
			}
			weights = append(weights, scene.VertexWeight{
				VertexIndex: w.Vertex - lo,
				Weight:      w.Weight,
			})
		}
		if len(weights) > 0 {
			out = append(out, &scene.Bone{Name: bones[i].Name, Weights: weights})
		}
	}
	return out
}

func (a *assembler) cameras() {
	for _, c := range a.doc.Cameras {
		a.out.Cameras = append(a.out.Cameras, &scene.Camera{
			Name:   c.Name,
			FOV:    c.FOV,
			Aspect: c.Aspect,
			Near:   c.Near,
			Far:    c.Far,
		})
	}
}

func (a *assembler) lights() {
	for _, l := range a.doc.Lights {
		out := &scene.Light{
			Name:                 l.Name,
			Color:                scene.Color4{R: l.Color[0], G: l.Color[1], B: l.Color[2], A: 1},
			Intensity:            l.Intensity,
			AngleInnerCone:       l.AngleInnerCone,
			AngleOuterCone:       l.AngleOuterCone,
			AttenuationConstant:  l.AttenuationConstant,
			AttenuationLinear:    l.AttenuationLinear,
			AttenuationQuadratic: l.AttenuationQuadratic,
		}
		switch l.Kind {
		case asset.LightDirectional:
			out.Type = scene.LightDirectional
		case asset.LightSpot:
			out.Type = scene.LightSpot
		case asset.LightAmbient:
			out.Type = scene.LightAmbient
		default:
			out.Type = scene.LightPoint
		}
		a.out.Lights = append(a.out.Lights, out)
	}
}

// nodes builds the tree last so mesh, camera and light references can be
// resolved against the finished flat arrays. Cameras and lights get the
// name of the node carrying them written back.
func (a *assembler) nodes() {
	switch len(a.doc.Roots) {
	case 0:
		a.out.RootNode = &scene.Node{Name: "ROOT", Transform: math.Identity()}
	case 1:
		a.out.RootNode = a.convertNode(a.doc.Roots[0], nil)
	default:
		root := &scene.Node{Name: "ROOT", Transform: math.Identity()}
		for _, src := range a.doc.Roots {
			root.Children = append(root.Children, a.convertNode(src, root))
		}
		a.out.RootNode = root
	}
}

func (a *assembler) convertNode(src *asset.Node, parent *scene.Node) *scene.Node {
	n := &scene.Node{Name: src.Name, Parent: parent}
	a.nodeNames[src.Name] = true

	if src.Matrix != nil {
		n.Transform = *src.Matrix
	} else {
		t := math.Vec3{}
		s := math.Vec3{X: 1, Y: 1, Z: 1}
		r := math.QuatIdentity()
		if src.Translation != nil {
			t = *src.Translation
		}
		if src.Scale != nil {
			s = *src.Scale
		}
		if src.Rotation != nil {
			r = *src.Rotation
		}
		n.Transform = math.Compose(t, s, r)
	}

	for _, ref := range src.Meshes {
		if ref < 0 || ref+1 >= len(a.meshOffsets) {
			a.warnf("node %q references mesh %d past the end of the mesh list", src.Name, ref)
			continue
		}
		for out := a.meshOffsets[ref]; out < a.meshOffsets[ref+1]; out++ {
			n.Meshes = append(n.Meshes, out)
		}
	}
	if src.Camera >= 0 {
		if src.Camera < len(a.out.Cameras) {
			a.out.Cameras[src.Camera].Name = src.Name
		} else {
			a.warnf("node %q references camera %d past the end of the camera list", src.Name, src.Camera)
		}
	}
	if src.Light >= 0 {
		if src.Light < len(a.out.Lights) {
			a.out.Lights[src.Light].Name = src.Name
		} else {
			a.warnf("node %q references light %d past the end of the light list", src.Name, src.Light)
		}
	}

	for _, child := range src.Children {
		n.Children = append(n.Children, a.convertNode(child, n))
	}
	return n
}

// animations copies clips, dropping channels whose target node does not
// exist in the assembled tree.
func (a *assembler) animations() {
	for _, src := range a.doc.Animations {
		clip := &scene.Animation{
			Name:          src.Name,
			TicksPerFrame: src.TicksPerFrame,
		}
		for _, ch := range src.Channels {
			if ch.Empty() {
				continue
			}
			if !a.nodeNames[ch.Node] {
				a.warnf("animation %q targets unknown node %q, disabling the channel", src.Name, ch.Node)
				continue
			}
			out := &scene.NodeChannel{NodeName: ch.Node}
			out.PositionKeys = append(out.PositionKeys, convertVectorKeys(ch.PositionKeys)...)
			out.RotationKeys = append(out.RotationKeys, convertQuatKeys(ch.RotationKeys)...)
			out.ScalingKeys = append(out.ScalingKeys, convertVectorKeys(ch.ScalingKeys)...)
			clip.Channels = append(clip.Channels, out)
		}
		if len(clip.Channels) > 0 {
			a.out.Animations = append(a.out.Animations, clip)
		}
	}
}

func convertVectorKeys(keys []asset.VectorKey) []scene.VectorKey {
	out := make([]scene.VectorKey, len(keys))
	for i, k := range keys {
		out[i] = scene.VectorKey{Time: k.Time, Value: k.Value}
	}
	return out
}

func convertQuatKeys(keys []asset.QuatKey) []scene.QuatKey {
	out := make([]scene.QuatKey, len(keys))
	for i, k := range keys {
		out[i] = scene.QuatKey{Time: k.Time, Value: k.Value}
	}
	return out
}
