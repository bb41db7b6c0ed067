// Package gltf decodes glTF 2.0 documents (.gltf and binary .glb) into the
// intermediate asset model. The heavy lifting of buffer and accessor
// decoding is delegated to qmuntal/gltf; this package only maps the decoded
// document onto asset types.
package gltf

import (
	"bytes"
	"fmt"

	"github.com/h2non/filetype"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/diag"
	"github.com/Faultbox/sceneport/pkg/math"
)

// maxUVChannels matches the number of UV sets the rest of the pipeline
// carries per primitive.
const maxUVChannels = 4

var identity16 = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

type decoder struct {
	src  *gltf.Document
	doc  *asset.Document
	sink diag.Sink
}

// Decode maps one glTF byte range onto a neutral document. Malformed JSON
// or buffer layout is fatal; recoverable oddities go to sink.
func Decode(data []byte, sink diag.Sink) (*asset.Document, error) {
	src := gltf.NewDocument()
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(src); err != nil {
		return nil, diag.Fatalf(0, "decoding glTF document: %v", err)
	}
	return decodeDocument(src, sink)
}

func decodeDocument(src *gltf.Document, sink diag.Sink) (*asset.Document, error) {
	if sink == nil {
		sink = diag.Discard{}
	}
	d := &decoder{src: src, doc: &asset.Document{}, sink: sink}
	d.doc.FormatVersion = src.Asset.Version
	d.doc.Generator = src.Asset.Generator
	d.doc.Copyright = src.Asset.Copyright

	if err := d.images(); err != nil {
		return nil, err
	}
	d.materials()
	if err := d.meshes(); err != nil {
		return nil, err
	}
	d.cameras()
	d.lights()
	d.nodes()
	d.animations()
	return d.doc, nil
}

func (d *decoder) warnf(format string, args ...any) {
	d.sink.Warn(0, fmt.Sprintf(format, args...))
}

func (d *decoder) images() error {
	for _, img := range d.src.Images {
		out := &asset.Image{Name: img.Name, URI: img.URI, MIME: img.MimeType}
		if img.BufferView != nil {
			data, err := modeler.ReadBufferView(d.src, d.src.BufferViews[*img.BufferView])
			if err != nil {
				return diag.Fatalf(0, "reading image buffer view: %v", err)
			}
			out.Data = data
			out.URI = ""
			if out.MIME == "" {
				// embedded payloads are not always tagged
				if kind, err := filetype.Match(data); err == nil {
					out.MIME = kind.MIME.Value
				}
			}
		}
		d.doc.Images = append(d.doc.Images, out)
	}
	return nil
}

// materials maps the PBR metallic-roughness model onto the channel model:
// the base color becomes the diffuse channel, the emissive factor the
// emissive channel.
func (d *decoder) materials() {
	for _, m := range d.src.Materials {
		out := &asset.Material{
			Name:         m.Name,
			Transparency: 1,
			TwoSided:     m.DoubleSided,
		}
		out.Diffuse.Color = [4]float32{1, 1, 1, 1}
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				for i := 0; i < 4; i++ {
					out.Diffuse.Color[i] = float32(pbr.BaseColorFactor[i])
				}
				out.Transparency = out.Diffuse.Color[3]
			}
			if tex := pbr.BaseColorTexture; tex != nil {
				out.Diffuse.Texture = d.textureRef(int(tex.Index))
			}
			if pbr.RoughnessFactor != nil {
				// a rough surface has a dull highlight
				out.Shininess = float32(1 - *pbr.RoughnessFactor)
			}
		}
		out.Emissive.Color = [4]float32{
			float32(m.EmissiveFactor[0]),
			float32(m.EmissiveFactor[1]),
			float32(m.EmissiveFactor[2]),
			1,
		}
		if m.EmissiveTexture != nil {
			out.Emissive.Texture = d.textureRef(int(m.EmissiveTexture.Index))
		}
		d.doc.Materials = append(d.doc.Materials, out)
	}
}

// textureRef resolves a texture to its image index. glTF samplers carry no
// UV transform, so the reference is identity apart from the target image.
func (d *decoder) textureRef(texture int) *asset.TextureRef {
	if texture >= len(d.src.Textures) {
		d.warnf("texture index %d out of range", texture)
		return nil
	}
	source := d.src.Textures[texture].Source
	if source == nil {
		d.warnf("texture %d has no image source", texture)
		return nil
	}
	return &asset.TextureRef{
		Image:  int(*source),
		ScaleU: 1,
		ScaleV: 1,
		Blend:  1,
	}
}

func primitiveMode(mode gltf.PrimitiveMode) asset.PrimitiveMode {
	switch mode {
	case gltf.PrimitivePoints:
		return asset.ModePoints
	case gltf.PrimitiveLines:
		return asset.ModeLines
	case gltf.PrimitiveLineLoop:
		return asset.ModeLineLoop
	case gltf.PrimitiveLineStrip:
		return asset.ModeLineStrip
	case gltf.PrimitiveTriangleStrip:
		return asset.ModeTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return asset.ModeTriangleFan
	default:
		return asset.ModeTriangles
	}
}

func (d *decoder) meshes() error {
	for _, m := range d.src.Meshes {
		out := &asset.Mesh{Name: m.Name}
		for _, prim := range m.Primitives {
			p := asset.Primitive{
				Mode:     primitiveMode(prim.Mode),
				Material: -1,
			}
			if prim.Material != nil {
				p.Material = int(*prim.Material)
			}

			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				d.warnf("mesh %q has a primitive without positions, skipping it", m.Name)
				continue
			}
			positions, err := modeler.ReadPosition(d.src, d.src.Accessors[posIdx], nil)
			if err != nil {
				return diag.Fatalf(0, "reading positions of mesh %q: %v", m.Name, err)
			}
			p.Positions = make([]math.Vec3, len(positions))
			for i, v := range positions {
				p.Positions[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
			}

			if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
				normals, err := modeler.ReadNormal(d.src, d.src.Accessors[normIdx], nil)
				if err != nil {
					return diag.Fatalf(0, "reading normals of mesh %q: %v", m.Name, err)
				}
				p.Normals = make([]math.Vec3, len(normals))
				for i, v := range normals {
					p.Normals[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
				}
			}

			for channel := 0; channel < maxUVChannels; channel++ {
				uvIdx, ok := prim.Attributes[fmt.Sprintf("TEXCOORD_%d", channel)]
				if !ok {
					break
				}
				coords, err := modeler.ReadTextureCoord(d.src, d.src.Accessors[uvIdx], nil)
				if err != nil {
					return diag.Fatalf(0, "reading texture coordinates of mesh %q: %v", m.Name, err)
				}
				set := asset.UVSet{Components: 2, Coords: make([]math.Vec3, len(coords))}
				for i, uv := range coords {
					set.Coords[i] = math.Vec3{X: uv[0], Y: uv[1]}
				}
				p.TexCoords = append(p.TexCoords, set)
			}

			for channel := 0; ; channel++ {
				colIdx, ok := prim.Attributes[fmt.Sprintf("COLOR_%d", channel)]
				if !ok {
					break
				}
				colors, err := modeler.ReadColor64(d.src, d.src.Accessors[colIdx], nil)
				if err != nil {
					return diag.Fatalf(0, "reading colors of mesh %q: %v", m.Name, err)
				}
				set := make([][4]float32, len(colors))
				for i, c := range colors {
					for j := 0; j < 4; j++ {
						set[i][j] = float32(c[j]) / 65535
					}
				}
				p.Colors = append(p.Colors, set)
			}

			if prim.Indices != nil {
				indices, err := modeler.ReadIndices(d.src, d.src.Accessors[*prim.Indices], nil)
				if err != nil {
					return diag.Fatalf(0, "reading indices of mesh %q: %v", m.Name, err)
				}
				p.Indices = indices
			}
			out.Primitives = append(out.Primitives, p)
		}
		d.doc.Meshes = append(d.doc.Meshes, out)
	}
	return nil
}

func (d *decoder) cameras() {
	for _, c := range d.src.Cameras {
		out := &asset.Camera{Name: c.Name}
		if persp := c.Perspective; persp != nil {
			out.FOV = float32(persp.Yfov)
			out.Near = float32(persp.Znear)
			if persp.Zfar != nil {
				out.Far = float32(*persp.Zfar)
			}
			if persp.AspectRatio != nil {
				out.Aspect = float32(*persp.AspectRatio)
			}
		} else {
			d.warnf("camera %q is not perspective, keeping defaults", c.Name)
		}
		d.doc.Cameras = append(d.doc.Cameras, out)
	}
}

func (d *decoder) lights() {
	ext, ok := d.src.Extensions[lightspunctual.ExtensionName]
	if !ok {
		return
	}
	lights, ok := ext.(lightspunctual.Lights)
	if !ok {
		d.warnf("ignoring malformed %s extension", lightspunctual.ExtensionName)
		return
	}
	for _, l := range lights {
		out := &asset.Light{Name: l.Name, Intensity: 1, Color: [3]float32{1, 1, 1}}
		if l.Intensity != nil {
			out.Intensity = float32(*l.Intensity)
		}
		if l.Color != nil {
			for i := 0; i < 3; i++ {
				out.Color[i] = float32(l.Color[i])
			}
		}
		switch l.Type {
		case lightspunctual.TypeDirectional:
			out.Kind = asset.LightDirectional
		case lightspunctual.TypeSpot:
			out.Kind = asset.LightSpot
			inner := 0.0
			outer := 0.7853981633974483 // pi/4, the glTF default
			if l.Spot != nil {
				inner = l.Spot.InnerConeAngle
				if l.Spot.OuterConeAngle != nil {
					outer = *l.Spot.OuterConeAngle
				}
			}
			out.AngleInnerCone = float32(inner)
			out.AngleOuterCone = float32(outer)
		default:
			out.Kind = asset.LightPoint
		}
		d.doc.Lights = append(d.doc.Lights, out)
	}
}

func (d *decoder) nodes() {
	converted := make([]*asset.Node, len(d.src.Nodes))
	for i, n := range d.src.Nodes {
		out := asset.NewNode(n.Name)
		if n.Matrix != identity16 {
			var m math.Mat4
			for j := 0; j < 16; j++ {
				m[j] = float32(n.Matrix[j])
			}
			out.Matrix = &m
		} else {
			t := math.Vec3{
				X: float32(n.Translation[0]),
				Y: float32(n.Translation[1]),
				Z: float32(n.Translation[2]),
			}
			r := math.Quat{
				X: float32(n.Rotation[0]),
				Y: float32(n.Rotation[1]),
				Z: float32(n.Rotation[2]),
				W: float32(n.Rotation[3]),
			}
			s := math.Vec3{
				X: float32(n.Scale[0]),
				Y: float32(n.Scale[1]),
				Z: float32(n.Scale[2]),
			}
			out.Translation = &t
			out.Rotation = &r
			out.Scale = &s
		}
		if n.Mesh != nil {
			out.Meshes = append(out.Meshes, int(*n.Mesh))
		}
		if n.Camera != nil {
			out.Camera = int(*n.Camera)
		}
		if ext, ok := n.Extensions[lightspunctual.ExtensionName]; ok {
			if idx, ok := ext.(lightspunctual.LightIndex); ok {
				out.Light = int(idx)
			}
		}
		converted[i] = out
	}
	for i, n := range d.src.Nodes {
		for _, child := range n.Children {
			converted[i].Children = append(converted[i].Children, converted[child])
		}
	}

	if len(d.src.Scenes) == 0 {
		// no scene declaration: every parentless node is a root
		isChild := make([]bool, len(converted))
		for _, n := range d.src.Nodes {
			for _, child := range n.Children {
				isChild[child] = true
			}
		}
		for i, n := range converted {
			if !isChild[i] {
				d.doc.Roots = append(d.doc.Roots, n)
			}
		}
		return
	}
	scene := d.src.Scenes[0]
	if d.src.Scene != nil && int(*d.src.Scene) < len(d.src.Scenes) {
		scene = d.src.Scenes[*d.src.Scene]
	}
	for _, root := range scene.Nodes {
		d.doc.Roots = append(d.doc.Roots, converted[root])
	}
}

func interpolationKind(i gltf.Interpolation) asset.InterpKind {
	if i == gltf.InterpolationCubicSpline {
		return asset.InterpBezier
	}
	return asset.InterpTrack
}

// animations converts sampler pairs into keyframe lists. Channel times are
// seconds; the clip's tick rate is 1.
func (d *decoder) animations() {
	for _, a := range d.src.Animations {
		clip := &asset.Animation{Name: a.Name, TicksPerFrame: 1}
		byNode := make(map[string]*asset.AnimChannel)

		channelFor := func(node string) *asset.AnimChannel {
			ch, ok := byNode[node]
			if !ok {
				ch = &asset.AnimChannel{Node: node}
				byNode[node] = ch
				clip.Channels = append(clip.Channels, ch)
			}
			return ch
		}

		for _, channel := range a.Channels {
			if channel.Target.Node == nil {
				continue
			}
			sampler := a.Samplers[channel.Sampler]
			node := d.src.Nodes[*channel.Target.Node].Name

			id, err := modeler.ReadAccessor(d.src, d.src.Accessors[sampler.Input], nil)
			if err != nil {
				d.warnf("reading animation input of %q: %v", a.Name, err)
				continue
			}
			times, ok := id.([]float32)
			if !ok {
				d.warnf("animation %q has a non-scalar input accessor", a.Name)
				continue
			}
			od, err := modeler.ReadAccessor(d.src, d.src.Accessors[sampler.Output], nil)
			if err != nil {
				d.warnf("reading animation output of %q: %v", a.Name, err)
				continue
			}

			ch := channelFor(node)
			kind := interpolationKind(sampler.Interpolation)
			switch channel.Target.Path {
			case gltf.TRSTranslation:
				values, ok := od.([][3]float32)
				if !ok || len(values) < len(times) {
					d.warnf("animation %q has a mismatched translation sampler", a.Name)
					continue
				}
				ch.PositionInterp = kind
				for i, t := range times {
					ch.PositionKeys = append(ch.PositionKeys, asset.VectorKey{
						Time:  float64(t),
						Value: math.Vec3{X: values[i][0], Y: values[i][1], Z: values[i][2]},
					})
				}
			case gltf.TRSScale:
				values, ok := od.([][3]float32)
				if !ok || len(values) < len(times) {
					d.warnf("animation %q has a mismatched scale sampler", a.Name)
					continue
				}
				ch.ScalingInterp = kind
				for i, t := range times {
					ch.ScalingKeys = append(ch.ScalingKeys, asset.VectorKey{
						Time:  float64(t),
						Value: math.Vec3{X: values[i][0], Y: values[i][1], Z: values[i][2]},
					})
				}
			case gltf.TRSRotation:
				values, ok := od.([][4]float32)
				if !ok || len(values) < len(times) {
					d.warnf("animation %q has a mismatched rotation sampler", a.Name)
					continue
				}
				ch.RotationInterp = kind
				for i, t := range times {
					ch.RotationKeys = append(ch.RotationKeys, asset.QuatKey{
						Time:  float64(t),
						Value: math.Quat{X: values[i][0], Y: values[i][1], Z: values[i][2], W: values[i][3]},
					})
				}
			}
		}
		if len(clip.Channels) > 0 {
			d.doc.Animations = append(d.doc.Animations, clip)
		}
	}
}
