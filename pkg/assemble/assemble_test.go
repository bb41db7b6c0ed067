package assemble

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/diag"
	"github.com/Faultbox/sceneport/pkg/math"
	"github.com/Faultbox/sceneport/pkg/scene"
)

func facesOf(m *scene.Mesh) [][]uint32 {
	out := make([][]uint32, len(m.Faces))
	for i, f := range m.Faces {
		out[i] = f.Indices
	}
	return out
}

func TestSynthesizeFaces(t *testing.T) {
	tests := []struct {
		name     string
		mode     asset.PrimitiveMode
		indices  []uint32
		kind     scene.PrimitiveKind
		faces    [][]uint32
		warnings int
	}{
		{
			name:    "points",
			mode:    asset.ModePoints,
			indices: []uint32{0, 1, 2},
			kind:    scene.PrimitivePoint,
			faces:   [][]uint32{{0}, {1}, {2}},
		},
		{
			name:    "lines",
			mode:    asset.ModeLines,
			indices: []uint32{0, 1, 2, 3},
			kind:    scene.PrimitiveLine,
			faces:   [][]uint32{{0, 1}, {2, 3}},
		},
		{
			name:     "lines odd count drops tail",
			mode:     asset.ModeLines,
			indices:  []uint32{0, 1, 2},
			kind:     scene.PrimitiveLine,
			faces:    [][]uint32{{0, 1}},
			warnings: 1,
		},
		{
			name:    "line strip",
			mode:    asset.ModeLineStrip,
			indices: []uint32{0, 1, 2},
			kind:    scene.PrimitiveLine,
			faces:   [][]uint32{{0, 1}, {1, 2}},
		},
		{
			name:    "line loop closes",
			mode:    asset.ModeLineLoop,
			indices: []uint32{0, 1, 2},
			kind:    scene.PrimitiveLine,
			faces:   [][]uint32{{0, 1}, {1, 2}, {2, 0}},
		},
		{
			name:    "triangles",
			mode:    asset.ModeTriangles,
			indices: []uint32{0, 1, 2, 3, 4, 5},
			kind:    scene.PrimitiveTriangle,
			faces:   [][]uint32{{0, 1, 2}, {3, 4, 5}},
		},
		{
			name:     "triangles with remainder",
			mode:     asset.ModeTriangles,
			indices:  []uint32{0, 1, 2, 3},
			kind:     scene.PrimitiveTriangle,
			faces:    [][]uint32{{0, 1, 2}},
			warnings: 1,
		},
		{
			name:    "triangle strip",
			mode:    asset.ModeTriangleStrip,
			indices: []uint32{0, 1, 2, 3},
			kind:    scene.PrimitiveTriangle,
			faces:   [][]uint32{{0, 1, 2}, {1, 2, 3}},
		},
		{
			name:    "triangle fan",
			mode:    asset.ModeTriangleFan,
			indices: []uint32{0, 1, 2, 3, 4},
			kind:    scene.PrimitiveTriangle,
			faces:   [][]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &diag.Recorder{}
			kind, faces := synthesizeFaces(tt.mode, tt.indices, "m", rec)
			if kind != tt.kind {
				t.Errorf("kind = %v, want %v", kind, tt.kind)
			}
			got := make([][]uint32, len(faces))
			for i, f := range faces {
				got[i] = f.Indices
			}
			if !reflect.DeepEqual(got, tt.faces) {
				t.Errorf("faces = %v, want %v", got, tt.faces)
			}
			if len(rec.Warnings) != tt.warnings {
				t.Errorf("got %d warnings, want %d", len(rec.Warnings), tt.warnings)
			}
		})
	}
}

func quadMesh(name string, mode asset.PrimitiveMode) *asset.Mesh {
	return &asset.Mesh{
		Name: name,
		Primitives: []asset.Primitive{{
			Mode: mode,
			Positions: []math.Vec3{
				{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
			},
			Indices:  []uint32{0, 1, 2, 0, 2, 3},
			Material: -1,
		}},
	}
}

func TestMeshOffsetExpansion(t *testing.T) {
	doc := &asset.Document{}
	// five filler primitives so the interesting mesh starts at offset 5
	for i := 0; i < 5; i++ {
		doc.Meshes = append(doc.Meshes, quadMesh("filler", asset.ModeTriangles))
	}
	multi := quadMesh("multi", asset.ModeTriangles)
	multi.Primitives = append(multi.Primitives, multi.Primitives[0], multi.Primitives[0])
	doc.Meshes = append(doc.Meshes, multi)

	node := asset.NewNode("holder")
	node.Meshes = []int{5}
	doc.Roots = []*asset.Node{node}

	s := Build(doc, nil)
	if len(s.Meshes) != 8 {
		t.Fatalf("got %d meshes, want 8", len(s.Meshes))
	}
	if want := []int{5, 6, 7}; !reflect.DeepEqual(s.RootNode.Meshes, want) {
		t.Errorf("node meshes = %v, want %v", s.RootNode.Meshes, want)
	}
	if s.Meshes[5].Name != "multi" || s.Meshes[6].Name != "multi-p1" || s.Meshes[7].Name != "multi-p2" {
		t.Errorf("split names = %q %q %q", s.Meshes[5].Name, s.Meshes[6].Name, s.Meshes[7].Name)
	}
}

func TestImpliedIndexSequence(t *testing.T) {
	doc := &asset.Document{}
	m := quadMesh("q", asset.ModeTriangleFan)
	m.Primitives[0].Indices = nil
	doc.Meshes = append(doc.Meshes, m)

	s := Build(doc, nil)
	want := [][]uint32{{0, 1, 2}, {0, 2, 3}}
	if got := facesOf(s.Meshes[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("faces = %v, want %v", got, want)
	}
}

func TestOutOfRangeFaceIndexKeepsMesh(t *testing.T) {
	doc := &asset.Document{}
	m := quadMesh("q", asset.ModeTriangles)
	m.Primitives[0].Indices = []uint32{0, 1, 9}
	doc.Meshes = append(doc.Meshes, m)

	rec := &diag.Recorder{}
	s := Build(doc, rec)
	if len(s.Meshes) != 1 || len(s.Meshes[0].Faces) != 1 {
		t.Fatalf("mesh with a bad index was dropped")
	}
	found := false
	for _, w := range rec.Warnings {
		if strings.Contains(w.Msg, "outside") {
			found = true
		}
	}
	if !found {
		t.Errorf("no out-of-range warning recorded: %+v", rec.Warnings)
	}
}

func TestDefaultMaterial(t *testing.T) {
	s := Build(&asset.Document{Meshes: []*asset.Mesh{quadMesh("q", asset.ModeTriangles)}}, nil)
	if len(s.Materials) != 1 {
		t.Fatalf("got %d materials, want 1", len(s.Materials))
	}
	if s.Materials[0].Name != "DefaultMaterial" {
		t.Errorf("material name = %q", s.Materials[0].Name)
	}
	if s.Meshes[0].MaterialIndex != 0 {
		t.Errorf("mesh material = %d", s.Meshes[0].MaterialIndex)
	}
}

func TestEmptyDocumentStillHasMaterialAndRoot(t *testing.T) {
	s := Build(&asset.Document{}, nil)
	if len(s.Materials) != 1 {
		t.Errorf("got %d materials, want 1", len(s.Materials))
	}
	if s.RootNode == nil || s.RootNode.Name != "ROOT" {
		t.Errorf("root = %+v", s.RootNode)
	}
	if !s.Incomplete {
		t.Error("zero meshes must mark the scene incomplete")
	}
}

func TestEmbeddedTextureSigil(t *testing.T) {
	doc := &asset.Document{
		Images: []*asset.Image{
			{Name: "a.png", URI: "a.png"},
			{Name: "b", Data: []byte{1}, MIME: "image/png"},
			{Name: "c", Data: []byte{2}, MIME: "image/jpeg"},
			{Name: "d", Data: []byte{3}, MIME: "image/tiff"},
		},
		Materials: []*asset.Material{
			{Name: "path", Diffuse: asset.Channel{Texture: &asset.TextureRef{Image: 0}}},
			{Name: "embedded", Diffuse: asset.Channel{Texture: &asset.TextureRef{Image: 3}}},
		},
	}

	s := Build(doc, nil)
	if len(s.Textures) != 3 {
		t.Fatalf("got %d textures, want 3", len(s.Textures))
	}
	if s.Materials[0].Diffuse.Texture != "a.png" {
		t.Errorf("path texture = %q", s.Materials[0].Diffuse.Texture)
	}
	if s.Materials[1].Diffuse.Texture != "*2" {
		t.Errorf("embedded texture = %q", s.Materials[1].Diffuse.Texture)
	}
	hints := []string{"png", "jpg", "tif"}
	for i, want := range hints {
		if s.Textures[i].FormatHint != want {
			t.Errorf("texture %d hint = %q, want %q", i, s.Textures[i].FormatHint, want)
		}
	}
}

func TestUVFlip(t *testing.T) {
	doc := &asset.Document{}
	m := quadMesh("q", asset.ModeTriangles)
	m.Primitives[0].TexCoords = []asset.UVSet{{
		Components: 2,
		Coords: []math.Vec3{
			{X: 0, Y: 0}, {X: 1, Y: 0.25}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
	}}
	doc.Meshes = append(doc.Meshes, m)

	s := Build(doc, nil)
	uv := s.Meshes[0].TexCoords[0]
	if uv[0].Y != 1 || uv[1].Y != 0.75 || uv[2].Y != 0 {
		t.Errorf("flipped V = %v %v %v", uv[0].Y, uv[1].Y, uv[2].Y)
	}
	if s.Meshes[0].UVComponents[0] != 2 {
		t.Errorf("components = %d", s.Meshes[0].UVComponents[0])
	}
}

func TestNodeTransformMatrixWins(t *testing.T) {
	mat := math.Translate(7, 0, 0)
	trans := math.Vec3{X: 1, Y: 2, Z: 3}
	node := asset.NewNode("n")
	node.Matrix = &mat
	node.Translation = &trans

	s := Build(&asset.Document{Roots: []*asset.Node{node}}, nil)
	if got := s.RootNode.Transform.TransformPoint(math.Vec3{}); got != (math.Vec3{X: 7}) {
		t.Errorf("transform moved origin to %v, want (7 0 0)", got)
	}
}

func TestNodeTransformComposed(t *testing.T) {
	trans := math.Vec3{X: 1, Y: 2, Z: 3}
	node := asset.NewNode("n")
	node.Translation = &trans

	s := Build(&asset.Document{Roots: []*asset.Node{node}}, nil)
	if got := s.RootNode.Transform.TransformPoint(math.Vec3{}); got != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("transform moved origin to %v", got)
	}
}

func TestMultipleRootsWrapped(t *testing.T) {
	doc := &asset.Document{
		Roots: []*asset.Node{asset.NewNode("a"), asset.NewNode("b")},
	}
	s := Build(doc, nil)
	if s.RootNode.Name != "ROOT" || len(s.RootNode.Children) != 2 {
		t.Fatalf("root = %+v", s.RootNode)
	}
	if s.RootNode.Children[0].Parent != s.RootNode {
		t.Error("child does not point back at the synthesized root")
	}
}

func TestCameraAndLightNameBinding(t *testing.T) {
	camNode := asset.NewNode("eye")
	camNode.Camera = 0
	lightNode := asset.NewNode("lamp")
	lightNode.Light = 0
	doc := &asset.Document{
		Roots:   []*asset.Node{camNode, lightNode},
		Cameras: []*asset.Camera{{Name: "", FOV: 1}},
		Lights:  []*asset.Light{{Kind: asset.LightSpot, AngleInnerCone: 0.5}},
	}

	s := Build(doc, nil)
	if s.Cameras[0].Name != "eye" {
		t.Errorf("camera name = %q", s.Cameras[0].Name)
	}
	if s.Lights[0].Name != "lamp" || s.Lights[0].Type != scene.LightSpot {
		t.Errorf("light = %+v", s.Lights[0])
	}
}

func TestAnimationUnknownTargetDisabled(t *testing.T) {
	doc := &asset.Document{
		Roots: []*asset.Node{asset.NewNode("real")},
		Animations: []*asset.Animation{{
			TicksPerFrame: 4,
			Channels: []*asset.AnimChannel{
				{Node: "real", PositionKeys: []asset.VectorKey{{Time: 0, Value: math.Vec3{X: 1}}}},
				{Node: "ghost", PositionKeys: []asset.VectorKey{{Time: 0}}},
			},
		}},
	}

	rec := &diag.Recorder{}
	s := Build(doc, rec)
	if len(s.Animations) != 1 || len(s.Animations[0].Channels) != 1 {
		t.Fatalf("animations = %+v", s.Animations)
	}
	if s.Animations[0].Channels[0].NodeName != "real" {
		t.Errorf("kept channel targets %q", s.Animations[0].Channels[0].NodeName)
	}
	if s.Animations[0].TicksPerFrame != 4 {
		t.Errorf("ticks = %v", s.Animations[0].TicksPerFrame)
	}
	found := false
	for _, w := range rec.Warnings {
		if strings.Contains(w.Msg, "unknown node") {
			found = true
		}
	}
	if !found {
		t.Errorf("no unknown-target warning: %+v", rec.Warnings)
	}
}

func TestBonesSlicedPerPrimitive(t *testing.T) {
	doc := &asset.Document{}
	m := &asset.Mesh{
		Name: "skinned",
		Primitives: []asset.Primitive{
			{
				Mode:      asset.ModeTriangles,
				Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
				Material:  -1,
			},
			{
				Mode:      asset.ModeTriangles,
				Positions: []math.Vec3{{}, {X: 2}, {Y: 2}},
				Material:  -1,
			},
		},
		Bones: []asset.Bone{{
			Name: "root",
			Weights: []asset.VertexWeight{
				{Vertex: 1, Weight: 0.5},
				{Vertex: 4, Weight: 0.75},
			},
		}},
	}
	doc.Meshes = append(doc.Meshes, m)

	s := Build(doc, nil)
	if len(s.Meshes) != 2 {
		t.Fatalf("got %d meshes", len(s.Meshes))
	}
	first, second := s.Meshes[0], s.Meshes[1]
	if len(first.Bones) != 1 || len(first.Bones[0].Weights) != 1 {
		t.Fatalf("first primitive bones = %+v", first.Bones)
	}
	if w := first.Bones[0].Weights[0]; w.VertexIndex != 1 || w.Weight != 0.5 {
		t.Errorf("first weight = %+v", w)
	}
	if len(second.Bones) != 1 {
		t.Fatalf("second primitive bones = %+v", second.Bones)
	}
	if w := second.Bones[0].Weights[0]; w.VertexIndex != 1 || w.Weight != 0.75 {
		t.Errorf("second weight = %+v", w)
	}
}

func TestMetadataCopied(t *testing.T) {
	doc := &asset.Document{
		FormatVersion: "2.0",
		Generator:     "exporter 1.2",
		Copyright:     "someone",
	}
	s := Build(doc, nil)
	if s.FormatVersion != "2.0" || s.Generator != "exporter 1.2" || s.Copyright != "someone" {
		t.Errorf("metadata = %q %q %q", s.FormatVersion, s.Generator, s.Copyright)
	}
}
