package scene

// TextureTransform is a per-slot UV transform.
type TextureTransform struct {
	OffsetU, OffsetV float32
	ScaleU, ScaleV   float32
	Rotation         float32
	Blend            float32
}

// MaterialChannel is one shading channel: a constant color, optionally
// overridden by a texture. Texture is either a file path or an embedded
// reference ("*N", see EmbeddedTexturePrefix).
type MaterialChannel struct {
	Color     Color4
	Texture   string
	Transform TextureTransform
}

// Material is a resolved output material.
type Material struct {
	Name string

	Ambient  MaterialChannel
	Diffuse  MaterialChannel
	Specular MaterialChannel
	Emissive MaterialChannel

	Opacity           float32
	Shininess         float32
	ShininessStrength float32
	TwoSided          bool
}

// DefaultMaterial returns the placeholder emitted when an asset declares no
// materials at all.
func DefaultMaterial() *Material {
	gray := Color4{R: 0.6, G: 0.6, B: 0.6, A: 1}
	return &Material{
		Name:    "DefaultMaterial",
		Diffuse: MaterialChannel{Color: gray},
		Opacity: 1,
	}
}
