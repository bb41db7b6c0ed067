package ase

import (
	"github.com/Faultbox/sceneport/pkg/math"
)

func (p *Parser) parseMeshBlock(mesh *Mesh) error {
	depth := 0
	var numVertices, numFaces uint32
	var numTVertices, numTFaces uint32
	var numCVertices, numCFaces uint32
	for {
		if p.cur() == '*' {
			p.pos++

			if p.tokenMatch("MESH_NUMVERTEX") {
				p.parseUInt(&numVertices)
				continue
			}
			if p.tokenMatch("MESH_NUMFACES") {
				p.parseUInt(&numFaces)
				continue
			}
			if p.tokenMatch("MESH_NUMTVERTEX") {
				p.parseUInt(&numTVertices)
				continue
			}
			if p.tokenMatch("MESH_NUMTVFACES") {
				p.parseUInt(&numTFaces)
				continue
			}
			if p.tokenMatch("MESH_NUMCVERTEX") {
				p.parseUInt(&numCVertices)
				continue
			}
			if p.tokenMatch("MESH_NUMCVFACES") {
				p.parseUInt(&numCFaces)
				continue
			}
			if p.tokenMatch("MESH_VERTEX_LIST") {
				if err := p.parseVertexListBlock(numVertices, mesh); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_FACE_LIST") {
				if err := p.parseFaceListBlock(numFaces, mesh); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_TVERTLIST") {
				if err := p.parseTVertListBlock(numTVertices, mesh, 0); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_TFACELIST") {
				if err := p.parseTFaceListBlock(numTFaces, mesh, 0); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_CVERTLIST") {
				if err := p.parseCVertListBlock(numCVertices, mesh); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_CFACELIST") {
				if err := p.parseCFaceListBlock(numCFaces, mesh); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_NORMALS") {
				if err := p.parseNormalsBlock(mesh); err != nil {
					return err
				}
				continue
			}
			// additional UV channels; channel 1 is the implicit default, so
			// declared channels start at 2
			if p.tokenMatch("MESH_MAPPINGCHANNEL") {
				var channel uint32
				p.parseUInt(&channel)
				switch {
				case channel < 2:
					p.warnf("mapping channel has an invalid index, skipping UV channel")
					p.skipSection()
				case channel > maxUVChannels:
					p.warnf("too many UV channels specified, skipping channel")
					p.skipSection()
				default:
					if err := p.parseMappingChannelBlock(int(channel-1), mesh); err != nil {
						return err
					}
				}
				continue
			}
			if p.tokenMatch("MESH_ANIMATION") {
				p.warnf("found *MESH_ANIMATION element, vertex animation is not supported and will be ignored")
				p.skipSection()
				continue
			}
			if p.tokenMatch("MESH_WEIGHTS") {
				if err := p.parseWeightsBlock(mesh); err != nil {
					return err
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseVertexListBlock(numVertices uint32, mesh *Mesh) error {
	depth := 0
	mesh.Positions = make([]math.Vec3, numVertices)
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_VERTEX") {
				var v [3]float32
				var index uint32
				p.parseIndexedFloatTriple(&v, &index)
				if index >= numVertices {
					p.warnf("invalid vertex index, it will be ignored")
				} else {
					mesh.Positions[index] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_VERTEX_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseFaceListBlock(numFaces uint32, mesh *Mesh) error {
	depth := 0
	mesh.Faces = make([]Face, numFaces)
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_FACE") {
				var face Face
				p.parseFace(&face)
				if face.ID >= numFaces {
					p.warnf("face has an invalid index, it will be ignored")
				} else {
					mesh.Faces[face.ID] = face
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_FACE_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// parseFace reads one *MESH_FACE record. These are positional rather than
// keyword-driven: `<id>: A: <a> B: <b> C: <c>`, with the corner labels in
// any order, then the edge visibility flags, then optional *MESH_SMOOTHING
// and *MESH_MTLID fields on the same line.
func (p *Parser) parseFace(out *Face) {
	if !p.skipSpaces() {
		p.warnf("unable to parse *MESH_FACE element: unexpected end of line")
		p.skipToNextToken()
		return
	}
	out.ID = p.readUnsignedInt()

	if !p.skipSpaces() {
		p.warnf("unable to parse *MESH_FACE element: unexpected end of line, ':' expected")
		p.skipToNextToken()
		return
	}
	// some exporters omit the colon after the face index
	if p.cur() == ':' {
		p.pos++
	}

	for i := 0; i < 3; i++ {
		var corner int
		if !p.skipSpaces() {
			p.warnf("unable to parse *MESH_FACE element: unexpected end of line")
			p.skipToNextToken()
			return
		}
		switch p.cur() {
		case 'A', 'a':
			corner = 0
		case 'B', 'b':
			corner = 1
		case 'C', 'c':
			corner = 2
		default:
			p.warnf("unable to parse *MESH_FACE element: A, B or C expected")
			p.skipToNextToken()
			return
		}
		p.pos++

		if !p.skipSpaces() || p.cur() != ':' {
			p.warnf("unable to parse *MESH_FACE element: unexpected end of line, ':' expected")
			p.skipToNextToken()
			return
		}
		p.pos++
		if !p.skipSpaces() {
			p.warnf("unable to parse *MESH_FACE element: unexpected end of line, vertex index expected")
			p.skipToNextToken()
			return
		}
		out.Indices[corner] = p.readUnsignedInt()
	}

	// skip the AB/BC/CA edge visibility flags
	if !p.advanceToLineToken() {
		return
	}

	if p.tokenMatch("*MESH_SMOOTHING") {
		if !p.skipSpaces() {
			p.warnf("unable to parse *MESH_SMOOTHING element: unexpected end of line, smoothing group(s) expected")
			p.skipToNextToken()
			return
		}
		// a comma-separated group list, possibly empty
		for {
			if c := p.cur(); c >= '0' && c <= '9' {
				value := p.readUnsignedInt()
				if value < 32 {
					out.SmoothGroup |= 1 << value
				} else {
					p.warnf("unable to set smoothing group: value %d out of range", value)
				}
			}
			p.skipSpaces()
			if p.cur() != ',' {
				break
			}
			p.pos++
			p.skipSpaces()
		}
	}

	if !p.advanceToLineToken() {
		return
	}
	if p.tokenMatch("*MESH_MTLID") {
		if !p.skipSpaces() {
			p.warnf("unable to parse *MESH_MTLID element: unexpected end of line, material index expected")
			p.skipToNextToken()
			return
		}
		out.Material = p.readUnsignedInt()
	}
}

// advanceToLineToken moves to the next '*' on the current line. It reports
// false when the line ends first, leaving the cursor on the line end.
func (p *Parser) advanceToLineToken() bool {
	for {
		c := p.cur()
		if c == '*' {
			return true
		}
		if c == 0 || isLineEnd(c) {
			return false
		}
		p.pos++
	}
}

func (p *Parser) parseTVertListBlock(numVertices uint32, mesh *Mesh, channel int) error {
	depth := 0
	mesh.TexCoords[channel] = make([]math.Vec3, numVertices)
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_TVERT") {
				var v [3]float32
				var index uint32
				p.parseIndexedFloatTriple(&v, &index)
				if index >= numVertices {
					p.warnf("tvertex has an invalid index, it will be ignored")
				} else {
					mesh.TexCoords[channel][index] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
				}
				if v[2] != 0 {
					// a three-component UVW channel
					mesh.UVComponents[channel] = 3
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_TVERT_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseTFaceListBlock(numFaces uint32, mesh *Mesh, channel int) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_TFACE") {
				var values [3]uint32
				var index uint32
				p.parseIndexedUIntTriple(&values, &index)
				if index >= numFaces || int(index) >= len(mesh.Faces) {
					p.warnf("UV face has an invalid index, it will be ignored")
				} else {
					mesh.Faces[index].UVIndices[channel] = values
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_TFACE_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseMappingChannelBlock(channel int, mesh *Mesh) error {
	depth := 0
	var numTVertices, numTFaces uint32
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_NUMTVERTEX") {
				p.parseUInt(&numTVertices)
				continue
			}
			if p.tokenMatch("MESH_NUMTVFACES") {
				p.parseUInt(&numTFaces)
				continue
			}
			if p.tokenMatch("MESH_TVERTLIST") {
				if err := p.parseTVertListBlock(numTVertices, mesh, channel); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_TFACELIST") {
				if err := p.parseTFaceListBlock(numTFaces, mesh, channel); err != nil {
					return err
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_MAPPING_CHANNEL")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseCVertListBlock(numVertices uint32, mesh *Mesh) error {
	depth := 0
	mesh.VertexColors = make([][4]float32, numVertices)
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_VERTCOL") {
				var v [3]float32
				var index uint32
				p.parseIndexedFloatTriple(&v, &index)
				if index >= numVertices {
					p.warnf("vertex color has an invalid index, it will be ignored")
				} else {
					mesh.VertexColors[index] = [4]float32{v[0], v[1], v[2], 1}
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_CVERTEX_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseCFaceListBlock(numFaces uint32, mesh *Mesh) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_CFACE") {
				var values [3]uint32
				var index uint32
				p.parseIndexedUIntTriple(&values, &index)
				if index >= numFaces || int(index) >= len(mesh.Faces) {
					p.warnf("color face has an invalid index, it will be ignored")
				} else {
					mesh.Faces[index].ColorIndices = values
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_CFACE_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// parseNormalsBlock accumulates the per-face and per-vertex normals into a
// per-corner array. Vertex normals follow the face normal of their face, so
// the current face index carries across records; the sums are renormalized
// during lowering.
func (p *Parser) parseNormalsBlock(mesh *Mesh) error {
	depth := 0
	mesh.Normals = make([]math.Vec3, len(mesh.Faces)*3)
	faceIdx := ^uint32(0)
	for {
		if p.cur() == '*' {
			p.pos++
			if faceIdx != ^uint32(0) && p.tokenMatch("MESH_VERTEXNORMAL") {
				var v [3]float32
				var index uint32
				p.parseIndexedFloatTriple(&v, &index)
				if int(faceIdx) >= len(mesh.Faces) {
					continue
				}

				// locate the face corner this vertex index belongs to
				face := &mesh.Faces[faceIdx]
				var corner uint32
				switch index {
				case face.Indices[0]:
					corner = 0
				case face.Indices[1]:
					corner = 1
				case face.Indices[2]:
					corner = 2
				default:
					p.warnf("invalid vertex index in *MESH_VERTEXNORMAL element")
					continue
				}
				n := &mesh.Normals[faceIdx*3+corner]
				*n = n.Add(math.Vec3{X: v[0], Y: v[1], Z: v[2]})
				continue
			}
			if p.tokenMatch("MESH_FACENORMAL") {
				var v [3]float32
				p.parseIndexedFloatTriple(&v, &faceIdx)
				if int(faceIdx) >= len(mesh.Faces) {
					p.warnf("invalid face index in *MESH_FACENORMAL element")
					continue
				}
				normal := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
				for c := uint32(0); c < 3; c++ {
					n := &mesh.Normals[faceIdx*3+c]
					*n = n.Add(normal)
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_NORMALS")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseWeightsBlock(mesh *Mesh) error {
	depth := 0
	var numVertices, numBones uint32
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_NUMVERTEX") {
				p.parseUInt(&numVertices)
				continue
			}
			if p.tokenMatch("MESH_NUMBONE") {
				p.parseUInt(&numBones)
				continue
			}
			if p.tokenMatch("MESH_BONE_LIST") {
				if err := p.parseBoneListBlock(numBones, mesh); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MESH_BONE_VERTEX_LIST") {
				if err := p.parseBoneVertexListBlock(numVertices, mesh); err != nil {
					return err
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_WEIGHTS")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseBoneListBlock(numBones uint32, mesh *Mesh) error {
	depth := 0
	mesh.Bones = make([]Bone, numBones)
	for i := range mesh.Bones {
		mesh.Bones[i].Name = "UNNAMED"
	}
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_BONE_NAME") {
				if p.skipSpaces() {
					index := p.readUnsignedInt()
					if index >= numBones {
						p.warnf("bone index is out of bounds")
						continue
					}
					if !p.parseString(&mesh.Bones[index].Name, "*MESH_BONE_NAME") {
						p.skipToNextToken()
					}
					continue
				}
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_BONE_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseBoneVertexListBlock(numVertices uint32, mesh *Mesh) error {
	depth := 0
	mesh.BoneVertices = make([]BoneVertex, numVertices)
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MESH_BONE_VERTEX") {
				index := p.readUnsignedInt()
				if len(mesh.BoneVertices) == 0 {
					p.skipSection()
					continue
				}
				if int(index) >= len(mesh.BoneVertices) {
					p.warnf("bone vertex index is out of bounds, using the largest valid bone vertex index instead")
					index = uint32(len(mesh.BoneVertices) - 1)
				}

				// the leading position triple repeats the vertex and is ignored
				var ignored [3]float32
				p.parseFloatTriple(&ignored)

				// (bone, weight) pairs until the end of the line
				for {
					if !p.skipSpaces() {
						break
					}
					bone := p.readSignedInt()
					if !p.skipSpaces() {
						break
					}
					weight := p.readFloat()

					// -1 marks unused entries
					if bone != -1 {
						mesh.BoneVertices[index].Weights = append(
							mesh.BoneVertices[index].Weights,
							BoneWeight{Bone: bone, Weight: weight})
					}
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MESH_BONE_VERTEX")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// parseSoftSkinBlock reads the legacy *MESH_SOFTSKINVERTS section. It is
// formatted differently from everything else: no nested sections, and the
// elements carry no keyword markers. The layout is
//
//	*MESH_SOFTSKINVERTS {
//	    <node name>
//	    <vertex count>
//	    [per vertex:] <weight count> [per weight:] "<bone name>" <weight>
//	}
//
// referencing meshes and bones by name instead of index.
func (p *Parser) parseSoftSkinBlock() {
	for {
		c := p.cur()
		switch {
		case c == '}':
			p.pos++
			return
		case p.atEnd():
			return
		case c == '{':
			p.pos++
		case isSpaceOrNewline(c):
			p.countLine(c)
			p.pos++
		default:
			start := p.pos
			for !p.atEnd() && !isSpaceOrNewline(p.buf[p.pos]) {
				p.pos++
			}
			if p.pos == start {
				continue
			}
			name := string(p.buf[start:p.pos])

			var curMesh *Mesh
			for _, m := range p.Meshes {
				if m.Name == name {
					curMesh = m
					break
				}
			}
			if curMesh == nil {
				p.warnf("encountered unknown mesh in *MESH_SOFTSKINVERTS section")

				// discard its data: numeric lines up to the next mesh name
				// or the closing brace
				for {
					p.skipSpacesAndLineEnds()
					c := p.cur()
					if c == '}' {
						p.pos++
						return
					}
					if c < '0' || c > '9' {
						break
					}
					p.skipLine()
				}
				continue
			}

			p.skipSpacesAndLineEnds()
			var numVerts uint32
			p.parseUInt(&numVerts)

			for i := uint32(0); i < numVerts; i++ {
				p.skipSpacesAndLineEnds()
				var numWeights uint32
				p.parseUInt(&numWeights)

				var vert BoneVertex
				for w := uint32(0); w < numWeights; w++ {
					var bone string
					p.parseString(&bone, "*MESH_SOFTSKINVERTS.Bone")

					// bones are created on first sight
					boneIdx := -1
					for n := range curMesh.Bones {
						if curMesh.Bones[n].Name == bone {
							boneIdx = n
							break
						}
					}
					if boneIdx == -1 {
						boneIdx = len(curMesh.Bones)
						curMesh.Bones = append(curMesh.Bones, Bone{Name: bone})
					}

					var weight float32
					p.parseFloat(&weight)
					vert.Weights = append(vert.Weights, BoneWeight{Bone: boneIdx, Weight: weight})
				}
				curMesh.BoneVertices = append(curMesh.BoneVertices, vert)
			}
		}
	}
}

// skipLine advances past the current line, counting it.
func (p *Parser) skipLine() {
	for !p.atEnd() && !isLineEnd(p.buf[p.pos]) {
		p.pos++
	}
	for !p.atEnd() && isLineEnd(p.buf[p.pos]) {
		p.countLine(p.buf[p.pos])
		p.pos++
	}
}

// readSignedInt reads a decimal integer with an optional leading minus.
func (p *Parser) readSignedInt() int {
	neg := false
	if p.cur() == '-' {
		neg = true
		p.pos++
	}
	v := int(p.readUnsignedInt())
	if neg {
		return -v
	}
	return v
}
