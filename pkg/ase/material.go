package ase

func (p *Parser) parseMaterialList() error {
	depth := 0
	var count uint32
	oldCount := uint32(len(p.Materials))
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MATERIAL_COUNT") {
				p.parseUInt(&count)
				if 0xFFFFFFFF-oldCount < count {
					p.warnf("out of range: material count is too large")
					return nil
				}
				p.growMaterials(oldCount + count)
				continue
			}
			if p.tokenMatch("MATERIAL") {
				// Some files never declare *MATERIAL_COUNT; assume one
				// material and resize retroactively.
				if count == 0 {
					p.warnf("*MATERIAL_COUNT unspecified or 0")
					count = 1
					p.growMaterials(oldCount + count)
				}
				var index uint32
				p.parseUInt(&index)
				if index >= count {
					p.warnf("out of range: material index is too large")
					index = count - 1
				}
				if err := p.parseMaterialBlock(&p.Materials[oldCount+index]); err != nil {
					return err
				}
				continue
			}
			if depth == 1 {
				// Crude recovery for exporters that drop the closing brace
				// of the material list.
				p.warnf("missing closing brace in material list")
				p.pos--
				return nil
			}
		}
		done, err := p.sectionStep(&depth, false, "*MATERIAL_LIST")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) growMaterials(n uint32) {
	for uint32(len(p.Materials)) < n {
		p.Materials = append(p.Materials, newMaterial("INVALID"))
	}
}

func (p *Parser) parseMaterialBlock(mat *Material) error {
	depth := 0
	var numSub uint32
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MATERIAL_NAME") {
				if !p.parseString(&mat.Name, "*MATERIAL_NAME") {
					p.skipToNextToken()
				}
				continue
			}
			if p.tokenMatch("MATERIAL_AMBIENT") {
				p.parseFloatTriple(&mat.Ambient)
				continue
			}
			if p.tokenMatch("MATERIAL_DIFFUSE") {
				p.parseFloatTriple(&mat.Diffuse)
				continue
			}
			if p.tokenMatch("MATERIAL_SPECULAR") {
				p.parseFloatTriple(&mat.Specular)
				continue
			}
			if p.tokenMatch("MATERIAL_SHADING") {
				switch {
				case p.tokenMatchFold("Blinn"):
					mat.Shading = ShadingBlinn
				case p.tokenMatchFold("Phong"):
					mat.Shading = ShadingPhong
				case p.tokenMatchFold("Flat"):
					mat.Shading = ShadingFlat
				case p.tokenMatchFold("Wire"):
					mat.Shading = ShadingWire
				default:
					// unknown shading mode, assume gouraud
					mat.Shading = ShadingGouraud
					p.skipToNextToken()
				}
				continue
			}
			if p.tokenMatch("MATERIAL_TRANSPARENCY") {
				p.parseFloat(&mat.Transparency)
				mat.Transparency = 1 - mat.Transparency
				continue
			}
			if p.tokenMatch("MATERIAL_SELFILLUM") {
				var f float32
				p.parseFloat(&f)
				mat.Emissive = [3]float32{f, f, f}
				continue
			}
			if p.tokenMatch("MATERIAL_SHINE") {
				p.parseFloat(&mat.Shininess)
				mat.Shininess *= 15
				continue
			}
			if p.tokenMatch("MATERIAL_TWOSIDED") {
				mat.TwoSided = true
				continue
			}
			if p.tokenMatch("MATERIAL_SHINESTRENGTH") {
				p.parseFloat(&mat.ShininessStrength)
				continue
			}
			if p.tokenMatch("MAP_DIFFUSE") {
				if err := p.parseMapBlock(&mat.TexDiffuse); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MAP_AMBIENT") {
				if err := p.parseMapBlock(&mat.TexAmbient); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MAP_SPECULAR") {
				if err := p.parseMapBlock(&mat.TexSpecular); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MAP_OPACITY") {
				if err := p.parseMapBlock(&mat.TexOpacity); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MAP_SELFILLUM") {
				if err := p.parseMapBlock(&mat.TexEmissive); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MAP_BUMP") {
				if err := p.parseMapBlock(&mat.TexBump); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MAP_SHINESTRENGTH") {
				if err := p.parseMapBlock(&mat.TexShininess); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("NUMSUBMTLS") {
				p.parseUInt(&numSub)
				mat.SubMaterials = growSubMaterials(mat.SubMaterials, numSub)
				continue
			}
			if p.tokenMatch("SUBMATERIAL") {
				// Same retroactive recovery as for *MATERIAL_COUNT.
				if numSub == 0 {
					p.warnf("*NUMSUBMTLS unspecified or 0")
					numSub = 1
					mat.SubMaterials = growSubMaterials(mat.SubMaterials, numSub)
				}
				var index uint32
				p.parseUInt(&index)
				if index >= numSub {
					p.warnf("out of range: submaterial index is too large")
					index = numSub - 1
				}
				if index < uint32(len(mat.SubMaterials)) {
					if err := p.parseMaterialBlock(&mat.SubMaterials[index]); err != nil {
						return err
					}
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MATERIAL")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func growSubMaterials(subs []Material, n uint32) []Material {
	for uint32(len(subs)) < n {
		subs = append(subs, newMaterial("INVALID SUBMATERIAL"))
	}
	return subs
}

// parseMapBlock reads one *MAP_XXX texture slot. *BITMAP may be present
// even when *MAP_CLASS names an unsupported map type; in that case the
// path is dropped but the slot's transform fields are still kept.
func (p *Parser) parseMapBlock(slot *MapSlot) error {
	depth := 0
	parsePath := true
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("MAP_CLASS") {
				var class string
				if !p.parseString(&class, "*MAP_CLASS") {
					p.skipToNextToken()
				}
				if class != "Bitmap" && class != "Normal Bump" {
					p.warnf("skipping unknown map type: %s", class)
					parsePath = false
				}
				continue
			}
			if parsePath && p.tokenMatch("BITMAP") {
				if !p.parseString(&slot.Path, "*BITMAP") {
					p.skipToNextToken()
				}
				if slot.Path == "None" {
					// produced by some exporters for empty slots
					p.warnf("skipping invalid map entry")
					slot.Path = ""
				}
				continue
			}
			if p.tokenMatch("UVW_U_OFFSET") {
				p.parseFloat(&slot.OffsetU)
				continue
			}
			if p.tokenMatch("UVW_V_OFFSET") {
				p.parseFloat(&slot.OffsetV)
				continue
			}
			if p.tokenMatch("UVW_U_TILING") {
				p.parseFloat(&slot.ScaleU)
				continue
			}
			if p.tokenMatch("UVW_V_TILING") {
				p.parseFloat(&slot.ScaleV)
				continue
			}
			if p.tokenMatch("UVW_ANGLE") {
				p.parseFloat(&slot.Rotation)
				continue
			}
			if p.tokenMatch("MAP_AMOUNT") {
				p.parseFloat(&slot.Blend)
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*MAP_XXX")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
