package ase

import (
	"strings"

	"github.com/Faultbox/sceneport/pkg/asset"
	"github.com/Faultbox/sceneport/pkg/math"
)

func (p *Parser) parseObjectBlock(obj object) error {
	depth := 0
	node := obj.Base()
	for {
		if p.cur() == '*' {
			p.pos++

			if p.tokenMatch("NODE_NAME") {
				if !p.parseString(&node.Name, "*NODE_NAME") {
					p.skipToNextToken()
				}
				continue
			}
			if p.tokenMatch("NODE_PARENT") {
				if !p.parseString(&node.Parent, "*NODE_PARENT") {
					p.skipToNextToken()
				}
				continue
			}
			if p.tokenMatch("NODE_TM") {
				if err := p.parseNodeTransformBlock(obj); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("TM_ANIMATION") {
				if err := p.parseAnimationBlock(obj); err != nil {
					return err
				}
				continue
			}

			switch o := obj.(type) {
			case *Light:
				if p.tokenMatch("LIGHT_SETTINGS") {
					if err := p.parseLightSettingsBlock(o); err != nil {
						return err
					}
					continue
				}
				if p.tokenMatch("LIGHT_TYPE") {
					switch {
					case p.tokenMatchFold("omni"):
						o.Source = LightOmni
					case p.tokenMatchFold("target"):
						o.Source = LightTarget
					case p.tokenMatchFold("free"):
						o.Source = LightFree
					case p.tokenMatchFold("directional"):
						o.Source = LightDirectional
					default:
						p.warnf("unknown kind of light source")
					}
					continue
				}
			case *Camera:
				if p.tokenMatch("CAMERA_SETTINGS") {
					if err := p.parseCameraSettingsBlock(o); err != nil {
						return err
					}
					continue
				}
				if p.tokenMatch("CAMERA_TYPE") {
					switch {
					case p.tokenMatchFold("target"):
						o.Kind = CameraTarget
					case p.tokenMatchFold("free"):
						o.Kind = CameraFree
					default:
						p.warnf("unknown kind of camera")
					}
					continue
				}
			case *Mesh:
				// old-format files label the geometry block *MESH_SOFTSKIN
				if p.tokenMatch("MESH") || p.tokenMatch("MESH_SOFTSKIN") {
					if err := p.parseMeshBlock(o); err != nil {
						return err
					}
					continue
				}
				if p.tokenMatch("WIREFRAME_COLOR") {
					p.parseFloatTriple(&o.WireframeColor)
					continue
				}
				if p.tokenMatch("MATERIAL_REF") {
					p.parseUInt(&o.MaterialIndex)
					continue
				}
			}
		}
		done, err := p.sectionStep(&depth, false, "object")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseCameraSettingsBlock(camera *Camera) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("CAMERA_NEAR") {
				p.parseFloat(&camera.Near)
				continue
			}
			if p.tokenMatch("CAMERA_FAR") {
				p.parseFloat(&camera.Far)
				continue
			}
			if p.tokenMatch("CAMERA_FOV") {
				p.parseFloat(&camera.FOV)
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*CAMERA_SETTINGS")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseLightSettingsBlock(light *Light) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("LIGHT_COLOR") {
				p.parseFloatTriple(&light.Color)
				continue
			}
			if p.tokenMatch("LIGHT_INTENS") {
				p.parseFloat(&light.Intensity)
				continue
			}
			if p.tokenMatch("LIGHT_HOTSPOT") {
				p.parseFloat(&light.Angle)
				continue
			}
			if p.tokenMatch("LIGHT_FALLOFF") {
				p.parseFloat(&light.Falloff)
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*LIGHT_SETTINGS")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// isTargetNode reports whether obj is a target camera or target spot light,
// the only node kinds that own a target-tracking channel.
func isTargetNode(obj object) bool {
	switch o := obj.(type) {
	case *Camera:
		return o.Kind == CameraTarget
	case *Light:
		return o.Source == LightTarget
	}
	return false
}

func (p *Parser) parseAnimationBlock(obj object) error {
	depth := 0
	node := obj.Base()
	anim := &node.Anim
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("NODE_NAME") {
				var temp string
				if !p.parseString(&temp, "*NODE_NAME") {
					p.skipToNextToken()
				}
				// A ".Target" name switches to the aim-point channel of an
				// animated target camera or spot light.
				if strings.Contains(temp, ".Target") {
					if !isTargetNode(obj) {
						p.warnf("found target animation channel but the node is neither a target camera nor a spot light")
						anim = nil
					} else {
						anim = &node.TargetAnim
					}
				}
				continue
			}

			if p.tokenMatch("CONTROL_POS_TRACK") ||
				p.tokenMatch("CONTROL_POS_BEZIER") ||
				p.tokenMatch("CONTROL_POS_TCB") {
				if anim == nil {
					p.skipSection()
				} else if err := p.parsePosAnimationBlock(anim); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("CONTROL_SCALE_TRACK") ||
				p.tokenMatch("CONTROL_SCALE_BEZIER") ||
				p.tokenMatch("CONTROL_SCALE_TCB") {
				if anim == nil || anim == &node.TargetAnim {
					p.warnf("ignoring scaling channel in target animation")
					p.skipSection()
				} else if err := p.parseScaleAnimationBlock(anim); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("CONTROL_ROT_TRACK") ||
				p.tokenMatch("CONTROL_ROT_BEZIER") ||
				p.tokenMatch("CONTROL_ROT_TCB") {
				if anim == nil || anim == &node.TargetAnim {
					p.warnf("ignoring rotation channel in target animation")
					p.skipSection()
				} else if err := p.parseRotAnimationBlock(anim); err != nil {
					return err
				}
				continue
			}
		}
		done, err := p.sectionStep(&depth, true, "*TM_ANIMATION")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// The keyframe readers keep only the tick index and the value; the extra
// tangent data of bezier and TCB keys is skipped by the housekeeping.

func (p *Parser) parsePosAnimationBlock(anim *Animation) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			matched := false
			switch {
			case p.tokenMatch("CONTROL_POS_SAMPLE"):
				matched = true
				anim.PositionType = asset.InterpTrack
			case p.tokenMatch("CONTROL_BEZIER_POS_KEY"):
				matched = true
				anim.PositionType = asset.InterpBezier
			case p.tokenMatch("CONTROL_TCB_POS_KEY"):
				matched = true
				anim.PositionType = asset.InterpTCB
			}
			if matched {
				var v [3]float32
				var tick uint32
				p.parseIndexedFloatTriple(&v, &tick)
				anim.PositionKeys = append(anim.PositionKeys, asset.VectorKey{
					Time:  float64(tick),
					Value: math.Vec3{X: v[0], Y: v[1], Z: v[2]},
				})
			}
		}
		done, err := p.sectionStep(&depth, true, "*CONTROL_POS_TRACK")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseScaleAnimationBlock(anim *Animation) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			matched := false
			switch {
			case p.tokenMatch("CONTROL_SCALE_SAMPLE"):
				matched = true
				anim.ScalingType = asset.InterpTrack
			case p.tokenMatch("CONTROL_BEZIER_SCALE_KEY"):
				matched = true
				anim.ScalingType = asset.InterpBezier
			case p.tokenMatch("CONTROL_TCB_SCALE_KEY"):
				matched = true
				anim.ScalingType = asset.InterpTCB
			}
			if matched {
				var v [3]float32
				var tick uint32
				p.parseIndexedFloatTriple(&v, &tick)
				anim.ScalingKeys = append(anim.ScalingKeys, asset.VectorKey{
					Time:  float64(tick),
					Value: math.Vec3{X: v[0], Y: v[1], Z: v[2]},
				})
			}
		}
		done, err := p.sectionStep(&depth, true, "*CONTROL_SCALE_TRACK")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseRotAnimationBlock(anim *Animation) error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			matched := false
			switch {
			case p.tokenMatch("CONTROL_ROT_SAMPLE"):
				matched = true
				anim.RotationType = asset.InterpTrack
			case p.tokenMatch("CONTROL_BEZIER_ROT_KEY"):
				matched = true
				anim.RotationType = asset.InterpBezier
			case p.tokenMatch("CONTROL_TCB_ROT_KEY"):
				matched = true
				anim.RotationType = asset.InterpTCB
			}
			if matched {
				// rotation keys are stored as axis + angle
				var axis [3]float32
				var angle float32
				var tick uint32
				p.parseIndexedFloatTriple(&axis, &tick)
				p.parseFloat(&angle)
				q := math.QuatFromAxisAngle(math.Vec3{X: axis[0], Y: axis[1], Z: axis[2]}, angle)
				anim.RotationKeys = append(anim.RotationKeys, asset.QuatKey{
					Time:  float64(tick),
					Value: q,
				})
			}
		}
		done, err := p.sectionStep(&depth, true, "*CONTROL_ROT_TRACK")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseNodeTransformBlock(obj object) error {
	depth := 0
	node := obj.Base()

	// mode 0: rows ignored until *NODE_NAME matches the node;
	// mode 1: rows feed the node transform;
	// mode 2: block describes the aim point of a target camera/light.
	mode := 0
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("NODE_NAME") {
				var temp string
				if !p.parseString(&temp, "*NODE_NAME") {
					p.skipToNextToken()
				}
				if temp == node.Name {
					mode = 1
				} else if idx := strings.Index(temp, ".Target"); idx >= 0 && temp[:idx] == node.Name {
					if isTargetNode(obj) {
						mode = 2
					} else {
						p.warnf("ignoring target transform, this is no spot light or target camera")
					}
				} else {
					p.warnf("unknown node transformation: %s", temp)
				}
				continue
			}
			if mode != 0 {
				// the fourth row is the translation, and the only part a
				// target transform contributes
				if p.tokenMatch("TM_ROW3") {
					var row [3]float32
					p.parseFloatTriple(&row)
					v := math.Vec3{X: row[0], Y: row[1], Z: row[2]}
					if mode == 1 {
						node.Transform.SetBasis(3, v)
					} else {
						node.TargetPosition = v
					}
					continue
				}
				if mode == 1 {
					if p.tokenMatch("TM_ROW0") {
						var row [3]float32
						p.parseFloatTriple(&row)
						node.Transform.SetBasis(0, math.Vec3{X: row[0], Y: row[1], Z: row[2]})
						continue
					}
					if p.tokenMatch("TM_ROW1") {
						var row [3]float32
						p.parseFloatTriple(&row)
						node.Transform.SetBasis(1, math.Vec3{X: row[0], Y: row[1], Z: row[2]})
						continue
					}
					if p.tokenMatch("TM_ROW2") {
						var row [3]float32
						p.parseFloatTriple(&row)
						node.Transform.SetBasis(2, math.Vec3{X: row[0], Y: row[1], Z: row[2]})
						continue
					}
					if p.tokenMatch("INHERIT_POS") {
						var vals [3]uint32
						p.parseUIntTriple(&vals)
						for i := 0; i < 3; i++ {
							node.InheritPosition[i] = vals[i] != 0
						}
						continue
					}
					if p.tokenMatch("INHERIT_ROT") {
						var vals [3]uint32
						p.parseUIntTriple(&vals)
						for i := 0; i < 3; i++ {
							node.InheritRotation[i] = vals[i] != 0
						}
						continue
					}
					if p.tokenMatch("INHERIT_SCL") {
						var vals [3]uint32
						p.parseUIntTriple(&vals)
						for i := 0; i < 3; i++ {
							node.InheritScaling[i] = vals[i] != 0
						}
						continue
					}
				}
			}
		}
		done, err := p.sectionStep(&depth, true, "*NODE_TM")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
