package ase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/sceneport/pkg/diag"
)

// File format versions as reported by *3DSMAX_ASCIIEXPORT. Files below
// FormatCurrent use the older .ask conventions (soft-skin bone weights).
const (
	FormatOld     = 110
	FormatCurrent = 200
)

// Parser reads one ASE byte range. All diagnostic and recovery policy for
// the format lives here; a fresh Parser is built per import.
type Parser struct {
	buf []byte
	pos int

	line           int
	lastWasEndLine bool

	sink   diag.Sink
	format uint32

	Scene     SceneInfo
	Materials []Material
	Meshes    []*Mesh
	Dummies   []*Dummy
	Lights    []*Light
	Cameras   []*Camera
}

// NewParser wraps data without copying it. formatDefault is the version
// guessed from the file extension, used until *3DSMAX_ASCIIEXPORT declares
// the real one.
func NewParser(data []byte, formatDefault uint32, sink diag.Sink) *Parser {
	if sink == nil {
		sink = diag.Discard{}
	}
	return &Parser{
		buf:    data,
		sink:   sink,
		format: formatDefault,
		Scene:  SceneInfo{FrameSpeed: 30, TicksPerFrame: 1},
	}
}

func (p *Parser) oldFormat() bool { return p.format < FormatCurrent }

func (p *Parser) warnf(format string, args ...any) {
	p.sink.Warn(p.line, fmt.Sprintf(format, args...))
}

func (p *Parser) infof(format string, args ...any) {
	p.sink.Info(p.line, fmt.Sprintf(format, args...))
}

// ---- scanner primitives ----

func isLineEnd(c byte) bool {
	return c == '\r' || c == '\n'
}

func isSpaceOrNewline(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.buf)
}

// cur returns the current byte, or 0 at end of input.
func (p *Parser) cur() byte {
	if p.atEnd() {
		return 0
	}
	return p.buf[p.pos]
}

// countLine advances the line counter for c. The carry flag makes a \r\n
// pair count as one line break.
func (p *Parser) countLine(c byte) {
	if isLineEnd(c) && !p.lastWasEndLine {
		p.line++
		p.lastWasEndLine = true
	} else {
		p.lastWasEndLine = false
	}
}

// skipSpaces skips spaces and tabs. It reports false when only a line end
// or the end of input remains.
func (p *Parser) skipSpaces() bool {
	for !p.atEnd() && (p.buf[p.pos] == ' ' || p.buf[p.pos] == '\t') {
		p.pos++
	}
	return !p.atEnd() && !isLineEnd(p.buf[p.pos])
}

// skipSpacesAndLineEnds skips spaces, tabs and line ends, counting lines.
func (p *Parser) skipSpacesAndLineEnds() {
	for !p.atEnd() {
		c := p.buf[p.pos]
		if !isSpaceOrNewline(c) {
			return
		}
		p.countLine(c)
		p.pos++
	}
}

// skipToNextToken advances to the next keyword marker, brace, or end of
// input, counting lines. It reports false when the end was reached.
func (p *Parser) skipToNextToken() bool {
	for {
		if p.atEnd() {
			return false
		}
		c := p.buf[p.pos]
		p.countLine(c)
		if c == '*' || c == '{' || c == '}' {
			return true
		}
		p.pos++
	}
}

// skipSection discards a whole sub-block, tracking brace nesting until the
// matching close. Reaching end of input here is a warning, not fatal.
func (p *Parser) skipSection() bool {
	depth := 0
	for {
		if p.atEnd() {
			p.warnf("unable to skip block: unexpected end of file, closing brace expected")
			return false
		}
		c := p.buf[p.pos]
		switch {
		case c == '}':
			depth--
			if depth == 0 {
				p.pos++
				p.skipToNextToken()
				return true
			}
		case c == '{':
			depth++
		case isLineEnd(c):
			p.line++
		}
		p.pos++
	}
}

// tokenMatch consumes token (and one separator character) when the input
// starts with it followed by whitespace. Matching is case-sensitive.
func (p *Parser) tokenMatch(token string) bool {
	n := len(token)
	if p.pos+n > len(p.buf) {
		return false
	}
	if string(p.buf[p.pos:p.pos+n]) != token {
		return false
	}
	if p.pos+n == len(p.buf) {
		p.pos += n
		return true
	}
	if !isSpaceOrNewline(p.buf[p.pos+n]) {
		return false
	}
	p.pos += n + 1
	return true
}

// tokenMatchFold is tokenMatch for bare enum values, case-insensitive and
// without requiring trailing whitespace.
func (p *Parser) tokenMatchFold(token string) bool {
	n := len(token)
	if p.pos+n > len(p.buf) {
		return false
	}
	if !strings.EqualFold(string(p.buf[p.pos:p.pos+n]), token) {
		return false
	}
	p.pos += n
	return true
}

// readUnsignedInt reads a decimal integer, advancing the cursor. The cursor
// must already sit on the first digit; a non-digit yields zero.
func (p *Parser) readUnsignedInt() uint32 {
	var v uint64
	for !p.atEnd() {
		c := p.buf[p.pos]
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + uint64(c-'0')
		if v > 0xFFFFFFFF {
			v = 0xFFFFFFFF
		}
		p.pos++
	}
	return uint32(v)
}

// readFloat reads a locale-independent decimal float, advancing the cursor.
func (p *Parser) readFloat() float32 {
	start := p.pos
	if !p.atEnd() && (p.buf[p.pos] == '-' || p.buf[p.pos] == '+') {
		p.pos++
	}
	digits := func() {
		for !p.atEnd() && p.buf[p.pos] >= '0' && p.buf[p.pos] <= '9' {
			p.pos++
		}
	}
	digits()
	if !p.atEnd() && p.buf[p.pos] == '.' {
		p.pos++
		digits()
	}
	if !p.atEnd() && (p.buf[p.pos] == 'e' || p.buf[p.pos] == 'E') {
		mark := p.pos
		p.pos++
		if !p.atEnd() && (p.buf[p.pos] == '-' || p.buf[p.pos] == '+') {
			p.pos++
		}
		before := p.pos
		digits()
		if p.pos == before {
			// lone exponent marker, not part of the number
			p.pos = mark
		}
	}
	if p.pos == start {
		return 0
	}
	f, err := strconv.ParseFloat(string(p.buf[start:p.pos]), 32)
	if err != nil {
		return 0
	}
	return float32(f)
}

// ---- field readers ----

// parseUInt reads a scalar integer field, skipping leading spaces. A field
// ending before any digits is a warning with a zero fallback.
func (p *Parser) parseUInt(out *uint32) {
	if !p.skipSpaces() {
		p.warnf("unable to parse integer: unexpected end of line")
		*out = 0
		p.line++
		return
	}
	*out = p.readUnsignedInt()
}

// parseFloat reads a scalar float field with the same fallback policy.
func (p *Parser) parseFloat(out *float32) {
	if !p.skipSpaces() {
		p.warnf("unable to parse float: unexpected end of line")
		*out = 0
		p.line++
		return
	}
	*out = p.readFloat()
}

// parseFloatTriple reads three scalar floats in sequence.
func (p *Parser) parseFloatTriple(out *[3]float32) {
	for i := 0; i < 3; i++ {
		p.parseFloat(&out[i])
	}
}

// parseIndexedFloatTriple reads an element index followed by its triple;
// this is how most per-element declarations self-locate in their array.
func (p *Parser) parseIndexedFloatTriple(out *[3]float32, index *uint32) {
	p.parseUInt(index)
	p.parseFloatTriple(out)
}

// parseUIntTriple reads three scalar integers in sequence.
func (p *Parser) parseUIntTriple(out *[3]uint32) {
	for i := 0; i < 3; i++ {
		p.parseUInt(&out[i])
	}
}

// parseIndexedUIntTriple reads an element index followed by its triple.
func (p *Parser) parseIndexedUIntTriple(out *[3]uint32, index *uint32) {
	p.parseUInt(index)
	p.parseUIntTriple(out)
}

// parseString reads a double-quoted string field. Any malformation is a
// warning; the output is left unset and false is returned.
func (p *Parser) parseString(out *string, field string) bool {
	if !p.skipSpaces() {
		p.warnf("unable to parse %s: unexpected end of line", field)
		return false
	}
	if p.cur() != '"' {
		p.warnf("unable to parse %s: strings must be enclosed in double quotation marks", field)
		return false
	}
	p.pos++
	start := p.pos
	for {
		if p.atEnd() {
			p.warnf("unable to parse %s: end of file before the closing quotation mark", field)
			return false
		}
		if p.buf[p.pos] == '"' {
			break
		}
		p.pos++
	}
	*out = string(p.buf[start:p.pos])
	p.pos++
	return true
}

// ---- shared section housekeeping ----

// sectionStep is the bracket/EOF housekeeping every handler loop runs when
// no keyword matched. done reports that the section's closing brace was
// consumed. At nested levels a premature end of input is fatal; at the top
// level it simply ends the section.
func (p *Parser) sectionStep(depth *int, nested bool, section string) (done bool, err error) {
	c := p.cur()
	switch c {
	case '{':
		*depth++
	case '}':
		*depth--
		if *depth == 0 {
			p.pos++
			p.skipToNextToken()
			return true, nil
		}
	}
	if p.atEnd() {
		if nested {
			return false, diag.Fatalf(p.line, "unexpected end of file while parsing a %s section", section)
		}
		return true, nil
	}
	p.countLine(c)
	p.pos++
	return false, nil
}

// ---- top level ----

// Parse consumes the whole input. Fields already parsed survive a fatal
// error on the Parser, but callers must not build a document from it.
func (p *Parser) Parse() error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++

			// Version should be <= 200; faulty files omit it entirely,
			// in which case the extension-derived guess stays.
			if p.tokenMatch("3DSMAX_ASCIIEXPORT") {
				var fmtVersion uint32
				p.parseUInt(&fmtVersion)
				if fmtVersion > FormatCurrent {
					p.warnf("unknown file format version: *3DSMAX_ASCIIEXPORT should be <= 200")
				}
				if fmtVersion != 0 {
					p.format = fmtVersion
				}
				continue
			}
			if p.tokenMatch("SCENE") {
				if err := p.parseSceneBlock(); err != nil {
					return err
				}
				continue
			}
			// groups add no semantics of their own; re-enter at top level
			if p.tokenMatch("GROUP") {
				if err := p.Parse(); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("MATERIAL_LIST") {
				if err := p.parseMaterialList(); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("GEOMOBJECT") {
				m := newMesh()
				p.Meshes = append(p.Meshes, m)
				if err := p.parseObjectBlock(m); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("HELPEROBJECT") {
				d := newDummy()
				p.Dummies = append(p.Dummies, d)
				if err := p.parseObjectBlock(d); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("LIGHTOBJECT") {
				l := newLight()
				p.Lights = append(p.Lights, l)
				if err := p.parseObjectBlock(l); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("CAMERAOBJECT") {
				c := newCamera()
				p.Cameras = append(p.Cameras, c)
				if err := p.parseObjectBlock(c); err != nil {
					return err
				}
				continue
			}
			if p.tokenMatch("COMMENT") {
				out := "<unknown>"
				if !p.parseString(&out, "*COMMENT") {
					p.skipToNextToken()
				}
				p.infof("comment: %s", out)
				continue
			}
			if p.oldFormat() && p.tokenMatch("MESH_SOFTSKINVERTS") {
				p.parseSoftSkinBlock()
			}
		}
		done, err := p.sectionStep(&depth, false, "top level")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *Parser) parseSceneBlock() error {
	depth := 0
	for {
		if p.cur() == '*' {
			p.pos++
			if p.tokenMatch("SCENE_BACKGROUND_STATIC") {
				p.parseFloatTriple(&p.Scene.Background)
				continue
			}
			if p.tokenMatch("SCENE_AMBIENT_STATIC") {
				p.parseFloatTriple(&p.Scene.Ambient)
				continue
			}
			if p.tokenMatch("SCENE_FIRSTFRAME") {
				p.parseUInt(&p.Scene.FirstFrame)
				continue
			}
			if p.tokenMatch("SCENE_LASTFRAME") {
				p.parseUInt(&p.Scene.LastFrame)
				continue
			}
			if p.tokenMatch("SCENE_FRAMESPEED") {
				p.parseUInt(&p.Scene.FrameSpeed)
				continue
			}
			if p.tokenMatch("SCENE_TICKSPERFRAME") {
				p.parseUInt(&p.Scene.TicksPerFrame)
				continue
			}
		}
		done, err := p.sectionStep(&depth, false, "*SCENE")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
