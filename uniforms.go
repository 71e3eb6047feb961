package sprite

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// uniformType is a WGSL type allowed in the Params block.
type uniformType uint8

const (
	uniformF32 uniformType = iota
	uniformI32
	uniformU32
	uniformVec2
	uniformVec3
	uniformVec4
)

// size and align follow the WGSL uniform address space rules.
var uniformTypeInfo = map[string]struct {
	typ         uniformType
	size, align int
}{
	"f32":       {uniformF32, 4, 4},
	"i32":       {uniformI32, 4, 4},
	"u32":       {uniformU32, 4, 4},
	"vec2<f32>": {uniformVec2, 8, 8},
	"vec2f":     {uniformVec2, 8, 8},
	"vec3<f32>": {uniformVec3, 12, 16},
	"vec3f":     {uniformVec3, 12, 16},
	"vec4<f32>": {uniformVec4, 16, 16},
	"vec4f":     {uniformVec4, 16, 16},
}

type uniformField struct {
	typ    uniformType
	offset int
}

type textureSlot struct {
	name    string
	binding uint32
}

// uniformLayout is the user uniform block and texture bindings of a shader.
type uniformLayout struct {
	fields   map[string]uniformField
	size     int
	textures []textureSlot
}

var (
	commentRE       = regexp.MustCompile(`//[^\n]*`)
	paramsStructRE  = regexp.MustCompile(`(?s)struct\s+Params\s*\{(.*?)\}`)
	paramsBindingRE = regexp.MustCompile(`@group\(\s*1\s*\)\s*@binding\(\s*0\s*\)\s*var\s*<\s*uniform\s*>\s*\w+\s*:\s*Params\b`)
	fieldRE         = regexp.MustCompile(`^\s*(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*([\w<>\s]+?)\s*$`)
	textureRE       = regexp.MustCompile(`@group\(\s*1\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var\s+(\w+)\s*:\s*texture_2d\s*<\s*f32\s*>`)
)

// parseUniforms extracts the Params block layout and the texture uniforms
// from a composed WGSL module.
func parseUniforms(src string) (*uniformLayout, error) {
	src = commentRE.ReplaceAllString(src, "")
	l := &uniformLayout{fields: make(map[string]uniformField)}

	if paramsBindingRE.MatchString(src) {
		m := paramsStructRE.FindStringSubmatch(src)
		if m == nil {
			return nil, fmt.Errorf("sprite: uniform block bound without struct Params")
		}
		if err := l.parseFields(m[1]); err != nil {
			return nil, err
		}
	}

	seen := make(map[uint32]bool)
	for _, m := range textureRE.FindAllStringSubmatch(src, -1) {
		b, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil || b == 0 {
			return nil, fmt.Errorf("sprite: texture uniform %s: binding must be at least 1", m[2])
		}
		binding := uint32(b)
		if seen[binding] {
			return nil, fmt.Errorf("sprite: texture uniform %s: binding %d used twice", m[2], binding)
		}
		seen[binding] = true
		l.textures = append(l.textures, textureSlot{name: m[2], binding: binding})
	}
	sort.Slice(l.textures, func(i, j int) bool { return l.textures[i].binding < l.textures[j].binding })
	return l, nil
}

func (l *uniformLayout) parseFields(body string) error {
	offset, maxAlign := 0, 4
	for _, decl := range strings.Split(body, ",") {
		if strings.TrimSpace(decl) == "" {
			continue
		}
		m := fieldRE.FindStringSubmatch(decl)
		if m == nil {
			return fmt.Errorf("sprite: cannot parse uniform field %q", strings.TrimSpace(decl))
		}
		name := m[1]
		typeName := strings.Join(strings.Fields(m[2]), "")
		info, ok := uniformTypeInfo[typeName]
		if !ok {
			return fmt.Errorf("sprite: uniform %s: unsupported type %s", name, typeName)
		}
		offset = alignUp(offset, info.align)
		l.fields[name] = uniformField{typ: info.typ, offset: offset}
		offset += info.size
		maxAlign = max(maxAlign, info.align)
	}
	// Uniform structs are padded to a multiple of 16 bytes.
	l.size = alignUp(alignUp(offset, maxAlign), 16)
	if offset == 0 {
		l.size = 0
	}
	return nil
}

func (l *uniformLayout) textureBindings() []uint32 {
	out := make([]uint32, len(l.textures))
	for i, t := range l.textures {
		out[i] = t.binding
	}
	return out
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}
