package ctm

// UVMap is one texture coordinate set, two floats per vertex.
type UVMap struct {
	Name     string
	FileName string
	UV       []float32
}

// AttrMap is one generic attribute set, four floats per vertex.
type AttrMap struct {
	Name string
	Attr []float32
}

// FileBody holds the decoded arrays of a mesh. Every array is sized from the
// header up front and filled in place.
type FileBody struct {
	Indices  []uint32
	Vertices []float32
	Normals  []float32 // nil when the header has no normal flag
	UVMaps   []UVMap
	AttrMaps []AttrMap
}

// NewFileBody allocates the arrays described by h.
func NewFileBody(h *FileHeader) *FileBody {
	b := &FileBody{
		Indices:  make([]uint32, h.TriangleCount*3),
		Vertices: make([]float32, h.VertexCount*3),
		UVMaps:   make([]UVMap, h.UVMapCount),
		AttrMaps: make([]AttrMap, h.AttrMapCount),
	}
	if h.HasNormals() {
		b.Normals = make([]float32, h.VertexCount*3)
	}
	for i := range b.UVMaps {
		b.UVMaps[i].UV = make([]float32, h.VertexCount*2)
	}
	for i := range b.AttrMaps {
		b.AttrMaps[i].Attr = make([]float32, h.VertexCount*4)
	}
	return b
}

// UVMapByName returns the first UV map called name.
func (b *FileBody) UVMapByName(name string) (*UVMap, bool) {
	for i := range b.UVMaps {
		if b.UVMaps[i].Name == name {
			return &b.UVMaps[i], true
		}
	}
	return nil, false
}

// AttrMapByName returns the first attribute map called name.
func (b *FileBody) AttrMapByName(name string) (*AttrMap, bool) {
	for i := range b.AttrMaps {
		if b.AttrMaps[i].Name == name {
			return &b.AttrMaps[i], true
		}
	}
	return nil, false
}

// validateIndices checks that every triangle references an existing vertex.
func (b *FileBody) validateIndices(vertexCount int) error {
	for i, idx := range b.Indices {
		if uint64(idx) >= uint64(vertexCount) {
			return &IndexError{Pos: i, Index: idx, VertexCount: vertexCount}
		}
	}
	return nil
}
