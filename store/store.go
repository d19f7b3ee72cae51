// Package store holds grid geometry, topology and typed per-entity
// attributes: vertices, hexahedral cells, named cell groups, and attribute
// tables keyed by (entity, tag).
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GitPaean/PRESTO/mesh"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrNoAttribute   = errors.New("attribute not set")
	ErrTagType       = errors.New("tag exists with a different type")
)

type EntityKind uint8

const (
	Vertex EntityKind = iota + 1
	Cell
	Group
)

func (ek EntityKind) String() string {
	switch ek {
	case Vertex:
		return "Vertex"
	case Cell:
		return "Cell"
	case Group:
		return "Group"
	}
	return fmt.Sprintf("EntityKind(%d)", uint8(ek))
}

const kindShift = 56

// EntityHandle packs the entity kind in the top byte and a dense per-kind
// index in the rest.
type EntityHandle uint64

func newHandle(kind EntityKind, index int) EntityHandle {
	return EntityHandle(uint64(kind)<<kindShift | uint64(index))
}

func (h EntityHandle) Kind() EntityKind { return EntityKind(h >> kindShift) }
func (h EntityHandle) Index() int       { return int(h & (1<<kindShift - 1)) }

func (h EntityHandle) String() string {
	return fmt.Sprintf("%s[%d]", h.Kind(), h.Index())
}

type Store struct {
	mu       sync.RWMutex
	vertices [][3]float64
	cells    [][8]int // Vertex indices
	groups   [][]EntityHandle
	eToE     [][6]int // Rebuilt lazily when cells change
	tags     map[string]interface{}
}

func New() *Store {
	return &Store{
		tags: make(map[string]interface{}),
	}
}

// CreateVertices appends vertices and returns their handles in order
func (s *Store) CreateVertices(coords [][3]float64) (handles []EntityHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handles = make([]EntityHandle, len(coords))
	for i, c := range coords {
		handles[i] = newHandle(Vertex, len(s.vertices))
		s.vertices = append(s.vertices, c)
	}
	return
}

// CreateCell creates a hexahedron from eight vertex handles in hex winding order
func (s *Store) CreateCell(verts [8]EntityHandle) (h EntityHandle, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hex [8]int
	for i, v := range verts {
		if v.Kind() != Vertex || v.Index() >= len(s.vertices) {
			err = fmt.Errorf("%w: cell vertex %s", ErrUnknownEntity, v)
			return
		}
		hex[i] = v.Index()
	}
	h = newHandle(Cell, len(s.cells))
	s.cells = append(s.cells, hex)
	s.eToE = nil
	return
}

// Cells returns every cell handle in creation order
func (s *Store) Cells() (handles []EntityHandle) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles = make([]EntityHandle, len(s.cells))
	for i := range s.cells {
		handles[i] = newHandle(Cell, i)
	}
	return
}

func (s *Store) CreateGroup() EntityHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, nil)
	return newHandle(Group, len(s.groups)-1)
}

func (s *Store) AddToGroup(group EntityHandle, members ...EntityHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(group, Group); err != nil {
		return err
	}
	for _, m := range members {
		if err := s.checkLocked(m, m.Kind()); err != nil {
			return err
		}
	}
	s.groups[group.Index()] = append(s.groups[group.Index()], members...)
	return nil
}

// Members returns the group members of the given kind, sorted by handle
func (s *Store) Members(group EntityHandle, kind EntityKind) (members []EntityHandle, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err = s.checkLocked(group, Group); err != nil {
		return
	}
	for _, m := range s.groups[group.Index()] {
		if m.Kind() == kind {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return
}

// FaceAdjacent returns the cells sharing a face with cell
func (s *Store) FaceAdjacent(cell EntityHandle) (adj []EntityHandle, err error) {
	s.connect()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err = s.checkLocked(cell, Cell); err != nil {
		return
	}
	if s.eToE == nil || cell.Index() >= len(s.eToE) {
		return nil, fmt.Errorf("%w: %s created during an adjacency query", ErrUnknownEntity, cell)
	}
	adj = make([]EntityHandle, 0, 6)
	for _, nbr := range s.eToE[cell.Index()] {
		if nbr >= 0 {
			adj = append(adj, newHandle(Cell, nbr))
		}
	}
	return
}

func (s *Store) connect() {
	s.mu.RLock()
	built := s.eToE != nil
	s.mu.RUnlock()
	if built {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eToE == nil {
		s.eToE = mesh.Connect(s.cells)
	}
}

// Centroid is the vertex average of a cell
func (s *Store) Centroid(cell EntityHandle) (c [3]float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err = s.checkLocked(cell, Cell); err != nil {
		return
	}
	for _, v := range s.cells[cell.Index()] {
		for d := 0; d < 3; d++ {
			c[d] += s.vertices[v][d]
		}
	}
	for d := 0; d < 3; d++ {
		c[d] /= 8
	}
	return
}

func (s *Store) checkLocked(h EntityHandle, kind EntityKind) error {
	var n int
	switch h.Kind() {
	case Vertex:
		n = len(s.vertices)
	case Cell:
		n = len(s.cells)
	case Group:
		n = len(s.groups)
	}
	if h.Kind() != kind || h.Index() >= n {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, h)
	}
	return nil
}

// DeleteTag drops a tag and all of its values
func (s *Store) DeleteTag(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, name)
}

// TagNames lists the registered tags
func (s *Store) TagNames() (names []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name := range s.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// AddMesh creates the vertices and hexahedra of a structured mesh and returns
// the cell handles in element order
func (s *Store) AddMesh(m *mesh.Mesh) (cells []EntityHandle, err error) {
	verts := s.CreateVertices(m.Vertices)
	cells = make([]EntityHandle, len(m.EToV))
	for k, hex := range m.EToV {
		var vh [8]EntityHandle
		for i, v := range hex {
			vh[i] = verts[v]
		}
		if cells[k], err = s.CreateCell(vh); err != nil {
			return nil, err
		}
	}
	return
}
