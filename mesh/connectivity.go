package mesh

import "sort"

// HexFaces returns the four vertices of each hexahedron face
func HexFaces(v [8]int) [6][4]int {
	return [6][4]int{
		{v[0], v[3], v[2], v[1]}, // Face 0 (bottom)
		{v[4], v[5], v[6], v[7]}, // Face 1 (top)
		{v[0], v[1], v[5], v[4]}, // Face 2
		{v[1], v[2], v[6], v[5]}, // Face 3
		{v[2], v[3], v[7], v[6]}, // Face 4
		{v[3], v[0], v[4], v[7]}, // Face 5
	}
}

// FaceKey is the sorted vertex tuple identifying a face independent of winding
type FaceKey [4]int

func NewFaceKey(face [4]int) FaceKey {
	sorted := face
	sort.Ints(sorted[:])
	return FaceKey(sorted)
}

type faceOwner struct {
	elem, localID int
}

// Connect matches hexahedron faces shared by exactly two elements and returns
// the element to element connectivity, -1 marking a boundary face.
func Connect(EToV [][8]int) (EToE [][6]int) {
	var (
		faces = make(map[FaceKey]faceOwner, 3*len(EToV))
	)
	EToE = make([][6]int, len(EToV))
	for elemID, verts := range EToV {
		for f := range EToE[elemID] {
			EToE[elemID][f] = -1
		}
		for localFaceID, faceVerts := range HexFaces(verts) {
			key := NewFaceKey(faceVerts)
			if owner, exists := faces[key]; exists {
				// Interior face, second visit
				EToE[elemID][localFaceID] = owner.elem
				EToE[owner.elem][owner.localID] = elemID
				delete(faces, key)
			} else {
				faces[key] = faceOwner{elemID, localFaceID}
			}
		}
	}
	return
}
