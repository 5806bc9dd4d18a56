package scene

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/wisp-go/common"
	"github.com/Carmen-Shannon/wisp-go/engine/renderer"
)

// FlowerGroupName is the prop group holding the hidden flower. It starts
// invisible and is revealed by the choreography when the camera reaches the
// clearing.
const FlowerGroupName = "flower"

// clearingRadius is the tree-free radius around the scene origin where the
// flower sits.
const clearingRadius = 5.0

// ForestGroups builds the stylized forest prop set: a ground plane, scattered
// tree trunks and canopies, a handful of pumpkins along the path, and the
// hidden flower at the clearing center. Placement is deterministic for a
// given seed.
//
// Parameters:
//   - seed: placement seed
//
// Returns:
//   - []*PropGroup: the assembled groups, flower last and invisible
func ForestGroups(seed int64) []*PropGroup {
	rng := rand.New(rand.NewSource(seed))

	groundVerts, groundIdx := makePlane(40)
	ground := &PropGroup{
		Name:     "ground",
		Vertices: groundVerts,
		Indices:  groundIdx,
		Instances: []renderer.PropInstance{
			propInstance(0, 0, 0, 0, 1, 1, 1, [4]float32{0.07, 0.11, 0.07, 1}),
		},
		Visible: true,
	}

	trunkVerts, trunkIdx := makeCylinder(0.25, 2.2, 8)
	canopyVerts, canopyIdx := makeCone(1.6, 4.2, 10)
	trunks := &PropGroup{
		Name:     "trunks",
		Vertices: trunkVerts,
		Indices:  trunkIdx,
		Visible:  true,
	}
	canopies := &PropGroup{
		Name:     "canopies",
		Vertices: canopyVerts,
		Indices:  canopyIdx,
		Visible:  true,
	}

	const treeCount = 48
	for i := 0; i < treeCount; i++ {
		x, z := scatter(rng, 32, clearingRadius)
		yaw := rng.Float32() * 2 * math32.Pi
		s := 0.8 + rng.Float32()*0.6

		// Slight per-tree color variation keeps the batch from looking tiled.
		shade := 0.85 + rng.Float32()*0.3
		trunks.Instances = append(trunks.Instances,
			propInstance(x, 0, z, yaw, s, s, s, [4]float32{0.20 * shade, 0.13 * shade, 0.07 * shade, 1}))
		canopies.Instances = append(canopies.Instances,
			propInstance(x, 2.0*s, z, yaw, s, s, s, [4]float32{0.09 * shade, 0.23 * shade, 0.11 * shade, 1}))
	}

	pumpkinVerts, pumpkinIdx := makeSphere(0.4, 8, 12)
	pumpkins := &PropGroup{
		Name:     "pumpkins",
		Vertices: pumpkinVerts,
		Indices:  pumpkinIdx,
		Visible:  true,
	}
	const pumpkinCount = 12
	for i := 0; i < pumpkinCount; i++ {
		x, z := scatter(rng, 14, 1.5)
		yaw := rng.Float32() * 2 * math32.Pi
		s := 0.7 + rng.Float32()*0.7
		pumpkins.Instances = append(pumpkins.Instances,
			propInstance(x, 0.3*s, z, yaw, s, 0.75*s, s, [4]float32{0.82, 0.42, 0.10, 1}))
	}

	flowerVerts, flowerIdx := makeFlower()
	flower := &PropGroup{
		Name:     FlowerGroupName,
		Vertices: flowerVerts,
		Indices:  flowerIdx,
		Instances: []renderer.PropInstance{
			propInstance(0, 0, 0, 0, 1, 1, 1, [4]float32{0.96, 0.88, 1.0, 1}),
		},
		Visible: false,
	}

	return []*PropGroup{ground, trunks, canopies, pumpkins, flower}
}

// scatter returns a random xz position within extent of the origin but
// outside the exclusion radius.
func scatter(rng *rand.Rand, extent, exclusion float32) (x, z float32) {
	for {
		x = (rng.Float32()*2 - 1) * extent
		z = (rng.Float32()*2 - 1) * extent
		if x*x+z*z >= exclusion*exclusion {
			return x, z
		}
	}
}

func propInstance(x, y, z, yaw, sx, sy, sz float32, color [4]float32) renderer.PropInstance {
	inst := renderer.PropInstance{Color: color}
	common.BuildModelMatrix(inst.Model[:], x, y, z, 0, yaw, 0, sx, sy, sz)
	return inst
}

// makePlane builds a flat square in the xz plane centered on the origin.
func makePlane(halfExtent float32) ([]renderer.Vertex, []uint32) {
	e := halfExtent
	vertices := []renderer.Vertex{
		{Position: [3]float32{-e, 0, -e}, Normal: [3]float32{0, 1, 0}},
		{Position: [3]float32{e, 0, -e}, Normal: [3]float32{0, 1, 0}},
		{Position: [3]float32{e, 0, e}, Normal: [3]float32{0, 1, 0}},
		{Position: [3]float32{-e, 0, e}, Normal: [3]float32{0, 1, 0}},
	}
	indices := []uint32{0, 3, 2, 0, 2, 1}
	return vertices, indices
}

// makeCylinder builds an open-ended cylinder from y=0 to y=height with
// radial normals.
func makeCylinder(radius, height float32, segments int) ([]renderer.Vertex, []uint32) {
	vertices := make([]renderer.Vertex, 0, segments*2)
	indices := make([]uint32, 0, segments*6)

	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		nx, nz := math32.Cos(a), math32.Sin(a)
		vertices = append(vertices,
			renderer.Vertex{Position: [3]float32{radius * nx, 0, radius * nz}, Normal: [3]float32{nx, 0, nz}},
			renderer.Vertex{Position: [3]float32{radius * nx, height, radius * nz}, Normal: [3]float32{nx, 0, nz}},
		)
	}
	for i := 0; i < segments; i++ {
		b0 := uint32(2 * i)
		t0 := b0 + 1
		b1 := uint32(2 * ((i + 1) % segments))
		t1 := b1 + 1
		indices = append(indices, b0, t0, t1, b0, t1, b1)
	}
	return vertices, indices
}

// makeCone builds an open-based cone with its apex at y=height. Each segment
// carries its own apex vertex so the slant normals stay per-face smooth.
func makeCone(radius, height float32, segments int) ([]renderer.Vertex, []uint32) {
	slant := math32.Sqrt(height*height + radius*radius)
	vertices := make([]renderer.Vertex, 0, segments*2)
	indices := make([]uint32, 0, segments*3)

	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		cx, sz := math32.Cos(a), math32.Sin(a)
		normal := [3]float32{cx * height / slant, radius / slant, sz * height / slant}
		vertices = append(vertices,
			renderer.Vertex{Position: [3]float32{radius * cx, 0, radius * sz}, Normal: normal},
			renderer.Vertex{Position: [3]float32{0, height, 0}, Normal: normal},
		)
	}
	for i := 0; i < segments; i++ {
		b0 := uint32(2 * i)
		apex := b0 + 1
		b1 := uint32(2 * ((i + 1) % segments))
		indices = append(indices, b0, apex, b1)
	}
	return vertices, indices
}

// makeSphere builds a UV sphere centered on the origin.
func makeSphere(radius float32, rings, sectors int) ([]renderer.Vertex, []uint32) {
	vertices := make([]renderer.Vertex, 0, (rings+1)*(sectors+1))
	indices := make([]uint32, 0, rings*sectors*6)

	for r := 0; r <= rings; r++ {
		theta := math32.Pi * float32(r) / float32(rings)
		sinT, cosT := math32.Sin(theta), math32.Cos(theta)
		for s := 0; s <= sectors; s++ {
			phi := 2 * math32.Pi * float32(s) / float32(sectors)
			nx := sinT * math32.Cos(phi)
			ny := cosT
			nz := sinT * math32.Sin(phi)
			vertices = append(vertices, renderer.Vertex{
				Position: [3]float32{radius * nx, radius * ny, radius * nz},
				Normal:   [3]float32{nx, ny, nz},
			})
		}
	}
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			a := uint32(r*(sectors+1) + s)
			b := a + uint32(sectors) + 1
			indices = append(indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return vertices, indices
}

// makeFlower builds the hidden flower: a thin stem with a luminous bloom.
func makeFlower() ([]renderer.Vertex, []uint32) {
	stemVerts, stemIdx := makeCylinder(0.04, 0.5, 6)
	bloomVerts, bloomIdx := makeSphere(0.16, 6, 8)

	vertices := make([]renderer.Vertex, 0, len(stemVerts)+len(bloomVerts))
	vertices = append(vertices, stemVerts...)

	base := uint32(len(stemVerts))
	for _, v := range bloomVerts {
		v.Position[1] += 0.5
		vertices = append(vertices, v)
	}

	indices := make([]uint32, 0, len(stemIdx)+len(bloomIdx))
	indices = append(indices, stemIdx...)
	for _, idx := range bloomIdx {
		indices = append(indices, base+idx)
	}
	return vertices, indices
}
