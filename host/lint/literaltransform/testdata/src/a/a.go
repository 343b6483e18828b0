package a

type Vec3 struct{ X, Y, Z float64 }

type Quat struct{ W, X, Y, Z float64 }

func NewVec3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

type Node struct{}

func (n *Node) SetPosition(v Vec3) {}
func (n *Node) SetRotation(q Quat) {}
func (n *Node) SetScale(v Vec3)    {}

const half = 0.5

func SetPosition(v Vec3) {}

func place(n *Node, entry Vec3, offset float64) {
	n.SetPosition(NewVec3(1, 2, 3))                 // want `literal transform passed to SetPosition`
	n.SetScale(Vec3{X: half, Y: half, Z: -half})    // want `literal transform passed to SetScale`
	n.SetRotation(Quat{1, 0, 0, 0})                 // want `literal transform passed to SetRotation`
	n.SetPosition((NewVec3(0, 2*half, 0)))          // want `literal transform passed to SetPosition`
	n.SetPosition(entry)
	n.SetPosition(NewVec3(offset, 0, 0))
	n.SetScale(Vec3{})
	SetPosition(NewVec3(1, 1, 1))
}
