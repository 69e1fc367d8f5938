package geom

// BoolOp is a boolean path operation.
type BoolOp uint8

const (
	OpUnion BoolOp = iota
	OpReverseDifference
	OpIntersect
	OpXor
)

func (o BoolOp) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpReverseDifference:
		return "reverse-difference"
	case OpIntersect:
		return "intersect"
	case OpXor:
		return "xor"
	}
	return "unknown"
}

// Booleaner computes boolean operations between paths. The geometry package
// ships no implementation; hosts that need merge-path boolean modes supply
// one.
type Booleaner interface {
	Op(op BoolOp, first, rest *Path) (*Path, error)
}
