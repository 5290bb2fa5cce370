package scheme

import "github.com/san-kum/fmusim/internal/model"

// Absent marks a variable that does not take part in a role.
const Absent = -1

// RoleIndex is the dense numbering of one role (inputs or outputs).
//
// Reduced lists the participating variable indices in ascending order.
// Lookup maps every variable index to its position in Reduced, or Absent.
// Groups holds, per declared group, the Reduced positions of its members in
// declaration order. The metadata slices run parallel to Reduced.
type RoleIndex struct {
	Reduced []int
	Lookup  []int
	Groups  [][]int

	groupNames []string
	groupPos   map[string]int

	Nominal   []float64
	Min       []float64
	Max       []float64
	Names     []string
	ValueRefs []uint32
	Types     []model.Type
}

// Len returns the size of the dense space.
func (r *RoleIndex) Len() int {
	return len(r.Reduced)
}

// Group returns the dense positions of the named group.
func (r *RoleIndex) Group(name string) ([]int, bool) {
	i, ok := r.groupPos[name]
	if !ok {
		return nil, false
	}
	return r.Groups[i], true
}

// GroupNames returns the declared groups in declaration order.
func (r *RoleIndex) GroupNames() []string {
	return r.groupNames
}

// Position returns where variable index i lives in the dense space.
func (r *RoleIndex) Position(i int) (int, bool) {
	if i < 0 || i >= len(r.Lookup) || r.Lookup[i] == Absent {
		return Absent, false
	}
	return r.Lookup[i], true
}

// Batch is a list of value references with the values to push to them.
type Batch[T any] struct {
	Refs   []uint32
	Values []T
}

func (b *Batch[T]) add(vr uint32, v T) {
	b.Refs = append(b.Refs, vr)
	b.Values = append(b.Values, v)
}

func (b Batch[T]) Len() int {
	return len(b.Refs)
}

// Batches are the start values pushed to every fresh instance.
// Integer and enum variables share the Integer batch.
type Batches struct {
	Real    Batch[float64]
	Integer Batch[int32]
	Boolean Batch[bool]
	String  Batch[string]
}

// AuxBatch names the auxiliary variables of one type class.
type AuxBatch struct {
	Names []string
	Refs  []uint32
}

func (b *AuxBatch) add(name string, vr uint32) {
	b.Names = append(b.Names, name)
	b.Refs = append(b.Refs, vr)
}

type AuxBatches struct {
	Real    AuxBatch
	Integer AuxBatch
	Boolean AuxBatch
	String  AuxBatch
}

// Len returns the total number of auxiliary variables.
func (a AuxBatches) Len() int {
	return len(a.Real.Refs) + len(a.Integer.Refs) + len(a.Boolean.Refs) + len(a.String.Refs)
}

// Index is the reconciled view of a model's variable table.
type Index struct {
	In   RoleIndex
	Out  RoleIndex
	Init Batches
	Aux  AuxBatches
}
