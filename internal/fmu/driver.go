package fmu

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/san-kum/fmusim/internal/fmi"
	"github.com/san-kum/fmusim/internal/model"
	"github.com/san-kum/fmusim/internal/platform"
	"github.com/san-kum/fmusim/internal/scheme"
	"go.uber.org/zap"
)

// Options configure a Driver.
type Options struct {
	Logger *zap.Logger

	// Table replaces loading the binary from the model path.
	Table *fmi.Table
}

// AuxValues hold the latest auxiliary values, parallel to scheme.AuxBatches.
type AuxValues struct {
	Real    []float64
	Integer []int32
	Boolean []bool
	String  []string
}

// Driver is the setup-time state shared by every instance of one unit:
// the model, its reconciled index and the resolved entry points.
// A Driver is safe for concurrent use; its instances are not.
type Driver struct {
	model     *model.Model
	index     *scheme.Index
	table     *fmi.Table
	lib       *fmi.Library
	log       *zap.Logger
	resources string

	start []float64

	auxMu sync.Mutex
	aux   AuxValues

	seq atomic.Int64
}

// New indexes the model and resolves its entry points. Any configuration or
// load error aborts setup and no driver is returned.
func New(m *model.Model, opts Options) (*Driver, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("model", m.Identifier))

	idx, err := scheme.Build(m.Variables, m.Scheme, m.Aux, log)
	if err != nil {
		return nil, err
	}

	caps := fmi.Capabilities{
		DirectionalDerivatives: m.ProvidesDirectionalDerivatives,
		AdjointDerivatives:     m.ProvidesAdjointDerivatives,
	}

	d := &Driver{
		model:     m,
		index:     idx,
		log:       log,
		resources: platform.ResourceURI(m.Path),
	}

	if opts.Table != nil {
		if err := opts.Table.Validate(caps); err != nil {
			return nil, err
		}
		d.table = gate(opts.Table, caps)
	} else {
		lib, err := fmi.Open(platform.BinaryPath(m.Path, m.Identifier), caps, log)
		if err != nil {
			return nil, err
		}
		d.lib = lib
		d.table = lib.Table
	}

	d.aux = AuxValues{
		Real:    make([]float64, len(idx.Aux.Real.Refs)),
		Integer: make([]int32, len(idx.Aux.Integer.Refs)),
		Boolean: make([]bool, len(idx.Aux.Boolean.Refs)),
		String:  make([]string, len(idx.Aux.String.Refs)),
	}

	d.start = make([]float64, idx.In.Len())
	for k, i := range idx.In.Reduced {
		if v := m.Variables[i].Value; v != nil {
			d.start[k] = *v
		}
	}
	return d, nil
}

// gate drops optional entry points the model does not declare.
func gate(t *fmi.Table, caps fmi.Capabilities) *fmi.Table {
	gated := *t
	if !caps.DirectionalDerivatives {
		gated.GetDirectionalDerivative = fmi.Optional[fmi.DerivativeFunc]{}
	}
	if !caps.AdjointDerivatives {
		gated.GetAdjointDerivative = fmi.Optional[fmi.DerivativeFunc]{}
	}
	return &gated
}

func (d *Driver) Model() *model.Model  { return d.model }
func (d *Driver) Index() *scheme.Index { return d.index }
func (d *Driver) Logger() *zap.Logger  { return d.log }
func (d *Driver) ResourceURI() string  { return d.resources }

func (d *Driver) Capabilities() fmi.Capabilities {
	return d.table.Capabilities()
}

// Close unloads the binary. All instances must be freed first.
func (d *Driver) Close() error {
	if d.lib == nil {
		return nil
	}
	return d.lib.Close()
}

// NewInstance returns an unloaded instance.
func (d *Driver) NewInstance() *Instance {
	n := d.seq.Add(1)
	name := fmt.Sprintf("%s_%d", d.model.Identifier, n)
	return &Instance{
		d:      d,
		name:   name,
		log:    d.log.With(zap.String("instance", name)),
		inputs: append([]float64(nil), d.start...),
	}
}

// With runs fn on a fresh instantiated instance and frees it on every path.
func (d *Driver) With(fn func(*Instance) error) error {
	in := d.NewInstance()
	defer in.Free()
	if err := in.Instantiate(); err != nil {
		return err
	}
	return fn(in)
}

// Aux returns a copy of the latest auxiliary values.
func (d *Driver) Aux() AuxValues {
	d.auxMu.Lock()
	defer d.auxMu.Unlock()
	return AuxValues{
		Real:    append([]float64(nil), d.aux.Real...),
		Integer: append([]int32(nil), d.aux.Integer...),
		Boolean: append([]bool(nil), d.aux.Boolean...),
		String:  append([]string(nil), d.aux.String...),
	}
}

// Nominal returns the nominal values of the inputs, in dense order.
// Variables without a nominal value get 1.
func (d *Driver) Nominal() []float64 {
	out := make([]float64, d.index.In.Len())
	for i, v := range d.index.In.Nominal {
		if v == 0 || math.IsNaN(v) {
			v = 1
		}
		out[i] = v
	}
	return out
}
