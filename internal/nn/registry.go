package nn

import (
	"slices"

	"github.com/samber/lo"

	"github.com/born-ml/needle/internal/tensor"
)

type fieldKind int

const (
	fieldParam fieldKind = iota
	fieldModule
	fieldList
	fieldDict
)

// Field is one entry in a module's ownership declaration: a parameter, a
// child module, or an ordered list or keyed map of further fields.
type Field[B tensor.Backend] struct {
	kind   fieldKind
	param  *Parameter[B]
	module Module[B]
	items  []Field[B]
	dict   map[string]Field[B]
}

// ParamField declares an owned parameter. A nil parameter declares nothing,
// which lets optional biases be listed unconditionally.
func ParamField[B tensor.Backend](p *Parameter[B]) Field[B] {
	return Field[B]{kind: fieldParam, param: p}
}

// ModuleField declares an owned child module. A nil module declares nothing.
func ModuleField[B tensor.Backend](m Module[B]) Field[B] {
	return Field[B]{kind: fieldModule, module: m}
}

// ListField declares an ordered collection of fields.
func ListField[B tensor.Backend](items ...Field[B]) Field[B] {
	return Field[B]{kind: fieldList, items: items}
}

// DictField declares a keyed collection of fields. Entries are visited in
// ascending key order.
func DictField[B tensor.Backend](dict map[string]Field[B]) Field[B] {
	return Field[B]{kind: fieldDict, dict: dict}
}

// ModuleList is a convenience for declaring a slice of layers as a list field.
func ModuleList[B tensor.Backend, M Module[B]](modules []M) Field[B] {
	return ListField(lo.Map(modules, func(m M, _ int) Field[B] {
		return ModuleField[B](m)
	})...)
}

// walker visits a module tree depth-first, each module and parameter once.
type walker[B tensor.Backend] struct {
	seenModules map[Module[B]]struct{}
	seenParams  map[*Parameter[B]]struct{}
	onModule    func(Module[B])
	onParam     func(*Parameter[B])
}

func newWalker[B tensor.Backend]() *walker[B] {
	return &walker[B]{
		seenModules: make(map[Module[B]]struct{}),
		seenParams:  make(map[*Parameter[B]]struct{}),
		onModule:    func(Module[B]) {},
		onParam:     func(*Parameter[B]) {},
	}
}

func (w *walker[B]) module(m Module[B]) {
	if m == nil {
		return
	}
	if _, ok := w.seenModules[m]; ok {
		return
	}
	w.seenModules[m] = struct{}{}
	w.onModule(m)
	for _, f := range m.Fields() {
		w.field(f)
	}
}

func (w *walker[B]) field(f Field[B]) {
	switch f.kind {
	case fieldParam:
		if f.param == nil {
			return
		}
		if _, ok := w.seenParams[f.param]; ok {
			return
		}
		w.seenParams[f.param] = struct{}{}
		w.onParam(f.param)
	case fieldModule:
		w.module(f.module)
	case fieldList:
		for _, item := range f.items {
			w.field(item)
		}
	case fieldDict:
		keys := lo.Keys(f.dict)
		slices.Sort(keys)
		for _, k := range keys {
			w.field(f.dict[k])
		}
	}
}

// Parameters returns every parameter reachable from root, depth-first in
// declaration order. A parameter shared by several modules appears once,
// at its first occurrence.
func Parameters[B tensor.Backend](root Module[B]) []*Parameter[B] {
	var params []*Parameter[B]
	w := newWalker[B]()
	w.onParam = func(p *Parameter[B]) { params = append(params, p) }
	w.module(root)
	return params
}

// Modules returns root followed by every module reachable from it, in
// pre-order. A shared module appears once.
func Modules[B tensor.Backend](root Module[B]) []Module[B] {
	var mods []Module[B]
	w := newWalker[B]()
	w.onModule = func(m Module[B]) { mods = append(mods, m) }
	w.module(root)
	return mods
}

// Train puts root and all of its descendants into training mode.
func Train[B tensor.Backend](root Module[B]) {
	setMode(root, true)
}

// Eval puts root and all of its descendants into evaluation mode.
func Eval[B tensor.Backend](root Module[B]) {
	setMode(root, false)
}

func setMode[B tensor.Backend](root Module[B], training bool) {
	for _, m := range Modules(root) {
		m.setTraining(training)
	}
}

// NumParameters counts the scalar elements of every parameter reachable
// from root.
func NumParameters[B tensor.Backend](root Module[B]) int {
	return lo.SumBy(Parameters(root), func(p *Parameter[B]) int {
		return p.Tensor().NumElements()
	})
}

// ZeroGrad clears the stored gradient of every parameter reachable from root.
func ZeroGrad[B tensor.Backend](root Module[B]) {
	lo.ForEach(Parameters(root), func(p *Parameter[B], _ int) {
		p.ZeroGrad()
	})
}
