package dlis

import (
	"fmt"

	"github.com/yamaru/welllog-tool/internal/diag"
	"github.com/yamaru/welllog-tool/internal/types"
)

// Pool is the ordered collection of object sets recovered from one logical
// file, with typed lookups over them.
type Pool struct {
	Sets []*ObjectSet
}

// Types lists the set types in file order, one entry per set.
func (p *Pool) Types() []types.Ident {
	out := make([]types.Ident, 0, len(p.Sets))
	for _, set := range p.Sets {
		out = append(out, set.Type)
	}
	return out
}

// GetType collects every object from sets of the given type. Object-level
// problems are not re-reported here; use Get for singular objects.
func (p *Pool) GetType(typ string) ([]Object, error) {
	var objs []Object
	for _, set := range p.Sets {
		if string(set.Type) != typ {
			continue
		}
		tmp, err := set.Objects()
		if err != nil {
			return nil, err
		}
		objs = append(objs, tmp...)
	}
	return objs, nil
}

// Get collects objects of the given type whose name identifier matches,
// re-reporting each matched object's accumulated problems.
func (p *Pool) Get(typ, name string) ([]Object, error) {
	var objs []Object
	for _, set := range p.Sets {
		if string(set.Type) != typ {
			continue
		}
		all, err := set.Objects()
		if err != nil {
			return nil, err
		}
		for _, obj := range all {
			if string(obj.Name.ID) != name {
				continue
			}
			if len(obj.Info) > 0 {
				context := fmt.Sprintf("Message from object %s", obj.Fingerprint())
				if err := diag.Report(obj.Info, context); err != nil {
					return nil, err
				}
			}
			objs = append(objs, obj)
		}
	}
	return objs, nil
}
