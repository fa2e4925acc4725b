package visitor

// Registry maps visitor names to their canonical record.
// Entries are never removed; iteration follows first-observation order.
type Registry struct {
	byName map[string]*Visitor
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Visitor{}}
}

// Get returns a copy of the stored record.
func (r *Registry) Get(name string) (Visitor, bool) {
	v, ok := r.byName[name]
	if !ok {
		return Visitor{}, false
	}
	return *v, true
}

func (r *Registry) Len() int { return len(r.order) }

// All returns copies of every record in first-observation order.
func (r *Registry) All() []Visitor {
	out := make([]Visitor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.byName[name])
	}
	return out
}

func (r *Registry) insert(v Visitor) {
	if _, ok := r.byName[v.Name]; !ok {
		r.order = append(r.order, v.Name)
	}
	cp := v
	r.byName[v.Name] = &cp
}

func (r *Registry) ref(name string) *Visitor { return r.byName[name] }
