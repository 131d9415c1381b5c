package preprocessor

// Macro is one textual macro definition. Callable distinguishes
// `define A(x) ... from a plain `define A ..., so that A and A() with an
// empty parameter list stay distinct.
type Macro struct {
	Name     string
	Params   []string
	Body     string
	Callable bool
}

// DefineTable maps macro names to their current definition.
// Redefinition is a silent overwrite, last write wins.
type DefineTable struct {
	macros map[string]Macro
}

func NewDefineTable() *DefineTable {
	return &DefineTable{macros: map[string]Macro{}}
}

func (d *DefineTable) Set(m Macro) {
	d.macros[m.Name] = m
}

func (d *DefineTable) Unset(name string) {
	delete(d.macros, name)
}

func (d *DefineTable) Get(name string) (Macro, bool) {
	m, ok := d.macros[name]
	return m, ok
}

func (d *DefineTable) Contains(name string) bool {
	_, ok := d.macros[name]
	return ok
}
