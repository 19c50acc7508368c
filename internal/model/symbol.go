package model

// Symbol is one tradable instrument or index in the forecast universe.
// Reference data only: loaded once at startup and never mutated.
type Symbol struct {
	Name   string `mapstructure:"name" json:"name"`
	Ticker string `mapstructure:"ticker" json:"ticker"`
	Sector string `mapstructure:"sector" json:"sector"`
}

// IsIndex reports whether the symbol is a market index rather than a stock.
func (s Symbol) IsIndex() bool {
	return s.Sector == "INDEX"
}

// SymbolUniverse is the immutable set of symbols the pipeline covers.
// It replaces ad-hoc name->ticker maps: every component that needs the
// mapping receives the same universe by reference.
type SymbolUniverse struct {
	ordered []Symbol
	byName  map[string]Symbol
}

// NewSymbolUniverse builds a universe from the configured symbol list.
func NewSymbolUniverse(symbols []Symbol) *SymbolUniverse {
	u := &SymbolUniverse{
		ordered: make([]Symbol, len(symbols)),
		byName:  make(map[string]Symbol, len(symbols)),
	}
	copy(u.ordered, symbols)
	for _, s := range symbols {
		u.byName[s.Name] = s
	}
	return u
}

// All returns the symbols in configuration order.
func (u *SymbolUniverse) All() []Symbol {
	out := make([]Symbol, len(u.ordered))
	copy(out, u.ordered)
	return out
}

// Get looks up a symbol by display name.
func (u *SymbolUniverse) Get(name string) (Symbol, bool) {
	s, ok := u.byName[name]
	return s, ok
}

// Ticker resolves the market-data ticker for a display name, falling back
// to the name itself for symbols outside the configured universe.
func (u *SymbolUniverse) Ticker(name string) string {
	if s, ok := u.byName[name]; ok {
		return s.Ticker
	}
	return name
}

// Size returns the number of configured symbols.
func (u *SymbolUniverse) Size() int {
	return len(u.ordered)
}
