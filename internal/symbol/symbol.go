// Package symbol provides interned identifiers shared by the AST and the
// typechecker. A Symbol is a cheap-to-copy handle; equality is pointer
// equality on the interned entry, so two symbols with the same spelling are
// equal only if they came from the same Intern call sequence or refer to the
// same global.
package symbol

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Symbol is an interned name. The zero Symbol is invalid.
type Symbol struct {
	entry *entry
}

type entry struct {
	name   string
	global bool
}

// Interner deduplicates symbols by spelling. It is safe for concurrent use;
// the typechecker itself is single-threaded but the interner may be shared
// across pipeline stages.
type Interner struct {
	mu      sync.Mutex
	symbols map[string]Symbol
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{symbols: make(map[string]Symbol)}
}

// Intern returns the symbol for name, creating it on first use. Names are
// NFC-normalized so lexically equivalent spellings intern to the same symbol.
func (i *Interner) Intern(name string) Symbol {
	name = norm.NFC.String(name)
	i.mu.Lock()
	defer i.mu.Unlock()
	if s, ok := i.symbols[name]; ok {
		return s
	}
	s := Symbol{entry: &entry{name: name}}
	i.symbols[name] = s
	return s
}

// Fresh returns a new symbol with the given spelling that is distinct from
// every other symbol, interned or not. Used for variables introduced by the
// typechecker itself.
func (i *Interner) Fresh(name string) Symbol {
	return Symbol{entry: &entry{name: norm.NFC.String(name)}}
}

// FreshGlobal returns a globally unique symbol derived from name. Type
// bindings receive such symbols so that aliases declared in different
// expressions or modules never collide.
func (i *Interner) FreshGlobal(name string) Symbol {
	return Symbol{entry: &entry{
		name:   norm.NFC.String(name) + "@" + uuid.NewString()[:8],
		global: true,
	}}
}

// Name returns the symbol's spelling. Fresh globals keep their original
// spelling up to the first '@'.
func (s Symbol) Name() string {
	if s.entry == nil {
		return "<invalid>"
	}
	return s.entry.name
}

// Declared returns the user-visible spelling, stripping the unique suffix of
// globals.
func (s Symbol) Declared() string {
	name := s.Name()
	if s.entry != nil && s.entry.global {
		for i := 0; i < len(name); i++ {
			if name[i] == '@' {
				return name[:i]
			}
		}
	}
	return name
}

// IsGlobal reports whether the symbol was created by FreshGlobal.
func (s Symbol) IsGlobal() bool {
	return s.entry != nil && s.entry.global
}

// Valid reports whether the symbol refers to an interned entry.
func (s Symbol) Valid() bool {
	return s.entry != nil
}

func (s Symbol) String() string {
	return s.Name()
}

// GoString helps debugging output distinguish distinct symbols that share a
// spelling.
func (s Symbol) GoString() string {
	return fmt.Sprintf("symbol.Symbol(%q@%p)", s.Name(), s.entry)
}
