package compiler

import (
	"sort"

	"bcvm/bytecode"
)

// reservedRegisters carves the fixed-purpose registers out of the general
// pool before any scope allocates from it: the bytecode/registers-backup/
// trash registers used by call sequencing, and the three common-literal
// registers (0, 1, undefined) that are loaded once at program start and
// never reassigned.
var reservedRegisters = map[bytecode.Register]bool{
	bytecode.BytecodePointerReg:       true,
	bytecode.RegistersBackupReg:       true,
	bytecode.TrashReg:                 true,
	bytecode.CommonLiteralZeroReg:     true,
	bytecode.CommonLiteralOneReg:      true,
	bytecode.CommonLiteralUndefinedReg: true,
}

// RegisterPool is the single shared register allocator for a whole
// compilation. Declared variables are front-allocated (lowest free
// register first) so long-lived bindings cluster at the bottom of the
// file; expression temporaries are back-allocated (highest free register
// first) so they cluster at the top, away from declarations, which keeps
// fragmentation from long-lived and short-lived registers colliding.
//
// A register captured by a nested function as a free variable is marked
// permanently reserved instead of being returned to the pool when its
// declaring scope exits: the function may be called at any later point in
// the program, long after the declaring scope's own statements finished,
// so the register has to keep holding that value for the rest of the
// program's life.
type RegisterPool struct {
	available []bytecode.Register // sorted ascending
	captured  map[bytecode.Register]bool
}

// NewRegisterPool builds the pool with every non-reserved register
// available.
func NewRegisterPool() *RegisterPool {
	pool := &RegisterPool{captured: make(map[bytecode.Register]bool)}
	for r := 0; r <= 255; r++ {
		reg := bytecode.Register(r)
		if reservedRegisters[reg] {
			continue
		}
		pool.available = append(pool.available, reg)
	}
	return pool
}

// AllocFront takes the lowest-numbered free register.
func (p *RegisterPool) AllocFront() (bytecode.Register, bool) {
	if len(p.available) == 0 {
		return 0, false
	}
	r := p.available[0]
	p.available = p.available[1:]
	return r, true
}

// AllocBack takes the highest-numbered free register.
func (p *RegisterPool) AllocBack() (bytecode.Register, bool) {
	if len(p.available) == 0 {
		return 0, false
	}
	last := len(p.available) - 1
	r := p.available[last]
	p.available = p.available[:last]
	return r, true
}

// Release returns a register to the pool, unless it has been captured as
// a free variable, in which case it is never returned.
func (p *RegisterPool) Release(r bytecode.Register) {
	if p.captured[r] {
		return
	}
	idx := sort.Search(len(p.available), func(i int) bool { return p.available[i] >= r })
	p.available = append(p.available, 0)
	copy(p.available[idx+1:], p.available[idx:])
	p.available[idx] = r
}

// Capture marks a register as permanently reserved: future Release calls
// for it are no-ops.
func (p *RegisterPool) Capture(r bytecode.Register) {
	p.captured[r] = true
}

// Scope is one lexical block's view of declarations: the block itself (for
// "var"/"let"/"const" and function parameters), a function body, or the
// program's top level. Scopes nest via Parent and share a single
// RegisterPool.
type Scope struct {
	Parent    *Scope
	pool      *RegisterPool
	decls     map[string]bytecode.Register
	ownRegs   []bytecode.Register
	usedDecls map[string]bytecode.Register
}

// NewRootScope creates the top-level scope of a compilation.
func NewRootScope(pool *RegisterPool) *Scope {
	return &Scope{pool: pool, decls: make(map[string]bytecode.Register), usedDecls: make(map[string]bytecode.Register)}
}

// Child opens a nested scope (block, loop body, or function body) sharing
// this scope's register pool.
func (s *Scope) Child() *Scope {
	return &Scope{
		Parent:    s,
		pool:      s.pool,
		decls:     make(map[string]bytecode.Register),
		usedDecls: make(map[string]bytecode.Register),
	}
}

// Declare binds name to a freshly front-allocated register in this scope.
// It returns a SemanticError if name is already declared in this exact
// scope (shadowing in a child scope is fine and handled by a fresh
// Scope.Declare there), and a CustomError if the register pool is
// exhausted.
func (s *Scope) Declare(name string) (bytecode.Register, error) {
	if _, exists := s.decls[name]; exists {
		return 0, SemanticError{Message: "identifier '" + name + "' is already declared in this scope"}
	}
	reg, ok := s.pool.AllocFront()
	if !ok {
		return 0, CustomError{Message: "register pool exhausted while declaring '" + name + "'"}
	}
	s.decls[name] = reg
	s.ownRegs = append(s.ownRegs, reg)
	return reg, nil
}

// AllocTemp back-allocates a scratch register for an expression
// intermediate result. Call ReleaseTemp once the value has been consumed.
func (s *Scope) AllocTemp() (bytecode.Register, error) {
	reg, ok := s.pool.AllocBack()
	if !ok {
		return 0, CustomError{Message: "register pool exhausted allocating a temporary"}
	}
	return reg, nil
}

// ReleaseTemp returns a temporary register obtained from AllocTemp.
func (s *Scope) ReleaseTemp(reg bytecode.Register) {
	s.pool.Release(reg)
}

// Resolve looks up name in this scope and its ancestors. If it is found in
// an ancestor (not this scope), it is recorded as an external dependency:
// on Exit, every ancestor between here and the declaring scope is told to
// capture the register permanently, since a function compiled from this
// scope may run long after the declaring block's own statements finish.
func (s *Scope) Resolve(name string) (bytecode.Register, bool) {
	if reg, ok := s.decls[name]; ok {
		return reg, true
	}
	for ancestor := s.Parent; ancestor != nil; ancestor = ancestor.Parent {
		if reg, ok := ancestor.decls[name]; ok {
			s.usedDecls[name] = reg
			return reg, true
		}
	}
	return 0, false
}

// UsedDeclRegisters returns the registers in this scope's used-declaration
// set, sorted ascending for deterministic encoding: every outer-scope
// declaration this scope has resolved as a free variable so far, plus the
// entries that nested scopes passed up to it when they Exited. This is §8's
// "RegistersArray(used_decl_regs_of_current_scope)" operand of
// ReturnBytecodeFunc.
func (s *Scope) UsedDeclRegisters() []bytecode.Register {
	regs := make([]bytecode.Register, 0, len(s.usedDecls))
	for _, reg := range s.usedDecls {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
	return regs
}

// DeclareAt binds name directly to reg in this scope, without allocating a
// fresh register from the pool. Used where the register is already fixed
// by the instruction being compiled — Try's catch register, assigned by
// the VM before the catch block runs, rather than picked by the compiler.
func (s *Scope) DeclareAt(name string, reg bytecode.Register) error {
	if _, exists := s.decls[name]; exists {
		return SemanticError{Message: "identifier '" + name + "' is already declared in this scope"}
	}
	s.decls[name] = reg
	s.ownRegs = append(s.ownRegs, reg)
	return nil
}

// Exit closes this scope: every register it declared is captured
// permanently if anything nested inside referenced it externally,
// otherwise returned to the pool; any unresolved external dependencies
// this scope itself didn't declare are bubbled up so an enclosing function
// scope captures them too.
func (s *Scope) Exit() {
	for _, reg := range s.usedDecls {
		s.pool.Capture(reg)
	}
	for _, reg := range s.ownRegs {
		s.pool.Release(reg)
	}
	if s.Parent != nil {
		for name, reg := range s.usedDecls {
			if _, declaredHere := s.decls[name]; declaredHere {
				continue
			}
			s.Parent.usedDecls[name] = reg
		}
	}
}
