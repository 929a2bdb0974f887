package compiler

import "testing"

func TestRegisterPoolExcludesReservedRegisters(t *testing.T) {
	pool := NewRegisterPool()
	for reg := range reservedRegisters {
		for _, avail := range pool.available {
			if avail == reg {
				t.Fatalf("reserved register %d appeared in the available pool", reg)
			}
		}
	}
}

func TestRegisterPoolFrontAndBackAllocationDontCollide(t *testing.T) {
	pool := NewRegisterPool()
	front, ok := pool.AllocFront()
	if !ok {
		t.Fatal("expected AllocFront to succeed on a fresh pool")
	}
	back, ok := pool.AllocBack()
	if !ok {
		t.Fatal("expected AllocBack to succeed on a fresh pool")
	}
	if front == back {
		t.Fatalf("AllocFront and AllocBack returned the same register %d", front)
	}
	if front > back {
		t.Fatalf("expected front allocation (%d) to be lower than back allocation (%d)", front, back)
	}
}

func TestRegisterPoolReleaseMakesRegisterAvailableAgain(t *testing.T) {
	pool := NewRegisterPool()
	reg, _ := pool.AllocFront()
	before := len(pool.available)
	pool.Release(reg)
	if len(pool.available) != before+1 {
		t.Fatalf("expected pool size %d after release, got %d", before+1, len(pool.available))
	}
	if pool.available[0] != reg {
		t.Fatalf("expected released register %d to sort back to the front, got %d", reg, pool.available[0])
	}
}

func TestRegisterPoolCapturedRegisterIsNeverReleased(t *testing.T) {
	pool := NewRegisterPool()
	reg, _ := pool.AllocFront()
	pool.Capture(reg)
	before := len(pool.available)
	pool.Release(reg)
	if len(pool.available) != before {
		t.Fatalf("expected captured register to stay out of the pool, size changed from %d to %d", before, len(pool.available))
	}
}

func TestScopeDeclareRejectsRedeclaration(t *testing.T) {
	scope := NewRootScope(NewRegisterPool())
	if _, err := scope.Declare("x"); err != nil {
		t.Fatalf("unexpected error declaring 'x': %v", err)
	}
	if _, err := scope.Declare("x"); err == nil {
		t.Fatal("expected an error redeclaring 'x' in the same scope")
	}
}

func TestScopeResolveFindsOwnDeclaration(t *testing.T) {
	scope := NewRootScope(NewRegisterPool())
	reg, _ := scope.Declare("x")
	got, ok := scope.Resolve("x")
	if !ok || got != reg {
		t.Fatalf("Resolve(x) = %v, %v; want %v, true", got, ok, reg)
	}
}

func TestScopeResolveMissingNameFails(t *testing.T) {
	scope := NewRootScope(NewRegisterPool())
	if _, ok := scope.Resolve("nope"); ok {
		t.Fatal("expected Resolve to fail for an undeclared name")
	}
}

func TestScopeChildReferenceCapturesParentRegisterOnExit(t *testing.T) {
	pool := NewRegisterPool()
	root := NewRootScope(pool)
	outerReg, _ := root.Declare("x")

	child := root.Child()
	if _, ok := child.Resolve("x"); !ok {
		t.Fatal("expected child to resolve 'x' from its parent")
	}
	child.Exit()

	// The child referenced 'x' from the parent: the parent's register must
	// now be permanently captured, not releasable.
	if !pool.captured[outerReg] {
		t.Fatal("expected parent's register to be captured after a child scope referenced it")
	}
}

func TestScopeExitReleasesOwnUnusedRegisters(t *testing.T) {
	pool := NewRegisterPool()
	root := NewRootScope(pool)
	child := root.Child()
	reg, _ := child.Declare("local")
	before := len(pool.available)
	child.Exit()
	if len(pool.available) != before+1 {
		t.Fatalf("expected pool size %d after exiting an unreferenced scope, got %d", before+1, len(pool.available))
	}
	found := false
	for _, r := range pool.available {
		if r == reg {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected register %d to be back in the pool", reg)
	}
}

func TestScopeExitBubblesUnresolvedExternalDepsToParent(t *testing.T) {
	pool := NewRegisterPool()
	root := NewRootScope(pool)
	outerReg, _ := root.Declare("x")

	middle := root.Child()
	inner := middle.Child()
	inner.Resolve("x")
	inner.Exit() // captures x's register; middle didn't declare x, so the dependency bubbles to middle
	if _, stillPending := middle.usedDecls["x"]; !stillPending {
		t.Fatal("expected 'x' to bubble into middle.usedDecls after inner.Exit")
	}
	middle.Exit() // middle passes x on to root; the register stays captured
	if !pool.captured[outerReg] {
		t.Fatal("expected the root declaration to end up captured after two levels of bubbling")
	}
}
