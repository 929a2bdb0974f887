package bytecode

// Instruction is a single opcode understood by the target virtual machine.
// Numbering follows the table the host VM was built against; gaps between
// the groups are deliberate and must not be filled in to keep future
// opcodes binary-compatible with existing bytecode.base64 output.
type Instruction byte

const (
	LoadString Instruction = 1
	LoadNum    Instruction = 2
	LoadFloatNum Instruction = 3
	LoadLongNum  Instruction = 4
	LoadArray    Instruction = 5

	PropAccess           Instruction = 10
	CallFunc             Instruction = 11
	Eval                 Instruction = 12
	CallBytecodeFunc     Instruction = 13
	ReturnBytecodeFunc   Instruction = 14
	Copy                 Instruction = 15
	Exit                 Instruction = 16
	JumpCond             Instruction = 17
	Jump                 Instruction = 18
	JumpCondNeg          Instruction = 19
	BytecodeFuncCallback Instruction = 20
	PropertySet          Instruction = 21

	// Comparison instructions occupy 50..57. The host VM's source tables
	// name the range but not a per-operator order; this ordering was fixed
	// here and is load-bearing for every bytecode.base64 this compiler
	// produces, documented in DESIGN.md.
	Equal             Instruction = 50
	NotEqual          Instruction = 51
	StrictEqual       Instruction = 52
	StrictNotEqual    Instruction = 53
	LessThan          Instruction = 54
	GreaterThan       Instruction = 55
	LessThanEqual     Instruction = 56
	GreaterThanEqual  Instruction = 57

	Add   Instruction = 100
	Mul   Instruction = 101
	Minus Instruction = 102
	Div   Instruction = 103

	// Throw and Try are not pinned by the host VM's published tables. The
	// values below were chosen to sit outside every occupied range and are
	// recorded as a fixed ABI decision in DESIGN.md.
	Throw Instruction = 110
	Try   Instruction = 111
)

// operandCounts gives the number of Operand values each Instruction takes
// on the wire. NewOperation checks every Operation it builds against this
// table.
var operandCounts = map[Instruction]int{
	LoadString:           2, // dest reg, string
	LoadNum:               2, // dest reg, short num
	LoadFloatNum:          2, // dest reg, float
	LoadLongNum:           2, // dest reg, long num
	LoadArray:             2, // dest reg, elements array
	PropAccess:            3, // dest reg, object reg, property reg
	CallFunc:              3, // dest reg, callee reg, args array
	Eval:                  2, // dest reg, source reg
	CallBytecodeFunc:      2, // function addr, function arguments
	ReturnBytecodeFunc:    2, // return value reg, used-decl registers array
	Copy:                  2, // dest reg, src reg
	Exit:                  0,
	JumpCond:              2, // cond reg, branch addr
	Jump:                  1, // branch addr
	JumpCondNeg:            2, // cond reg, branch addr
	BytecodeFuncCallback:  1, // callback reg
	PropertySet:           3, // object reg, property reg, value reg
	Equal:                3, GreaterThan: 3, LessThan: 3, LessThanEqual: 3, GreaterThanEqual: 3,
	NotEqual: 3, StrictEqual: 3, StrictNotEqual: 3,
	Add: 3, Mul: 3, Minus: 3, Div: 3,
	Throw: 1,
	Try:   3, // catch reg, catch branch addr, finally branch addr
}

// Name returns a human-readable mnemonic, used by disassembly output.
func (i Instruction) Name() string {
	switch i {
	case LoadString:
		return "LoadString"
	case LoadNum:
		return "LoadNum"
	case LoadFloatNum:
		return "LoadFloatNum"
	case LoadLongNum:
		return "LoadLongNum"
	case LoadArray:
		return "LoadArray"
	case PropAccess:
		return "PropAccess"
	case CallFunc:
		return "CallFunc"
	case Eval:
		return "Eval"
	case CallBytecodeFunc:
		return "CallBytecodeFunc"
	case ReturnBytecodeFunc:
		return "ReturnBytecodeFunc"
	case Copy:
		return "Copy"
	case Exit:
		return "Exit"
	case JumpCond:
		return "JumpCond"
	case Jump:
		return "Jump"
	case JumpCondNeg:
		return "JumpCondNeg"
	case BytecodeFuncCallback:
		return "BytecodeFuncCallback"
	case PropertySet:
		return "PropertySet"
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	case StrictEqual:
		return "StrictEqual"
	case StrictNotEqual:
		return "StrictNotEqual"
	case LessThan:
		return "LessThan"
	case GreaterThan:
		return "GreaterThan"
	case LessThanEqual:
		return "LessThanEqual"
	case GreaterThanEqual:
		return "GreaterThanEqual"
	case Add:
		return "Add"
	case Mul:
		return "Mul"
	case Minus:
		return "Minus"
	case Div:
		return "Div"
	case Throw:
		return "Throw"
	case Try:
		return "Try"
	default:
		return "Unknown"
	}
}
