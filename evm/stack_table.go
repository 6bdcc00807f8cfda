package evm

// minSwapStack/minDupStack mirror the reference engine's own
// stack_table.go: small helpers deriving an opcode's required stack
// depth from its arity rather than hand-writing the number for every
// SWAPn/DUPn variant. SWAPn needs n+1 elements present (the top plus
// the element n deep it exchanges with); DUPn needs n (the element
// n-1 deep it copies).
func minSwapStack(n int) int { return n + 1 }
func minDupStack(n int) int  { return n }
