/*
Package evm implements the interpreter core: the Runner that dispatches
bytecode opcodes against the per-frame Stack and Memory (packages stack
and memory) and the layered world State (package state).

The evm package implements one virtual machine, a byte code VM. The BC
(Byte Code) VM loops over a set of bytes and executes them according to
the Ethereum instruction set, minus gas accounting, precompiles, and
consensus semantics — this is an emulator for exploring and testing
contract bytecode, not a node.
*/
package evm
