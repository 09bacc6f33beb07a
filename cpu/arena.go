package cpu

const (
	ARENA_PROGRAM = 0x200 // User code and data. Below is reserved.
	ARENA_END     = 0x1000

	ORIGIN = ARENA_PROGRAM // Load and reset address of programs.

	NO_PC = 0xffff // Previous PC before the first cycle. Never addressable.
)
