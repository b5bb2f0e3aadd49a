package cpu

// State holds the Z80 registers the BCD-digit oracle manipulates: the
// accumulator and flags, plus C, which every test vector pairs against A as
// the digit being added or subtracted.
type State struct {
	A, F, C uint8
}
