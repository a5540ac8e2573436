package domain

// Grammar describes the shape of a candidate password: a base token
// built from the word list, followed by a run of digits, followed by
// exactly one special character.
type Grammar struct {
	BaseMinLen int
	BaseMaxLen int
	Separators []string
	MinDigits  int
	MaxDigits  int
}

// DefaultGrammar returns the standard candidate grammar: a 5-12
// character base, 1-5 digits, and one trailing special character.
func DefaultGrammar() Grammar {
	return Grammar{
		BaseMinLen: 5,
		BaseMaxLen: 12,
		Separators: []string{"", "-", "_", "."},
		MinDigits:  1,
		MaxDigits:  5,
	}
}
