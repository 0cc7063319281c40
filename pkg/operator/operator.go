package operator

// Operator is an administrator allowed to run imports, switch eligibility
// modes, and record settlement overrides. Override audit entries reference the
// operator's Uid.
type Operator struct {
	Id          int
	Uid         string
	DisplayName string
}
