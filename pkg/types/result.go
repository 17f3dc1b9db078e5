package types

type VerifyResult struct {
	Table  string
	Drift  bool
	Issues int
	Status string
}
