package matrix

import "errors"

var (
	// Expansion errors 🧮
	ErrUnknownVersion = errors.New("❌ unknown interpreter version tag")
	ErrUnknownFactor  = errors.New("❌ unknown feature factor")

	// Selection errors 🎯
	ErrUnknownEnvironment = errors.New("❌ unknown environment")
	ErrUnknownCIVersion   = errors.New("❌ unknown CI interpreter version")
)
