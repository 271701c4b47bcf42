//go:build !debug

package rtcheck

const Enabled = false

func Finite(string, float32) {}

type AllocTrap struct{}

func Arm() AllocTrap { return AllocTrap{} }

func (AllocTrap) Check(string) {}
