package cpu

// Nand returns ^(a & b), masked to the width.
func Nand(a, b uint32, width Width) uint32 {
	return ^(a & b) & width.Mask()
}
