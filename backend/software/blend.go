package software

// All values are premultiplied alpha, 0-255.

// div255 divides x by 255 exactly without using division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8
func div255(x uint16) uint16 {
	t := x + 1
	return (t + (t >> 8)) >> 8
}

// mulDiv255 multiplies two bytes and divides by 255 exactly.
func mulDiv255(a, b byte) byte {
	return byte(div255(uint16(a) * uint16(b)))
}

// addSat adds two bytes, clamping at 255.
func addSat(a, b byte) byte {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return byte(s)
}

// sourceOver computes S + D*(1-Sa).
func sourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte) {
	inv := 255 - sa
	return addSat(sr, mulDiv255(dr, inv)),
		addSat(sg, mulDiv255(dg, inv)),
		addSat(sb, mulDiv255(db, inv)),
		addSat(sa, mulDiv255(da, inv))
}
