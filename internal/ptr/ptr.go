// Package ptr centralizes encode/decode of the variable-width block
// pointers used throughout a vdisk image, so the four supported widths
// (1, 2, 4 or 8 bytes) are handled in one place instead of being
// replicated at every call site.
package ptr

// Widths are the pointer widths a Geometry can select, in ascending order.
var Widths = [...]int{1, 2, 4, 8}

// Read decodes a little-endian pointer value of the given width from b.
// b must have at least width bytes.
func Read(b []byte, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}

// Write encodes v as a little-endian pointer of the given width into out.
// out must have at least width bytes; any higher bytes are left untouched.
func Write(out []byte, width int, v uint64) {
	for i := 0; i < width; i++ {
		out[i] = byte(v >> (8 * uint(i)))
	}
}
