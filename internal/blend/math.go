package blend

// div255 divides x by 255 exactly without using division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8
//
// This is Alvy Ray Smith's formula. It is exact for every product of two
// bytes.
func div255(x uint16) uint16 {
	t := x + 1
	return (t + (t >> 8)) >> 8
}

// MulDiv255 multiplies two bytes and divides by 255.
func MulDiv255(a, b byte) byte {
	return byte(div255(uint16(a) * uint16(b)))
}

// Premultiply converts straight-alpha RGBA8 pixels to premultiplied alpha
// in place.
func Premultiply(pixels []byte) {
	for i := 0; i+3 < len(pixels); i += 4 {
		a := pixels[i+3]
		if a == 255 {
			continue
		}
		pixels[i] = MulDiv255(pixels[i], a)
		pixels[i+1] = MulDiv255(pixels[i+1], a)
		pixels[i+2] = MulDiv255(pixels[i+2], a)
	}
}

// Unpremultiply converts premultiplied RGBA8 pixels to straight alpha in
// place. Fully transparent pixels become transparent black.
func Unpremultiply(pixels []byte) {
	for i := 0; i+3 < len(pixels); i += 4 {
		a := uint16(pixels[i+3])
		switch a {
		case 255:
			continue
		case 0:
			pixels[i], pixels[i+1], pixels[i+2] = 0, 0, 0
			continue
		}
		for c := 0; c < 3; c++ {
			v := (uint16(pixels[i+c])*255 + a/2) / a
			if v > 255 {
				v = 255
			}
			pixels[i+c] = byte(v)
		}
	}
}
