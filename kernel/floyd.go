package kernel

// FloydSteinberg quantizes a gray frame to {0, 255} with left-to-right
// error diffusion (7/16 right, 3/16 down-left, 5/16 down, 1/16 down-right).
// The result is a new slice of the same size; gray is not modified.
func FloydSteinberg(gray []byte, w, h int) []byte {
	out := make([]byte, len(gray))
	if w <= 0 || h <= 0 {
		return out
	}

	buf := make([]float32, w*h)
	for i := range buf {
		buf[i] = float32(gray[i])
	}

	for y := range h {
		for x := range w {
			i := y*w + x
			old := buf[i]

			var q float32
			if old >= 128 {
				q = 255
				out[i] = 255
			}

			e := old - q

			if x+1 < w {
				buf[i+1] += e * 7 / 16
			}

			if y+1 >= h {
				continue
			}

			if x > 0 {
				buf[i+w-1] += e * 3 / 16
			}

			buf[i+w] += e * 5 / 16

			if x+1 < w {
				buf[i+w+1] += e * 1 / 16
			}
		}
	}

	return out
}
