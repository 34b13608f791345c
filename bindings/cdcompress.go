package bindings

// CdCompress run-length encodes calldata the way the bridge contracts expect to decompress it.
//
// Runs of up to 128 zero bytes and runs of up to 32 0xff bytes are each replaced by the pair
// 0x00, (runLength-1) | (0x80 if the run is 0xff). Every other byte is copied. The first four
// output bytes are inverted so that a leading function selector of zeros does not waste the
// selector slot.
func CdCompress(data []byte) []byte {
	out := make([]byte, 0, len(data))
	push := func(b byte) {
		if len(out) < 4 {
			b ^= 0xff
		}
		out = append(out, b)
	}
	rle := func(ones bool, n int) {
		push(0)
		b := byte(n - 1)
		if ones {
			b |= 0x80
		}
		push(b)
	}

	var zeros, ones int
	flush := func() {
		if ones > 0 {
			rle(true, ones)
			ones = 0
		}
		if zeros > 0 {
			rle(false, zeros)
			zeros = 0
		}
	}
	for _, c := range data {
		switch c {
		case 0x00:
			if ones > 0 {
				rle(true, ones)
				ones = 0
			}
			if zeros++; zeros == 0x80 {
				rle(false, zeros)
				zeros = 0
			}
		case 0xff:
			if zeros > 0 {
				rle(false, zeros)
				zeros = 0
			}
			if ones++; ones == 0x20 {
				rle(true, ones)
				ones = 0
			}
		default:
			flush()
			push(c)
		}
	}
	flush()
	return out
}
