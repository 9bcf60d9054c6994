package conv

const hexd = "0123456789ABCDEF"

// U8Hex writes "0xNN" (uppercase) into buf and returns the used slice.
// buf should be length >= 4.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 4 {
		return buf[:0]
	}
	buf[0], buf[1] = '0', 'x'
	buf[2] = hexd[n>>4]
	buf[3] = hexd[n&0xF]
	return buf[:4]
}

// Hex8 is U8Hex returning a string, for println call sites.
func Hex8(n uint8) string {
	var b [4]byte
	return string(U8Hex(b[:], n))
}
