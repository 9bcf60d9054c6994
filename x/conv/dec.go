package conv

// Utoa writes n in base 10 at the tail of buf and returns the used slice.
// 20 bytes hold any uint64; a shorter buf keeps the low digits.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf
	}
	for {
		i--
		buf[i] = '0' + byte(n%10)
		n /= 10
		if n == 0 || i == 0 {
			return buf[i:]
		}
	}
}

// Dec is Utoa returning a string, for println call sites.
func Dec(n uint64) string {
	var b [20]byte
	return string(Utoa(b[:], n))
}
