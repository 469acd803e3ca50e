package conv

// Utoa writes the base-10 representation of n into buf and returns the
// used tail slice. buf should be >= 20 bytes for uint64.
// No allocations; no fmt/strconv dependency (keeps MCU builds lean).
func Utoa(buf []byte, n uint64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
		return buf[i:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}

// Itoa is Utoa with a sign.
func Itoa(buf []byte, n int64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	s := Utoa(buf[1:], uint64(-n))
	// s starts somewhere inside buf[1:]; the byte before it is free.
	off := len(buf) - len(s) - 1
	buf[off] = '-'
	return buf[off:]
}
