package digest

// Alphabet is the symbol table used by Encode.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// EncodedLen returns the number of characters Encode produces for n input bytes
// when the output is not capped.
func EncodedLen(n int) int {
	return (8*n + 4) / 5
}

// Encode packs data into base32 text, 5 bits at a time, most significant bit first.
// The output is never padded and holds at most maxLen characters.
func Encode(data []byte, maxLen int) string {
	if len(data) == 0 || maxLen <= 0 {
		return ""
	}

	out := make([]byte, 0, min(maxLen, EncodedLen(len(data))))
	buffer := uint(data[0])
	next := 1
	bitsLeft := 8

	for len(out) < maxLen && (bitsLeft > 0 || next < len(data)) {
		if bitsLeft < 5 {
			if next < len(data) {
				buffer = buffer<<8 | uint(data[next])
				next++
				bitsLeft += 8
			} else {
				// Flush the final partial group with zero bits.
				pad := 5 - bitsLeft
				buffer <<= pad
				bitsLeft += pad
			}
		}
		index := (buffer >> (bitsLeft - 5)) & 0x1F
		bitsLeft -= 5
		out = append(out, Alphabet[index])
	}

	return string(out)
}
