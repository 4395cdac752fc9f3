package reconstruct

import "strings"

// Split divides text into n ordered parts without losing or reordering a
// word. Words are distributed as evenly as possible, earlier parts taking
// the extra word when the count does not divide evenly. When there are
// fewer words than parts the trailing parts are empty.
func Split(text string, n int) []string {
	if n <= 1 {
		return []string{text}
	}
	parts := make([]string, n)
	words := strings.Fields(text)
	total := len(words)
	if total == 0 {
		return parts
	}
	if total <= n {
		copy(parts, words)
		return parts
	}

	base, remainder := total/n, total%n
	pos := 0
	for i := range parts {
		size := base
		if i < remainder {
			size++
		}
		parts[i] = strings.Join(words[pos:pos+size], " ")
		pos += size
	}
	if pos < total {
		appendToLastNonEmpty(parts, strings.Join(words[pos:], " "))
	}
	return parts
}

func appendToLastNonEmpty(parts []string, extra string) {
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			parts[i] += " " + extra
			return
		}
	}
	parts[len(parts)-1] = extra
}
