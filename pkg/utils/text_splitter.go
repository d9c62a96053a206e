package utils

import "strings"

// SplitText cuts course material into chunks of at most chunkSize runes,
// breaking only between words. Consecutive chunks share roughly overlap runes
// of trailing words. A single word longer than chunkSize becomes its own chunk.
func SplitText(text string, chunkSize int, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		return []string{strings.Join(words, " ")}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start
		size := 0
		for end < len(words) {
			n := len([]rune(words[end]))
			if end > start {
				n++
			}
			if size+n > chunkSize && end > start {
				break
			}
			size += n
			end++
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}

		// step back over trailing words that fit in the overlap
		next := end
		carried := 0
		for next-1 > start {
			n := len([]rune(words[next-1])) + 1
			if carried+n > overlap {
				break
			}
			carried += n
			next--
		}
		start = next
	}
	return chunks
}
