package hftokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize applies the normalizer to the text.
func (t *Tokenizer) normalize(text string) string {
	if t.tokenizer.Normalizer == nil {
		return text
	}
	return applyNormalizer(text, t.tokenizer.Normalizer)
}

func applyNormalizer(text string, n *Normalizer) string {
	switch n.Type {
	case "Lowercase":
		return strings.ToLower(text)
	case "NFD":
		return norm.NFD.String(text)
	case "NFC":
		return norm.NFC.String(text)
	case "NFKC":
		return norm.NFKC.String(text)
	case "NFKD":
		return norm.NFKD.String(text)
	case "StripAccents":
		return removeAccents(norm.NFD.String(text))
	case "BertNormalizer":
		return bertNormalize(text, n)
	case "Sequence":
		for i := range n.Normalizers {
			text = applyNormalizer(text, &n.Normalizers[i])
		}
		return text
	default:
		return text
	}
}

func bertNormalize(text string, n *Normalizer) string {
	enabled := func(flag *bool, dflt bool) bool {
		if flag == nil {
			return dflt
		}
		return *flag
	}
	if enabled(n.CleanText, true) {
		text = cleanText(text)
	}
	if enabled(n.HandleChineseChars, true) {
		text = spaceChineseChars(text)
	}
	if enabled(n.StripAccents, n.Lowercase) {
		text = removeAccents(norm.NFD.String(text))
	}
	if n.Lowercase {
		text = strings.ToLower(text)
	}
	return text
}

// preTokenize splits text into words using the pre-tokenizer.
func (t *Tokenizer) preTokenize(text string) []string {
	if t.tokenizer.PreTokenizer == nil {
		return strings.Fields(text)
	}
	return applyPreTokenizer(text, t.tokenizer.PreTokenizer)
}

func applyPreTokenizer(text string, pt *PreTokenizer) []string {
	switch pt.Type {
	case "BertPreTokenizer":
		return bertPreTokenize(text)
	case "Punctuation":
		return punctuationPreTokenize(text)
	case "Sequence":
		result := []string{text}
		for i := range pt.PreTokenizers {
			var next []string
			for _, s := range result {
				next = append(next, applyPreTokenizer(s, &pt.PreTokenizers[i])...)
			}
			result = next
		}
		return result
	default:
		return strings.Fields(text)
	}
}

func cleanText(text string) string {
	var result strings.Builder
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// spaceChineseChars surrounds every CJK ideograph with spaces, so each one becomes a word.
func spaceChineseChars(text string) string {
	var result strings.Builder
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			result.WriteRune(' ')
			result.WriteRune(r)
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	// ASCII punctuation
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func removeAccents(text string) string {
	var result strings.Builder
	for _, r := range text {
		if !unicode.Is(unicode.Mn, r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// bertPreTokenize splits on whitespace, and makes every punctuation character its own word.
func bertPreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case isWhitespace(r):
			flush()
		case isPunctuation(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func punctuationPreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
