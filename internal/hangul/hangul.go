// Package hangul classifies precomposed Hangul syllables and selects the
// particle forms that depend on a word's final consonant.
//
// Korean attaches different particles to a noun depending on whether its last
// syllable ends in a final consonant (jongseong): 산을 but 바다를, 산이 but
// 바다가. Syllables in the precomposed block encode the final consonant in
// their code point, so the check is arithmetic.
package hangul

import "unicode/utf8"

const (
	syllableFirst = 0xAC00
	syllableLast  = 0xD7AF
	finalCount    = 28
)

// HasFinalConsonant reports whether r is a precomposed Hangul syllable that
// carries a final consonant. Runes outside the syllable block never do.
func HasFinalConsonant(r rune) bool {
	if r < syllableFirst || r > syllableLast {
		return false
	}
	return (r-syllableFirst)%finalCount != 0
}

// EndsWithFinalConsonant applies HasFinalConsonant to the last rune of word.
func EndsWithFinalConsonant(word string) bool {
	r, size := utf8.DecodeLastRuneInString(word)
	if size == 0 {
		return false
	}
	return HasFinalConsonant(r)
}

// ObjectParticle returns the object marker for word: 을 after a final
// consonant, 를 otherwise.
func ObjectParticle(word string) string {
	if EndsWithFinalConsonant(word) {
		return "을"
	}
	return "를"
}

// SubjectParticle returns the subject marker for word: 이 after a final
// consonant, 가 otherwise.
func SubjectParticle(word string) string {
	if EndsWithFinalConsonant(word) {
		return "이"
	}
	return "가"
}

// PoliteCopula returns the polite "to be" ending for word: 이에요 after a
// final consonant, 예요 otherwise.
func PoliteCopula(word string) string {
	if EndsWithFinalConsonant(word) {
		return "이에요"
	}
	return "예요"
}
