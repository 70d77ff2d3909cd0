package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPattern(t *testing.T, pattern, text string, start int) (bool, int) {
	t.Helper()
	nfa, err := CompilePattern(pattern)
	require.NoError(t, err)
	return Run(nfa, []byte(text), start)
}

func TestRunLiteralAndConcat(t *testing.T) {
	matched, end := runPattern(t, "abc", "abcd", 0)
	assert.True(t, matched)
	assert.Equal(t, 3, end)
}

func TestRunAlternation(t *testing.T) {
	matched, end := runPattern(t, "cat|dog", "dog!", 0)
	assert.True(t, matched)
	assert.Equal(t, 3, end)
}

func TestRunStarIsLongestMatch(t *testing.T) {
	matched, end := runPattern(t, "a*", "aaab", 0)
	assert.True(t, matched)
	assert.Equal(t, 3, end)
}

func TestRunStarMatchesEmpty(t *testing.T) {
	matched, end := runPattern(t, "a*", "bbb", 0)
	assert.True(t, matched)
	assert.Equal(t, 0, end)
}

func TestRunPlusRequiresOne(t *testing.T) {
	matched, _ := runPattern(t, "a+", "bbb", 0)
	assert.False(t, matched)
}

func TestRunOptional(t *testing.T) {
	matched, end := runPattern(t, "colou?r", "color", 0)
	assert.True(t, matched)
	assert.Equal(t, 5, end)

	matched, end = runPattern(t, "colou?r", "colour", 0)
	assert.True(t, matched)
	assert.Equal(t, 6, end)
}

func TestRunBoundExact(t *testing.T) {
	matched, end := runPattern(t, "a{3}", "aaaa", 0)
	assert.True(t, matched)
	assert.Equal(t, 3, end)
}

func TestRunBoundRange(t *testing.T) {
	matched, end := runPattern(t, "a{2,4}", "aaaaa", 0)
	assert.True(t, matched)
	assert.Equal(t, 4, end)
}

func TestRunBoundAtLeast(t *testing.T) {
	matched, end := runPattern(t, "a{2,}", "aaaaa", 0)
	assert.True(t, matched)
	assert.Equal(t, 5, end)
}

func TestRunCharClass(t *testing.T) {
	matched, end := runPattern(t, "[A-Za-z_][A-Za-z0-9_]*", "foo_Bar1 ", 0)
	assert.True(t, matched)
	assert.Equal(t, 8, end)
}

func TestRunNegatedCharClass(t *testing.T) {
	matched, end := runPattern(t, "[^ \t\n]+", "foo bar", 0)
	assert.True(t, matched)
	assert.Equal(t, 3, end)
}

func TestRunStartOffset(t *testing.T) {
	matched, end := runPattern(t, "b+", "aaabbb", 3)
	assert.True(t, matched)
	assert.Equal(t, 6, end)
}

func TestRunAnyByteExcludesNewline(t *testing.T) {
	matched, end := runPattern(t, ".*", "ab\ncd", 0)
	assert.True(t, matched)
	assert.Equal(t, 2, end)
}

func TestRunEscapes(t *testing.T) {
	matched, end := runPattern(t, `\n\t`, "\n\t", 0)
	assert.True(t, matched)
	assert.Equal(t, 2, end)
}

func TestRunMultibyteCodePoint(t *testing.T) {
	// U+00E9 (é) encodes as two UTF-8 bytes; matching it end to end proves
	// splitUTF8Range's per-byte-position decomposition is wired correctly.
	matched, end := runPattern(t, `é+`, "éé!", 0)
	assert.True(t, matched)
	assert.Equal(t, 4, end) // 2 code points * 2 bytes each
}

func TestRunDeterministicAcrossRepeatedCalls(t *testing.T) {
	nfa, err := CompilePattern("[0-9]+")
	require.NoError(t, err)
	text := []byte("42 and 7")
	m1, e1 := Run(nfa, text, 0)
	m2, e2 := Run(nfa, text, 0)
	assert.Equal(t, m1, m2)
	assert.Equal(t, e1, e2)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"(unterminated",
		"[a-",
		"a{3,1}",
		`\q`,
		"",
	}
	for _, p := range tests {
		_, err := Parse(p)
		assert.Error(t, err, p)
	}
}
