package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("   ")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("spin")
	assert.Equal(t, "spin", result.Command)
	assert.Nil(t, result.Args)
	assert.Equal(t, "", result.RawArgs)
}

func TestParse_Lowercase(t *testing.T) {
	assert.Equal(t, "spin", Parse("SPIN").Command)
}

func TestParse_MultiWordWheelName(t *testing.T) {
	result := Parse("replace Structural Condition")
	assert.Equal(t, "replace", result.Command)
	assert.Equal(t, []string{"Structural", "Condition"}, result.Args)
	assert.Equal(t, "Structural Condition", result.RawArgs)
}

func TestParse_KeepsArgumentCaseAndPunctuation(t *testing.T) {
	result := Parse("Replace Winner's Wheel")
	assert.Equal(t, "replace", result.Command)
	assert.Equal(t, "Winner's Wheel", result.RawArgs)
}

func TestParse_ExtraWhitespace(t *testing.T) {
	result := Parse("  replace\tMana   Base  ")
	assert.Equal(t, "replace", result.Command)
	assert.Equal(t, []string{"Mana", "Base"}, result.Args)
	assert.Equal(t, "Mana   Base", result.RawArgs)
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		assert.Equal(t, strings.ToLower(word), result.Command)
	})
}

// Property: RawArgs round-trips through the command word.
func TestPropertyParseRawArgsPreserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmd := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "cmd")
		arg := rapid.StringMatching(`[A-Za-z']{1,10}( [A-Za-z']{1,10}){0,3}`).Draw(t, "arg")
		result := Parse(cmd + " " + arg)
		assert.Equal(t, cmd, result.Command)
		assert.Equal(t, arg, result.RawArgs)
		assert.Equal(t, strings.Fields(arg), result.Args)
	})
}
