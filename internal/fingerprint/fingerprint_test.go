package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSimplePrompt(t *testing.T) {
	fp := Compute("Hello, how are you?")
	assert.NotEmpty(t, fp.PromptHash)
	assert.NotEmpty(t, fp.StructureHash)
	assert.Equal(t, 19, fp.CharCount)
	assert.Equal(t, 4, fp.WordCount)
	assert.Equal(t, 1, fp.LineCount)
	assert.Equal(t, []string{}, fp.TemplateVars)
}

func TestComputeMultilinePrompt(t *testing.T) {
	fp := Compute("Line 1\nLine 2\nLine 3")
	assert.Equal(t, 3, fp.LineCount)
	assert.Equal(t, 6, fp.WordCount)
}

func TestTemplateVariableExtraction(t *testing.T) {
	fp := Compute("Hello {name}, your query is: {query}")
	assert.Equal(t, []string{"name", "query"}, fp.TemplateVars)
}

func TestStructureHashStability(t *testing.T) {
	fp1 := Compute("Hello {name}, welcome to {place}")
	fp2 := Compute("Hello {user}, welcome to {location}")
	assert.Equal(t, fp1.StructureHash, fp2.StructureHash)
}

func TestDifferentPromptsDifferentHashes(t *testing.T) {
	fp1 := Compute("What is the weather?")
	fp2 := Compute("Translate this text to French")
	assert.NotEqual(t, fp1.PromptHash, fp2.PromptHash)
	assert.NotEqual(t, fp1.StructureHash, fp2.StructureHash)
}

func TestComputeEmptyPrompt(t *testing.T) {
	fp := Compute("")
	assert.Equal(t, 0, fp.CharCount)
	assert.Equal(t, 0, fp.WordCount)
	assert.Equal(t, 0, fp.LineCount)
	assert.Equal(t, []string{}, fp.TemplateVars)
}

func TestNormalization(t *testing.T) {
	fp1 := Compute("Hello World")
	fp2 := Compute("  hello world  ")
	assert.Equal(t, fp1.PromptHash, fp2.PromptHash)
}

func TestComplexTemplateVars(t *testing.T) {
	fp := Compute("System: {system_prompt}\nUser: {user_input}\nContext: {ctx_data}")
	assert.Equal(t, []string{"ctx_data", "system_prompt", "user_input"}, fp.TemplateVars)
}

func TestNoFalseTemplateVarsInJSON(t *testing.T) {
	fp := Compute(`{"key": "value", "count": 42}`)
	assert.Equal(t, []string{}, fp.TemplateVars)
}

func TestSimilarityIdenticalPrompts(t *testing.T) {
	fp1 := Compute("Hello World")
	fp2 := Compute("Hello World")
	assert.Equal(t, 1.0, Similarity(fp1, fp2))
}

func TestSimilaritySameTemplateDifferentValues(t *testing.T) {
	fp1 := Compute("Hello {name}")
	fp2 := Compute("Hello {user}")
	assert.Equal(t, 0.9, Similarity(fp1, fp2))
}

func TestSimilarityCompletelyDifferentPrompts(t *testing.T) {
	fp1 := Compute("a")
	fp2 := Compute("This is a very long prompt with many words and sentences that should be completely different from a single character")
	assert.Less(t, Similarity(fp1, fp2), 0.5)
}

func TestSimilaritySimilarLengthPrompts(t *testing.T) {
	fp1 := Compute("Hello, how are you doing today?")
	fp2 := Compute("Greetings, what is your status?")
	sim := Similarity(fp1, fp2)
	assert.Greater(t, sim, 0.3)
	assert.Less(t, sim, 1.0)
}

func TestSimilarityEmptyFingerprint(t *testing.T) {
	fp := Compute("Hello")
	assert.Equal(t, 0.0, Similarity(fp, Fingerprint{}))
	assert.Equal(t, 0.0, Similarity(Fingerprint{}, fp))
	assert.Equal(t, 0.0, Similarity(Fingerprint{}, Fingerprint{}))
}

func TestSimilarityIsBounded(t *testing.T) {
	fp1 := Compute("Short")
	fp2 := Compute(strings.Repeat("A", 10000))
	sim := Similarity(fp1, fp2)
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
}
