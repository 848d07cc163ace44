package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Lenient(t *testing.T) {
	vars := map[string]string{
		"debtor_name": "Alice",
		"amount":      "400.00",
	}

	out, missing := Render("Hi {debtor_name}, you owe {amount} for {description}", vars, false)

	assert.Equal(t, "Hi Alice, you owe 400.00 for {description}", out)
	assert.Equal(t, []string{"description"}, missing)
}

func TestRender_LenientAllBound(t *testing.T) {
	out, missing := Render("{a}-{b}", map[string]string{"a": "1", "b": "2"}, false)

	assert.Equal(t, "1-2", out)
	assert.Empty(t, missing)
}

func TestRender_StrictMissingReturnsTemplate(t *testing.T) {
	template := "Hi {debtor_name}, balance {amount}"
	out, missing := Render(template, map[string]string{"debtor_name": "Bob"}, true)

	assert.Equal(t, template, out)
	assert.Equal(t, []string{"amount"}, missing)
}

func TestRender_StrictAllBound(t *testing.T) {
	out, missing := Render("Hi {name}", map[string]string{"name": "Eve"}, true)

	assert.Equal(t, "Hi Eve", out)
	assert.Empty(t, missing)
}

func TestRender_RepeatedAndUnknownTokens(t *testing.T) {
	out, missing := Render("{x} {x} {y} {y}", map[string]string{"x": "ok"}, false)

	assert.Equal(t, "ok ok {y} {y}", out)
	// Each missing token reported once
	assert.Equal(t, []string{"y"}, missing)
}

func TestRender_NoTokens(t *testing.T) {
	out, missing := Render("plain text", map[string]string{"a": "b"}, true)

	assert.Equal(t, "plain text", out)
	assert.Empty(t, missing)
}
