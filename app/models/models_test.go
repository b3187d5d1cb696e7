package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactKey(t *testing.T) {
	cases := map[string]string{
		"555-1234":          "5551234",
		"(555) 123 4":       "5551234",
		"+91 98765 43210":   "+919876543210",
		" Jane@Mail.com ":   "jane@mail.com",
		"front  desk   12":  "front desk 12",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ContactKey(in), "input %q", in)
	}
}

func TestAppendNote(t *testing.T) {
	l := Lead{}
	l.AppendNote("first")
	l.AppendNote("Checkup done: CBC")
	assert.Equal(t, "first | Checkup done: CBC", l.Notes)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidLeadStatus("Lost"))
	assert.False(t, ValidLeadStatus("lost"))
	assert.True(t, ValidRole("employee"))
	assert.False(t, ValidRole("root"))
}
