package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailPattern(t *testing.T) {
	valid := []string{
		"student@example.com",
		"priya.sharma+notes@uni.ac.in",
		"a_b-c@sub.domain.org",
	}
	for _, email := range valid {
		assert.True(t, CompiledPatterns.Email.MatchString(email), email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@tld",
		"@example.com",
		"UPPER@EXAMPLE.COM", // emails are lowercased before validation
	}
	for _, email := range invalid {
		assert.False(t, CompiledPatterns.Email.MatchString(email), email)
	}
}

func TestStringValidation(t *testing.T) {
	assert.True(t, NewStringValidation("Operating Systems").
		WithMinLength(SubjectMinLength).
		WithMaxLength(SubjectMaxLength).
		Validate())

	assert.False(t, NewStringValidation("x").WithMinLength(2).Validate())
	assert.False(t, NewStringValidation("toolong").WithMaxLength(3).Validate())
	assert.False(t, NewStringValidation("").Validate())
	assert.True(t, NewStringValidation("").WithRequired(false).Validate())
}

func TestNumericValidation(t *testing.T) {
	assert.True(t, NewNumericValidation(3).WithMin(1).WithMax(5).Validate())
	assert.False(t, NewNumericValidation(6).WithMin(1).WithMax(5).Validate())
	assert.False(t, NewNumericValidation(-1).WithMin(1).WithMax(5).Validate())
}
