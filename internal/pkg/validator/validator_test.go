package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceedsLength(t *testing.T) {
	cases := []struct {
		input string
		max   int
		want  bool
	}{
		{"", 0, false},
		{"Office", 6, false},
		{"Office", 5, true},
		{"Büro", 4, false}, // runes, not bytes
		{"会議中です", 4, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ExceedsLength(c.input, c.max), "ExceedsLength(%q, %d)", c.input, c.max)
	}
}

func TestIsValidDate(t *testing.T) {
	for _, s := range []string{"2024-01-01", "2000-12-31", "2024-02-29"} {
		_, ok := IsValidDate(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"2023-13-01", "2023-01-32", "2023-02-29", "2023/01/01", "01-01-2023", ""} {
		_, ok := IsValidDate(s)
		assert.False(t, ok, s)
	}
}

func TestCheckLength(t *testing.T) {
	short, long := "Office", strings.Repeat("x", 51)

	var errs ValidationErrors
	errs.CheckLength("location", nil, 50)
	errs.CheckLength("location", &short, 50)
	require.NoError(t, errs.Err())

	errs.CheckLength("location", &long, 50)
	err := errs.Err()
	require.Error(t, err)

	var got ValidationErrors
	require.ErrorAs(t, err, &got)
	assert.Equal(t, map[string]string{"location": "location must not exceed 50 characters"}, got.ToMap())
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	errs.Add("location", "too long")
	errs.Add("task", "too long")

	assert.Equal(t, "location: too long; task: too long", errs.Error())
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start_date", Message: "invalid"},
		{Field: "end_date", Message: "before start"},
	}
	assert.Equal(t, map[string]string{"start_date": "invalid", "end_date": "before start"}, errs.ToMap())
}
