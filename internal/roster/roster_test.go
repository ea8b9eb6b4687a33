package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster() *Roster {
	return New(map[string][]Doctor{
		"Cardiology": {
			{ID: "d1", Name: "Dr. Asha Rao"},
			{ID: "d2", Name: "Dr. Vikram Shetty"},
		},
		"Orthopedics":      {{ID: "d3", Name: "Dr. Meera Nair"}},
		"Diabetologist":    {{ID: "d4", Name: "Dr. Ravi Kumar"}},
		"Pediatrics":       {{ID: "d5", Name: "Dr. Lakshmi Menon"}},
		"Urology":          {{ID: "d6", Name: "Dr. Arjun Pillai"}},
		"General Medicine": {{ID: "d7", Name: "Dr. Suresh Babu"}},
	})
}

func TestMatchDepartmentExact(t *testing.T) {
	r := testRoster()

	dept, ok := r.MatchDepartment("Cardiology")
	require.True(t, ok)
	assert.Equal(t, "Cardiology", dept)

	dept, ok = r.MatchDepartment("  cardiology ")
	require.True(t, ok)
	assert.Equal(t, "Cardiology", dept)
}

func TestMatchDepartmentSynonyms(t *testing.T) {
	r := testRoster()

	cases := map[string]string{
		"cardiac issues":       "Cardiology",
		"heart problems":       "Cardiology",
		"ortho":                "Orthopedics",
		"orthopedic surgery":   "Orthopedics",
		"orthopedist":          "Orthopedics",
		"diabetes care":        "Diabetologist",
		"endocrine disorder":   "Diabetologist",
		"children's medicine":  "Pediatrics",
		"kidney stones":        "Urology",
		"internal medicine":    "General Medicine",
		"general practitioner": "General Medicine",
	}
	for input, want := range cases {
		dept, ok := r.MatchDepartment(input)
		require.True(t, ok, "input %q", input)
		assert.Equal(t, want, dept, "input %q", input)
	}
}

func TestMatchDepartmentPrefixGuard(t *testing.T) {
	r := testRoster()

	// A short suffix beyond the department name still matches.
	dept, ok := r.MatchDepartment("urology dept")
	require.True(t, ok)
	assert.Equal(t, "Urology", dept)

	// Unrelated specialties must not cross-match.
	_, ok = r.MatchDepartment("Neurology")
	assert.False(t, ok)

	_, ok = r.MatchDepartment("Dermatology")
	assert.False(t, ok)
}

func TestMatchDepartmentMissIsNotAnError(t *testing.T) {
	r := testRoster()

	_, ok := r.MatchDepartment("")
	assert.False(t, ok)

	_, ok = r.MatchDepartment("astrology")
	assert.False(t, ok)
}

func TestMatchDepartmentIdempotent(t *testing.T) {
	r := testRoster()

	first, ok := r.MatchDepartment("heart specialist")
	require.True(t, ok)

	// Feeding a canonical result back in returns the same department.
	second, ok := r.MatchDepartment(first)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestFindDoctorByName(t *testing.T) {
	r := testRoster()

	d, ok := r.FindDoctorByName("dr. asha rao")
	require.True(t, ok)
	assert.Equal(t, "Cardiology", d.Department)

	_, ok = r.FindDoctorByName("Dr. Nobody")
	assert.False(t, ok)
}

func TestDoctorsInReturnsCopy(t *testing.T) {
	r := testRoster()

	got := r.DoctorsIn("Cardiology")
	require.Len(t, got, 2)
	got[0].Name = "mutated"

	again := r.DoctorsIn("Cardiology")
	assert.Equal(t, "Dr. Asha Rao", again[0].Name)
}
