package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-prescreening/internal/roster"
)

func testReconciler() *Reconciler {
	r := roster.New(map[string][]roster.Doctor{
		"Cardiology": {
			{ID: "d1", Name: "Asha Rao"},
			{ID: "d2", Name: "Vikram Shetty"},
		},
		"Orthopedics":      {{ID: "d3", Name: "Meera Nair"}},
		"General Medicine": {{ID: "d4", Name: "Suresh Babu"}},
	})
	return NewReconciler(r)
}

func TestReconcileAIDepartment(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("cardiac issues", "")

	assert.True(t, res.DepartmentAvailable)
	assert.Equal(t, "Cardiology", res.MatchedDepartment)
	assert.Equal(t, TypeAIDepartment, res.RecommendationType)
	assert.Equal(t, "Proceed to Cardiology department", res.Message)
	require.Len(t, res.RecommendedDoctors, 2)
}

func TestReconcileReceptionReferral(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("Oncology", "")

	assert.False(t, res.DepartmentAvailable)
	assert.Empty(t, res.MatchedDepartment)
	assert.Empty(t, res.RecommendedDoctors)
	assert.Equal(t, TypeReceptionReferral, res.RecommendationType)
	assert.Equal(t, "Please visit hospital reception", res.Message)
}

func TestReconcilePerfectMatch(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("Cardiology", "Asha Rao")

	assert.Equal(t, TypePerfectMatch, res.RecommendationType)
	assert.True(t, res.PatientDoctorAvailable)
	require.NotNil(t, res.PatientDoctorInfo)
	assert.Equal(t, "Cardiology", res.PatientDoctorInfo.Department)
	assert.Contains(t, res.Message, "Excellent choice")
}

func TestReconcileConflictMentionsBothOptions(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("heart problems", "Meera Nair")

	assert.Equal(t, TypeConflictResolution, res.RecommendationType)
	assert.Contains(t, res.Message, "Meera Nair")
	assert.Contains(t, res.Message, "Orthopedics")
	assert.Contains(t, res.Message, "Cardiology")

	analysis := ComparisonAnalysis(res)
	assert.Contains(t, analysis, "Meera Nair")
	assert.Contains(t, analysis, "Asha Rao")
	assert.Contains(t, analysis, "both doctors")
}

func TestReconcilePatientChoiceOnly(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("Oncology", "Meera Nair")

	assert.Equal(t, TypePatientChoiceOnly, res.RecommendationType)
	assert.False(t, res.DepartmentAvailable)
	assert.Contains(t, res.Message, "your chosen doctor")
	assert.Contains(t, res.Message, "Meera Nair")
}

func TestReconcileUnknownDoctorFallsThrough(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("Cardiology", "Dr. Nobody")
	assert.False(t, res.PatientDoctorAvailable)
	assert.Nil(t, res.PatientDoctorInfo)
	assert.Equal(t, TypeAIDepartment, res.RecommendationType)

	res = rc.Reconcile("Oncology", "Dr. Nobody")
	assert.Equal(t, TypeReceptionReferral, res.RecommendationType)
}

func TestComparisonAnalysisReception(t *testing.T) {
	rc := testReconciler()

	res := rc.Reconcile("astrology", "")
	analysis := ComparisonAnalysis(res)
	assert.Contains(t, analysis, "hospital reception")
}
