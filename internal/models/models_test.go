package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-lookup/internal/records"
)

func TestResultValue_ToRecordDerivesMissingFlag(t *testing.T) {
	v := ResultValue{Parameter: "Hemoglobina", Value: "10.9", Unit: "g/dL", RefMin: ref(12), RefMax: ref(15.5)}
	assert.Equal(t, records.FlagLow, v.ToRecord().Flag)

	v.Flag = "high"
	assert.Equal(t, records.FlagHigh, v.ToRecord().Flag, "stored flag wins over derivation")

	v.Flag = "alto"
	assert.Equal(t, records.FlagLow, v.ToRecord().Flag, "unknown stored flag is re-derived")
}

func TestResult_ToDetail(t *testing.T) {
	interp := "ok"
	r := Result{
		ID:               501,
		PatientID:        7,
		ReportedAt:       time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		ValidationStatus: "validated",
		Interpretation:   &interp,
		Patient:          Patient{ID: 7, FirstName: "Maria", LastName: "Lopez", Identifier: "001"},
		Study:            Study{Code: "HEM", Name: "Hemograma completo", Category: "Hematologia"},
		Values: []ResultValue{
			{Parameter: "Hemoglobina", Value: "13", RefMin: ref(12), RefMax: ref(15.5)},
			{Parameter: "Observaciones", Value: "sin hallazgos"},
		},
	}

	d := r.ToDetail()
	assert.Equal(t, uint(501), d.ID)
	assert.Equal(t, "Hemograma completo", d.Study)
	assert.Equal(t, "HEM", d.Code)
	require.NotNil(t, d.Patient)
	assert.Equal(t, "Maria Lopez", d.Patient.Name)
	require.Len(t, d.Values, 2)
	assert.Equal(t, "Hemoglobina", d.Values[0].Parameter)
	assert.Equal(t, records.FlagNormal, d.Values[1].Flag)
	assert.False(t, d.Values[1].HasReference())
}

func TestOrder_ToDetailKeepsLineOrder(t *testing.T) {
	o := Order{
		ID:        101,
		Number:    "ORD-1",
		PatientID: 7,
		Status:    OrderCompleted,
		Lines: []OrderLine{
			{Position: 1, Price: 650, Status: OrderCompleted, Study: Study{Name: "Hemograma"}},
			{Position: 2, Price: 300, Status: OrderPending, Study: Study{Name: "Glucosa"}},
		},
	}

	d := o.ToDetail()
	require.Len(t, d.LineItems, 2)
	assert.Equal(t, "Hemograma", d.LineItems[0].Study)
	assert.Equal(t, "pending", d.LineItems[1].Status)
	assert.Equal(t, 950.0, d.Total())
	assert.Equal(t, 3, o.ToSummary(3).StudyCount)
}

func TestPatient_ToSummary(t *testing.T) {
	p := Patient{ID: 7, FirstName: "Maria", LastName: "Lopez", Identifier: "001-1234567-8"}
	s := p.ToSummary()
	assert.Equal(t, records.PatientSummary{ID: 7, DisplayName: "Maria Lopez", Identifier: "001-1234567-8"}, s)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_x\\`, escapeLike(`50% _x\`))
}

func TestUser_Password(t *testing.T) {
	u := User{}
	require.NoError(t, u.SetPassword("s3cret-pass"))
	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))
}
