package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chequedentista/internal/core/entity"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/voucher"
)

type sampleRow struct {
	entity.Base

	Name   string `db:"name"`
	Hidden string `db:"-"`
	NoTag  string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRow]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "clinic_id")
	assert.Contains(t, cols, "version")
	assert.Contains(t, cols, "name")
	assert.NotContains(t, cols, "Hidden")
	assert.NotContains(t, cols, "NoTag")
	assert.NotContains(t, cols, "-")
}

func TestExtractDBColumnsPointerType(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[sampleRow](), ExtractDBColumns[*sampleRow]())
}

func TestStructToMap(t *testing.T) {
	row := &sampleRow{
		Base:   entity.NewBase(id.New()),
		Name:   "Clínica Sorriso",
		Hidden: "skip",
		NoTag:  "skip",
	}

	m := StructToMap(row)

	assert.Equal(t, "Clínica Sorriso", m["name"])
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, row.ClinicID, m["clinic_id"])
	assert.NotContains(t, m, "Hidden")
	assert.NotContains(t, m, "NoTag")
}

func TestStructToMapNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("x"))
}

func TestVoucherColumnsMatchSchema(t *testing.T) {
	cols := ExtractDBColumns[voucher.Voucher]()

	for _, expected := range []string{
		"id", "clinic_id", "number", "patient_id", "doctor_id",
		"amount", "status", "cancellation_reason", "expiry_date",
		"version", "created_at", "updated_at",
	} {
		assert.Contains(t, cols, expected)
	}
}
