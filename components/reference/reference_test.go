package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDocument(t *testing.T) {
	doc := Default()
	require.Len(t, doc.Branches, 6)
	assert.Equal(t, doc.Overview.Branches, len(doc.Branches))
	assert.Equal(t, 92, doc.Overview.Efficiency)

	zahraa, ok := doc.Branch("004")
	require.True(t, ok)
	assert.Equal(t, "Zahraa", zahraa.NameEn)
	assert.Equal(t, "24 HOURS", zahraa.Type)

	for _, role := range []string{"CHEF", "CAPTAIN", "CASHIER", "STEWART"} {
		_, ok := doc.PayrollFor(role)
		assert.True(t, ok, role)
	}

	var total float64
	for _, share := range doc.ProfitLoss {
		total += share.Value
	}
	assert.Equal(t, 100.0, total)
	assert.Equal(t, "الرقم السري غير صحيح، حاول مرة أخرى.", doc.Translations["ar"]["login.invalid_pin"])
	assert.True(t, doc.HasBranchName("Nasr City"))
	assert.True(t, doc.HasBranchName("المعادي"))
	assert.False(t, doc.HasBranchName("Alexandria"))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("version: \"1\"\nfranchises: []\n"))
	require.Error(t, err)
}

func TestDecodeRejectsEmptyDocument(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, errEmptyDocument)
}

func TestValidateCatchesMissingTranslation(t *testing.T) {
	doc := *Default()
	doc.Translations = map[string]map[string]string{
		"ar": {"nav.live": "العمليات المباشرة"},
		"en": {"nav.live": "Live Ops", "nav.market": "Market"},
	}
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nav.market")
}

func TestValidateCatchesDuplicateRole(t *testing.T) {
	doc := *Default()
	doc.Payroll = []PayrollBand{{Role: "CHEF"}, {Role: "CHEF"}}
	require.ErrorContains(t, doc.Validate(), "duplicate payroll role")
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, embeddedData, 0o600))
	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, "Bakery Khan", doc.Company.Name)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
