package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	require.Equal(t, CategoryLaboratory, ParseCategory("Laboratory"))
	require.Equal(t, CategoryLaboratory, ParseCategory("laboratory"))
	require.Equal(t, CategoryScan, ParseCategory("SCAN"))
	require.Equal(t, CategoryGeneral, ParseCategory("unknown"))
	require.Equal(t, CategoryGeneral, ParseCategory(""))
}

func TestMatches(t *testing.T) {
	r := MedicalRecord{
		Title:    "Annual Blood Panel",
		Category: CategoryLaboratory,
		Tags:     []string{"fasting", "routine"},
	}

	require.True(t, r.Matches(""))
	require.True(t, r.Matches("   "))
	require.True(t, r.Matches("blood"))
	require.True(t, r.Matches("BLOOD"))
	require.True(t, r.Matches("labor"))
	require.True(t, r.Matches("fasting"))
	require.False(t, r.Matches("radiology"))
	require.False(t, r.Matches("glucose"))
}

func TestStoragePath(t *testing.T) {
	r := MedicalRecord{
		FileURL: "https://proj.example.co/storage/v1/object/public/medical-documents/u1/p1/169-ab12cd34.pdf",
	}
	require.Equal(t, "u1/p1/169-ab12cd34.pdf", r.StoragePath("medical-documents"))
	require.Equal(t, "", r.StoragePath("other-bucket"))
}

func TestMetadataPath(t *testing.T) {
	r := MedicalRecord{
		FileURL: "https://proj.example.co/storage/v1/object/public/medical-documents/u1/p1/169-ab12cd34.pdf",
	}
	require.Equal(t, "u1/p1/169-ab12cd34_metadata.json", r.MetadataPath("medical-documents"))

	noExt := MedicalRecord{
		FileURL: "https://proj.example.co/storage/v1/object/public/medical-documents/u1/p1/capture",
	}
	require.Equal(t, "u1/p1/capture_metadata.json", noExt.MetadataPath("medical-documents"))

	foreign := MedicalRecord{FileURL: "https://elsewhere.example.com/x"}
	require.Equal(t, "", foreign.MetadataPath("medical-documents"))
}

func TestPatientApply(t *testing.T) {
	p := Patient{ID: "p1", Name: "Asha", Age: 62, Gender: "female", Ailments: []string{"diabetes"}}

	name := "Asha K"
	age := 63
	empty := []string{}
	p.Apply(PatientPatch{Name: &name, Age: &age, Ailments: &empty})

	require.Equal(t, "Asha K", p.Name)
	require.Equal(t, 63, p.Age)
	require.Equal(t, "female", p.Gender, "unpatched fields stay put")
	require.Empty(t, p.Ailments)
	require.NotNil(t, p.Ailments)
}
