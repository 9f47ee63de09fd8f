// Package models defines client-side data models used by the Ayurlekha CLI.
package models

// Patient is a person whose documents and history the user manages.
//
// Optional fields are pointers or nil slices so that "absent" survives a
// round trip through the local cache without degrading to empty values.
type Patient struct {
	// ID is the server-assigned identifier (UUID).
	ID string `json:"id"`

	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`

	// Height is free-form ("172 cm"); nil when never entered.
	Height *string `json:"height,omitempty"`

	// Ailments and Medications keep their entry order for display.
	Ailments    []string `json:"ailments,omitempty"`
	Medications []string `json:"medications,omitempty"`
}

// PatientPatch is a partial update; nil fields are left untouched.
type PatientPatch struct {
	Name        *string
	Age         *int
	Gender      *string
	Height      *string
	Ailments    *[]string
	Medications *[]string
}

// Apply merges the patch into p field by field.
func (p *Patient) Apply(patch PatientPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.Height != nil {
		p.Height = patch.Height
	}
	if patch.Ailments != nil {
		p.Ailments = *patch.Ailments
	}
	if patch.Medications != nil {
		p.Medications = *patch.Medications
	}
}
