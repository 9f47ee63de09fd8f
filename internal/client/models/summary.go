package models

import "encoding/json"

// Summary is the externally generated Ayurlekha medical-history document for
// one patient. The client does not produce or mutate it; unknown fields are
// preserved in Raw so future generator versions keep working.
type Summary struct {
	Summary      string              `json:"summary"`
	Conditions   []SummaryCondition  `json:"conditions"`
	Medications  []SummaryMedication `json:"medications"`
	RecentVisits []SummaryVisit      `json:"recentVisits"`

	// Raw is the full JSON document as fetched.
	Raw json.RawMessage `json:"-"`
}

type SummaryCondition struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastUpdated string `json:"lastUpdated"`
	Details     string `json:"details"`
}

type SummaryMedication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

type SummaryVisit struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Doctor string `json:"doctor"`
	Notes  string `json:"notes"`
}

// ParseSummary decodes an Ayurlekha JSON document, keeping the raw bytes.
func ParseSummary(data []byte) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.Raw = json.RawMessage(data)
	return &s, nil
}

// RecordMeta is the per-document analysis sidecar stored next to the blob.
// Every field is optional; a missing sidecar degrades to no metadata.
type RecordMeta struct {
	IntelligentName string   `json:"intelligent_name"`
	Category        string   `json:"category"`
	Date            string   `json:"date"`
	Insights        []string `json:"insights"`
	Urgency         string   `json:"urgency"`
	Status          string   `json:"status"`
}
