package models

import (
	"strings"
	"time"
)

// Category classifies an uploaded document.
type Category string

const (
	CategoryLaboratory   Category = "Laboratory"
	CategoryRadiology    Category = "Radiology"
	CategoryPrescription Category = "Prescription"
	CategoryScan         Category = "Scan"
	CategoryDocument     Category = "Document"
	CategoryGeneral      Category = "General"
)

// Categories lists the selectable document categories in display order.
var Categories = []Category{
	CategoryLaboratory,
	CategoryRadiology,
	CategoryPrescription,
	CategoryScan,
	CategoryDocument,
	CategoryGeneral,
}

// ParseCategory matches s against the known categories, case-insensitively.
// Unknown values fall back to General.
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return CategoryGeneral
}

// MedicalRecord is the metadata of one uploaded document, mirrored from the
// medical_records table.
type MedicalRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	Category  Category  `json:"category"`
	PatientID string    `json:"patient_id"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Matches reports whether the record's title, category, or any tag contains
// query, case-insensitively. An empty query matches everything.
func (r *MedicalRecord) Matches(query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(string(r.Category)), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// StoragePath extracts the object path within the documents bucket from the
// record's public file URL. Returns an empty string when the URL does not
// reference the given bucket.
func (r *MedicalRecord) StoragePath(bucket string) string {
	marker := "/" + bucket + "/"
	idx := strings.Index(r.FileURL, marker)
	if idx == -1 {
		return ""
	}
	return r.FileURL[idx+len(marker):]
}

// MetadataPath derives the path of the record's analysis sidecar: the same
// object path with the extension replaced by "_metadata.json".
func (r *MedicalRecord) MetadataPath(bucket string) string {
	path := r.StoragePath(bucket)
	if path == "" {
		return ""
	}
	if dot := strings.LastIndex(path, "."); dot > strings.LastIndex(path, "/") {
		path = path[:dot]
	}
	return path + "_metadata.json"
}
