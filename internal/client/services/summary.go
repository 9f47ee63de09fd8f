package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// SummaryService fetches the externally generated medical-history summary
// for a patient. Summaries live in the documents bucket under
// Ayurlekha/{userID}/{patientID}/, one JSON file per generation run.
type SummaryService struct {
	client backend.Client
	log    logging.Logger

	bucket    string
	signedTTL time.Duration
}

func NewSummaryService(client backend.Client, bucket string, signedTTL time.Duration, log logging.Logger) *SummaryService {
	return &SummaryService{client: client, bucket: bucket, signedTTL: signedTTL, log: log}
}

// Latest returns the most recent summary for the patient, or (nil, nil) when
// none has been generated yet. "Most recent" is by descending object name;
// the generator prefixes names with a sortable timestamp.
func (s *SummaryService) Latest(ctx context.Context, userID, patientID string) (*models.Summary, error) {
	prefix := fmt.Sprintf("Ayurlekha/%s/%s", userID, patientID)

	objects, err := s.client.List(ctx, s.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name > objects[j].Name
	})
	latest := prefix + "/" + objects[0].Name

	url, err := s.client.CreateSignedURL(ctx, s.bucket, latest, s.signedTTL)
	if err != nil {
		return nil, fmt.Errorf("sign summary url: %w", err)
	}
	data, err := s.client.Download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download summary: %w", err)
	}

	summary, err := models.ParseSummary(data)
	if err != nil {
		return nil, fmt.Errorf("parse summary: %w", err)
	}
	return summary, nil
}
