package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/client/services"
	"github.com/ayurlekha/ayurlekha/internal/common"
)

// ListRecords prints cached records, newest first. Arguments narrow the
// list: the first is a category (or "all"), the rest form a free-text query.
// Category and query compose.
func (a *App) ListRecords(ctx context.Context, args []string) error {
	category := services.CategoryAll
	query := ""
	if len(args) > 0 {
		category = args[0]
		query = strings.Join(args[1:], " ")
	}

	items := a.records.Filter(category, query)
	if msg := a.records.Err(); msg != "" {
		printlnFn("Last fetch failed:", msg, "(showing cached data)")
	}
	if len(items) == 0 {
		printlnFn("No records. Use 'fetch' to refresh or 'upload' to add one.")
		return nil
	}

	for _, r := range items {
		line := fmt.Sprintf("%s  [%s] %s (%s)", r.ID, r.Category, r.Title, r.FileType)
		if len(r.Tags) > 0 {
			line += "  tags: " + strings.Join(r.Tags, ", ")
		}
		if !r.CreatedAt.IsZero() {
			line += "  " + r.CreatedAt.Format("2006-01-02")
		}
		printlnFn(line)
	}
	return nil
}

// FetchRecords refetches the record list from the server, scoped to the
// selected patient when one is active.
func (a *App) FetchRecords(ctx context.Context) error {
	patientID := ""
	if p := a.patients.Selected(); p != nil {
		patientID = p.ID
	}

	if err := a.records.Fetch(ctx, patientID); err != nil {
		printlnFn(a.records.Err(), "(cached data kept)")
		return err
	}
	printlnFn("Fetched", len(a.records.List()), "records.")
	return nil
}

// OpenRecord produces a short-lived preview link for the record's document.
func (a *App) OpenRecord(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: open <record-id>")
		return nil
	}

	url, err := a.records.Open(ctx, args[0])
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOpenInFlight):
			printlnFn("Another document is still loading, try again in a moment.")
		case errors.Is(err, common.ErrNotFound):
			printlnFn("No record with id", args[0])
		default:
			printlnFn(services.FailureMessage(err))
		}
		return err
	}

	printlnFn("Document link (valid for", a.config.SignedURLTTL.String()+"):")
	printlnFn(url)
	return nil
}

// ShowRecord prints one record together with its analysis metadata, when the
// sidecar exists.
func (a *App) ShowRecord(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: show <record-id>")
		return nil
	}

	rec := a.records.Get(args[0])
	if rec == nil {
		printlnFn("No record with id", args[0])
		return nil
	}

	printlnFn("Title:   ", rec.Title)
	printlnFn("Category:", string(rec.Category))
	printlnFn("Type:    ", rec.FileType)
	if len(rec.Tags) > 0 {
		printlnFn("Tags:    ", strings.Join(rec.Tags, ", "))
	}
	if !rec.CreatedAt.IsZero() {
		printlnFn("Created: ", rec.CreatedAt.Format("2006-01-02 15:04"))
	}

	if meta := a.records.Meta(ctx, rec.ID); meta != nil {
		printRecordMeta(meta)
	}
	return nil
}

func printRecordMeta(meta *models.RecordMeta) {
	printlnFn("Analysis:")
	if meta.IntelligentName != "" {
		printlnFn("  Name:    ", meta.IntelligentName)
	}
	if meta.Category != "" {
		printlnFn("  Category:", meta.Category)
	}
	if meta.Date != "" {
		printlnFn("  Date:    ", meta.Date)
	}
	if meta.Urgency != "" {
		printlnFn("  Urgency: ", meta.Urgency)
	}
	for _, insight := range meta.Insights {
		printlnFn("  -", insight)
	}
}

// DeleteRecord removes the record row and its stored document.
func (a *App) DeleteRecord(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: delrecord <record-id>")
		return nil
	}

	confirm, err := getSimpleText(a.reader, "Delete record "+args[0]+" and its document? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		printlnFn("Cancelled.")
		return nil
	}

	if err := a.records.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn("No record with id", args[0])
			return nil
		}
		printlnFn(services.FailureMessage(err))
		return err
	}
	printlnFn("Deleted.")
	return nil
}
