package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
)

const testBucket = "medical-documents"

func newRecordService(t *testing.T, fb *fakeBackend) *RecordService {
	t.Helper()
	db := setupDB(t)
	return NewRecordService(db, fb, testBucket, 5*time.Minute, nopLogger{})
}

func rec(id, title string, category models.Category, tags ...string) models.MedicalRecord {
	return models.MedicalRecord{
		ID:       id,
		Title:    title,
		FileURL:  "https://cdn.example.com/storage/v1/object/public/" + testBucket + "/u1/p1/" + id + ".pdf",
		FileType: "pdf",
		Category: category,
		Tags:     tags,
	}
}

func TestFetch_ReplacesCollection(t *testing.T) {
	fb := &fakeBackend{ListRecordsRet: []models.MedicalRecord{
		rec("r2", "MRI scan", models.CategoryRadiology),
		rec("r1", "Blood test", models.CategoryLaboratory),
	}}
	svc := newRecordService(t, fb)

	old := rec("old", "Old", models.CategoryGeneral)
	require.NoError(t, svc.Add(context.Background(), &old))

	require.NoError(t, svc.Fetch(context.Background(), "p1"))
	require.Equal(t, "p1", fb.LastListPatientID)

	got := svc.List()
	require.Len(t, got, 2)
	require.Equal(t, "r2", got[0].ID)
	require.Equal(t, "r1", got[1].ID)
	require.Empty(t, svc.Err())
	require.False(t, svc.Loading())
}

func TestFetch_PersistsAcrossReload(t *testing.T) {
	db := setupDB(t)
	fb := &fakeBackend{ListRecordsRet: []models.MedicalRecord{
		rec("r2", "MRI scan", models.CategoryRadiology),
		rec("r1", "Blood test", models.CategoryLaboratory),
	}}
	svc := NewRecordService(db, fb, testBucket, 5*time.Minute, nopLogger{})
	require.NoError(t, svc.Fetch(context.Background(), ""))

	// a fresh service over the same database sees the same order
	svc2 := NewRecordService(db, fb, testBucket, 5*time.Minute, nopLogger{})
	require.NoError(t, svc2.Load(context.Background()))
	got := svc2.List()
	require.Len(t, got, 2)
	require.Equal(t, "r2", got[0].ID)
	require.Equal(t, "r1", got[1].ID)
}

func TestFetch_FailureKeepsStaleData(t *testing.T) {
	fb := &fakeBackend{ListRecordsRet: []models.MedicalRecord{rec("r1", "Blood test", models.CategoryLaboratory)}}
	svc := newRecordService(t, fb)
	require.NoError(t, svc.Fetch(context.Background(), ""))

	fb.ListRecordsErr = errors.New("network down")
	require.Error(t, svc.Fetch(context.Background(), ""))

	require.Len(t, svc.List(), 1, "stale data must stay available")
	require.NotEmpty(t, svc.Err())
	require.False(t, svc.Loading())
}

func TestFetch_PersistFailureRecordsError(t *testing.T) {
	db := setupDB(t)
	fb := &fakeBackend{ListRecordsRet: []models.MedicalRecord{rec("r1", "Blood test", models.CategoryLaboratory)}}
	svc := NewRecordService(db, fb, testBucket, 5*time.Minute, nopLogger{})

	require.NoError(t, db.Close())

	require.Error(t, svc.Fetch(context.Background(), ""))
	require.NotEmpty(t, svc.Err(), "a failed flush surfaces like any other fetch failure")
	require.False(t, svc.Loading())
}

func TestFetch_ErrorClearedOnNextSuccess(t *testing.T) {
	fb := &fakeBackend{ListRecordsErr: errors.New("down")}
	svc := newRecordService(t, fb)
	require.Error(t, svc.Fetch(context.Background(), ""))
	require.NotEmpty(t, svc.Err())

	fb.ListRecordsErr = nil
	fb.ListRecordsRet = []models.MedicalRecord{rec("r1", "Blood test", models.CategoryLaboratory)}
	require.NoError(t, svc.Fetch(context.Background(), ""))
	require.Empty(t, svc.Err())
}

func TestFetch_ClearWhileInFlight_DoesNotResurrectData(t *testing.T) {
	fb := &fakeBackend{ListRecordsRet: []models.MedicalRecord{rec("r1", "Blood test", models.CategoryLaboratory)}}
	svc := newRecordService(t, fb)

	fb.ListRecordsHook = func() {
		require.NoError(t, svc.Clear(context.Background()))
	}

	require.NoError(t, svc.Fetch(context.Background(), ""))
	require.Empty(t, svc.List(), "a fetch resolving after a clear must not restore old data")
}

func TestAdd_PrependsAndDeduplicates(t *testing.T) {
	db := setupDB(t)
	svc := NewRecordService(db, &fakeBackend{}, testBucket, 5*time.Minute, nopLogger{})
	ctx := context.Background()

	first := rec("r1", "Blood test", models.CategoryLaboratory)
	second := rec("r2", "MRI scan", models.CategoryRadiology)
	require.NoError(t, svc.Add(ctx, &first))
	require.NoError(t, svc.Add(ctx, &second))

	got := svc.List()
	require.Equal(t, []string{"r2", "r1"}, []string{got[0].ID, got[1].ID})

	// adding the same id again replaces in place instead of duplicating
	renamed := rec("r1", "Blood panel", models.CategoryLaboratory)
	require.NoError(t, svc.Add(ctx, &renamed))
	got = svc.List()
	require.Len(t, got, 2)
	require.Equal(t, "Blood panel", got[1].Title)

	// the replacement survives a restart
	svc2 := NewRecordService(db, &fakeBackend{}, testBucket, 5*time.Minute, nopLogger{})
	require.NoError(t, svc2.Load(ctx))
	got = svc2.List()
	require.Len(t, got, 2)
	require.Equal(t, []string{"r2", "r1"}, []string{got[0].ID, got[1].ID})
	require.Equal(t, "Blood panel", got[1].Title)
}

func TestFilter_ComposesCategoryAndQuery(t *testing.T) {
	svc := newRecordService(t, &fakeBackend{})
	ctx := context.Background()
	for _, r := range []models.MedicalRecord{
		rec("r1", "Blood test", models.CategoryLaboratory, "annual"),
		rec("r2", "Blood pressure log", models.CategoryGeneral),
		rec("r3", "Liver panel", models.CategoryLaboratory),
	} {
		r := r
		require.NoError(t, svc.Add(ctx, &r))
	}

	require.Len(t, svc.Filter(CategoryAll, ""), 3)
	require.Len(t, svc.Filter("laboratory", ""), 2)
	require.Len(t, svc.Filter(CategoryAll, "blood"), 2)

	got := svc.Filter("Laboratory", "BLOOD")
	require.Len(t, got, 1)
	require.Equal(t, "r1", got[0].ID)

	// tags match too
	require.Len(t, svc.Filter(CategoryAll, "annual"), 1)
}

func TestOpen_ReturnsSignedURL(t *testing.T) {
	fb := &fakeBackend{SignedURLRet: "https://signed.example.com/doc"}
	svc := newRecordService(t, fb)
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	url, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "https://signed.example.com/doc", url)
	require.Equal(t, "u1/p1/r1.pdf", fb.LastSignedPath)
	require.Equal(t, 5*time.Minute, fb.LastSignedTTL)
}

func TestOpen_SecondOpenWhileInFlight(t *testing.T) {
	svc := newRecordService(t, &fakeBackend{SignedURLRet: "https://signed.example.com/doc"})
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	svc.openingID = "r2"
	_, err := svc.Open(context.Background(), "r1")
	require.ErrorIs(t, err, ErrOpenInFlight)

	// guard released, open works again
	svc.openingID = ""
	_, err = svc.Open(context.Background(), "r1")
	require.NoError(t, err)
}

func TestMeta_FetchesSidecar(t *testing.T) {
	fb := &fakeBackend{
		SignedURLRet: "https://signed.example.com/meta",
		DownloadRet:  []byte(`{"intelligent_name":"CBC Report","urgency":"low","insights":["all normal"]}`),
	}
	svc := newRecordService(t, fb)
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	meta := svc.Meta(context.Background(), "r1")
	require.NotNil(t, meta)
	require.Equal(t, "CBC Report", meta.IntelligentName)
	require.Equal(t, []string{"all normal"}, meta.Insights)
	require.Equal(t, "u1/p1/r1_metadata.json", fb.LastSignedPath)
}

func TestMeta_MissingSidecarDegradesToNil(t *testing.T) {
	fb := &fakeBackend{SignedURLErr: errors.New("not found")}
	svc := newRecordService(t, fb)
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	require.Nil(t, svc.Meta(context.Background(), "r1"))
}

func TestDelete_RemovesRowThenBlob(t *testing.T) {
	fb := &fakeBackend{}
	svc := newRecordService(t, fb)
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	require.Equal(t, "r1", fb.LastDeleteRecordID)
	require.Equal(t, []string{"u1/p1/r1.pdf"}, fb.LastRemovePaths)
	require.Empty(t, svc.List())
}

func TestDelete_BlobFailureNotPropagated(t *testing.T) {
	fb := &fakeBackend{RemoveErr: errors.New("storage down")}
	svc := newRecordService(t, fb)
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	require.Empty(t, svc.List())
}

func TestDelete_RowFailureKeepsRecord(t *testing.T) {
	fb := &fakeBackend{DeleteRecordErr: errors.New("forbidden")}
	svc := newRecordService(t, fb)
	r := rec("r1", "Blood test", models.CategoryLaboratory)
	require.NoError(t, svc.Add(context.Background(), &r))

	require.Error(t, svc.Delete(context.Background(), "r1"))
	require.Len(t, svc.List(), 1)
	require.Empty(t, fb.LastRemovePaths, "blob must stay while its row exists")
}
