package photo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/storage"
)

type memRepo struct {
	photos map[uuid.UUID]*SkinPhoto
}

func newMemRepo() *memRepo {
	return &memRepo{photos: make(map[uuid.UUID]*SkinPhoto)}
}

func (r *memRepo) Create(_ context.Context, p *SkinPhoto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.photos[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*SkinPhoto, error) {
	p, ok := r.photos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, p *SkinPhoto) error {
	if _, ok := r.photos[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	r.photos[p.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.photos, id)
	return nil
}

func (r *memRepo) forUser(userID uuid.UUID) []*SkinPhoto {
	var items []*SkinPhoto
	for _, p := range r.photos {
		if p.UserID == userID {
			cp := *p
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CaptureDate.Before(items[j].CaptureDate)
	})
	return items
}

func (r *memRepo) ListForUser(_ context.Context, userID uuid.UUID, sortBy string, limit, offset int) ([]*SkinPhoto, int, error) {
	items := r.forUser(userID)
	if sortBy == "skin_score" {
		sort.Slice(items, func(i, j int) bool { return items[i].SkinScore > items[j].SkinScore })
	} else {
		sort.Slice(items, func(i, j int) bool {
			return items[i].CaptureDate.After(items[j].CaptureDate)
		})
	}
	return items, len(items), nil
}

func (r *memRepo) Recent(_ context.Context, userID uuid.UUID, n int) ([]*SkinPhoto, error) {
	items := r.forUser(userID)
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return items, nil
}

func (r *memRepo) Since(_ context.Context, userID uuid.UUID, from time.Time) ([]*SkinPhoto, error) {
	var items []*SkinPhoto
	for _, p := range r.forUser(userID) {
		if !p.CaptureDate.Before(from) {
			items = append(items, p)
		}
	}
	return items, nil
}

type scoreLog struct {
	calls  int
	lastID uuid.UUID
	last   int
}

func (s *scoreLog) RecordSkinScore(_ context.Context, id uuid.UUID, score int) error {
	s.calls++
	s.lastID = id
	s.last = score
	return nil
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *memRepo, *storage.MemoryStore, *scoreLog) {
	repo := newMemRepo()
	store := storage.NewMemoryStore()
	scores := &scoreLog{}
	svc := NewService(repo, store, scores, passthroughTx, zerolog.Nop())
	return svc, repo, store, scores
}

func TestUploadRecordsScoreOnce(t *testing.T) {
	svc, _, store, scores := newTestService()
	patientID := uuid.New()

	p, err := svc.Upload(context.Background(), patientID, UploadInput{
		Content:     strings.NewReader("jpeg bytes"),
		ContentType: "image/jpeg",
		Size:        9,
		SkinScore:   64,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if p.PhotoURL == "" || p.StorageKey == nil {
		t.Errorf("photo = %+v", p)
	}
	if _, ok := store.Get(*p.StorageKey); !ok {
		t.Error("blob not stored")
	}
	if scores.calls != 1 || scores.lastID != patientID || scores.last != 64 {
		t.Errorf("score recorder: calls=%d id=%s score=%d", scores.calls, scores.lastID, scores.last)
	}
}

func TestUploadZeroScoreSkipsStreak(t *testing.T) {
	svc, _, _, scores := newTestService()

	_, err := svc.Upload(context.Background(), uuid.New(), UploadInput{
		Content:     strings.NewReader("png bytes"),
		ContentType: "image/png",
		Size:        9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if scores.calls != 0 {
		t.Errorf("score recorded for scoreless upload")
	}
}

func TestUploadRejections(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	patientID := uuid.New()

	cases := []struct {
		name string
		in   UploadInput
		code string
	}{
		{"bad type", UploadInput{Content: strings.NewReader("x"), ContentType: "image/gif", Size: 1}, "INVALID_FILE_TYPE"},
		{"too large", UploadInput{Content: strings.NewReader("x"), ContentType: "image/jpeg", Size: storage.MaxPhotoSize + 1}, "FILE_TOO_LARGE"},
		{"bad score", UploadInput{Content: strings.NewReader("x"), ContentType: "image/jpeg", Size: 1, SkinScore: 120}, "INVALID_SKIN_SCORE"},
	}
	for _, tc := range cases {
		_, err := svc.Upload(ctx, patientID, tc.in)
		var appErr *httperr.Error
		if !errors.As(err, &appErr) || appErr.Code != tc.code {
			t.Errorf("%s: got %v, want %s", tc.name, err, tc.code)
		}
	}
}

func TestOwnership(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.Create(ctx, owner, CreateRequest{PhotoURL: "https://cdn.example.com/a.jpg", SkinScore: 50})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, owner, p.ID); err != nil {
		t.Errorf("owner get: %v", err)
	}
	_, err = svc.Get(ctx, uuid.New(), p.ID)
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "PHOTO_NOT_FOUND" {
		t.Errorf("foreign get: got %v, want PHOTO_NOT_FOUND", err)
	}
}

func TestUpdateScoreDoesNotBumpStreak(t *testing.T) {
	svc, _, _, scores := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.Create(ctx, owner, CreateRequest{PhotoURL: "https://cdn.example.com/a.jpg", SkinScore: 50})
	if err != nil {
		t.Fatal(err)
	}
	before := scores.calls

	score := 70
	updated, err := svc.Update(ctx, owner, p.ID, UpdateRequest{SkinScore: &score})
	if err != nil {
		t.Fatal(err)
	}
	if updated.SkinScore != 70 {
		t.Errorf("score = %d", updated.SkinScore)
	}
	if scores.calls != before {
		t.Error("streak bumped by metadata edit")
	}
}

func TestDeleteRemovesBlob(t *testing.T) {
	svc, repo, store, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.Upload(ctx, owner, UploadInput{
		Content:     strings.NewReader("jpeg bytes"),
		ContentType: "image/jpeg",
		Size:        9,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, owner, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Error("row still present")
	}
	if _, ok := store.Get(*p.StorageKey); ok {
		t.Error("blob still present")
	}
}

func TestProgressTimeline(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC()

	// Two photos last week, two this week, scores climbing.
	for i, score := range []int{40, 45, 60, 70} {
		daysAgo := []int{10, 9, 3, 1}[i]
		if err := repo.Create(ctx, &SkinPhoto{
			UserID:      owner,
			PhotoURL:    "https://cdn.example.com/p.jpg",
			SkinScore:   score,
			CaptureDate: now.AddDate(0, 0, -daysAgo),
		}); err != nil {
			t.Fatal(err)
		}
	}

	tl, err := svc.Progress(ctx, owner, 30)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if tl.TotalPhotos != 4 {
		t.Errorf("totalPhotos = %d", tl.TotalPhotos)
	}
	if tl.AverageScore != 53.75 {
		t.Errorf("averageScore = %v", tl.AverageScore)
	}
	if tl.Trend != "improving" {
		t.Errorf("trend = %q, want improving", tl.Trend)
	}
	if len(tl.Weeks) < 2 {
		t.Errorf("weeks = %d, want at least 2", len(tl.Weeks))
	}
	var counted int
	for _, w := range tl.Weeks {
		counted += w.PhotoCount
	}
	if counted != 4 {
		t.Errorf("week buckets cover %d photos", counted)
	}
}
