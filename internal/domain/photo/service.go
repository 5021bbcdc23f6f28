package photo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/storage"
)

var errNotFound = httperr.NotFound("PHOTO_NOT_FOUND", "photo not found")

// progressPoints is how many recent photos feed the progress chart.
const progressPoints = 10

// ScoreRecorder records a patient's skin score alongside a new photo. The
// identity patient repository satisfies it.
type ScoreRecorder interface {
	RecordSkinScore(ctx context.Context, id uuid.UUID, score int) error
}

// TxRunner executes fn inside a database transaction.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

type Service struct {
	repo   Repository
	store  storage.PhotoStore
	scores ScoreRecorder
	inTx   TxRunner
	log    zerolog.Logger
}

func NewService(repo Repository, store storage.PhotoStore, scores ScoreRecorder, inTx TxRunner, log zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, scores: scores, inTx: inTx, log: log}
}

// Upload stores the image blob, then writes the photo row and the patient's
// score update in one transaction. A nonzero score counts toward the streak
// exactly once. An orphaned blob can remain if the transaction fails after a
// successful upload; the key layout makes those sweepable later.
func (s *Service) Upload(ctx context.Context, patientID uuid.UUID, in UploadInput) (*SkinPhoto, error) {
	if !storage.AllowedContentTypes[in.ContentType] {
		return nil, httperr.BadRequest("INVALID_FILE_TYPE", "only JPEG, PNG and WebP images are accepted")
	}
	if in.Size > storage.MaxPhotoSize {
		return nil, httperr.BadRequest("FILE_TOO_LARGE", "photo exceeds the 10MB limit")
	}
	if in.SkinScore < 0 || in.SkinScore > 100 {
		return nil, httperr.BadRequest("INVALID_SKIN_SCORE", "skin score must be between 0 and 100")
	}

	key := storage.ObjectKey(patientID.String(), in.ContentType)
	url, err := s.store.Upload(ctx, key, in.ContentType, in.Content)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("photo upload failed")
		return nil, httperr.Internal(httperr.CodeStorageUpload, "failed to store photo")
	}

	p := &SkinPhoto{
		UserID:        patientID,
		PhotoURL:      url,
		StorageKey:    &key,
		SkinScore:     in.SkinScore,
		Notes:         in.Notes,
		CaptureDate:   in.CaptureDate,
		AppointmentID: in.AppointmentID,
	}
	if p.CaptureDate.IsZero() {
		p.CaptureDate = time.Now().UTC()
	}
	if err := s.persist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Create records a photo whose image is already hosted elsewhere.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req CreateRequest) (*SkinPhoto, error) {
	p := &SkinPhoto{
		UserID:        patientID,
		PhotoURL:      req.PhotoURL,
		SkinScore:     req.SkinScore,
		Notes:         req.Notes,
		AppointmentID: req.AppointmentID,
		CaptureDate:   time.Now().UTC(),
	}
	if req.CaptureDate != nil {
		p.CaptureDate = *req.CaptureDate
	}
	if err := s.persist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) persist(ctx context.Context, p *SkinPhoto) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if p.SkinScore > 0 {
			return s.scores.RecordSkinScore(ctx, p.UserID, p.SkinScore)
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, patientID, id uuid.UUID) (*SkinPhoto, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != patientID {
		return nil, errNotFound
	}
	return p, nil
}

// List returns a page of the patient's photo log plus the recent score curve.
func (s *Service) List(ctx context.Context, patientID uuid.UUID, sortBy string, limit, offset int) ([]*SkinPhoto, int, []ProgressPoint, error) {
	column := "capture_date"
	if sortBy == "skinScore" {
		column = "skin_score"
	}
	items, total, err := s.repo.ListForUser(ctx, patientID, column, limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}

	recent, err := s.repo.Recent(ctx, patientID, progressPoints)
	if err != nil {
		return nil, 0, nil, err
	}
	progress := make([]ProgressPoint, 0, len(recent))
	for _, p := range recent {
		progress = append(progress, ProgressPoint{Date: p.CaptureDate, Score: p.SkinScore})
	}
	return items, total, progress, nil
}

// Update edits a photo's metadata. Changing the score here does not touch the
// patient's streak; only new photos count toward it.
func (s *Service) Update(ctx context.Context, patientID, id uuid.UUID, req UpdateRequest) (*SkinPhoto, error) {
	p, err := s.Get(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if req.SkinScore != nil {
		p.SkinScore = *req.SkinScore
	}
	if req.Notes != nil {
		p.Notes = req.Notes
	}
	if req.CaptureDate != nil {
		p.CaptureDate = *req.CaptureDate
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the photo row, then the blob best-effort.
func (s *Service) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	p, err := s.Get(ctx, patientID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if p.StorageKey != nil {
		if err := s.store.Delete(ctx, *p.StorageKey); err != nil {
			s.log.Warn().Err(err).Str("key", *p.StorageKey).Msg("photo blob delete failed")
		}
	}
	return nil
}

// Progress builds the weekly timeline over the last days days.
func (s *Service) Progress(ctx context.Context, patientID uuid.UUID, days int) (*Timeline, error) {
	if days <= 0 {
		days = 30
	}
	from := time.Now().UTC().AddDate(0, 0, -days)
	photos, err := s.repo.Since(ctx, patientID, from)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum, n int
	}
	buckets := make(map[time.Time]*bucket)
	var order []time.Time
	var sum int
	for _, p := range photos {
		wk := weekStart(p.CaptureDate)
		b, ok := buckets[wk]
		if !ok {
			b = &bucket{}
			buckets[wk] = b
			order = append(order, wk)
		}
		b.sum += p.SkinScore
		b.n++
		sum += p.SkinScore
	}

	t := &Timeline{
		Weeks:       make([]WeeklyProgress, 0, len(order)),
		Trend:       trend(photos),
		TotalPhotos: len(photos),
	}
	if len(photos) > 0 {
		t.AverageScore = float64(sum) / float64(len(photos))
	}
	for _, wk := range order {
		b := buckets[wk]
		t.Weeks = append(t.Weeks, WeeklyProgress{
			WeekStart:    wk,
			AverageScore: float64(b.sum) / float64(b.n),
			PhotoCount:   b.n,
		})
	}
	return t, nil
}

// weekStart truncates t to the Monday of its week, UTC midnight.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return t.AddDate(0, 0, -int((t.Weekday()+6)%7))
}

// trend fits a least-squares line over (days elapsed, score) and labels the
// slope. Scores run upward, so a positive slope means improving skin.
func trend(photos []*SkinPhoto) string {
	if len(photos) < 2 {
		return "stable"
	}
	first := photos[0].CaptureDate
	var sx, sy, sxx, sxy float64
	for _, p := range photos {
		x := p.CaptureDate.Sub(first).Hours() / 24
		y := float64(p.SkinScore)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	n := float64(len(photos))
	denom := n*sxx - sx*sx
	if denom == 0 {
		return "stable"
	}
	slope := (n*sxy - sx*sy) / denom
	switch {
	case slope > 0.1:
		return "improving"
	case slope < -0.1:
		return "declining"
	default:
		return "stable"
	}
}
