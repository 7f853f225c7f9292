package quotes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"hexagono-backend/internal/cache"
	"hexagono-backend/internal/pricing"
)

var (
	ErrNotFound          = errors.New("quote not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidToken      = errors.New("invalid access token")
	ErrMissingActor      = errors.New("missing changed_by actor")
)

type Notifier interface {
	SendQuoteReceivedAlert(ctx context.Context, quote Quote) (string, error)
	SendQuoteConfirmation(ctx context.Context, quote Quote) (string, error)
	SendStatusUpdateNotification(ctx context.Context, quote Quote, previousStatus, notes string) (string, error)
	SendReminderNotification(ctx context.Context, quote Quote) (string, error)
}

type ReminderReport struct {
	Eligible int `json:"eligible"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

const (
	trackCacheTTL     = 30 * time.Second
	notifyTimeout     = 8 * time.Second
	reminderWorkers   = 4
	createNumberRetry = 1
)

type Service struct {
	repo          Repository
	location      *time.Location
	notifier      Notifier
	cache         cache.Cache
	log           *slog.Logger
	reminderAfter time.Duration

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

func NewService(repo Repository, location *time.Location, notifier Notifier, store cache.Cache, log *slog.Logger, reminderAfter time.Duration) *Service {
	if store == nil {
		store = cache.NewNoop()
	}
	return &Service{
		repo:          repo,
		location:      location,
		notifier:      notifier,
		cache:         store,
		log:           log,
		reminderAfter: reminderAfter,
		now:           time.Now,
	}
}

// Create persists a new quote in PENDING with a generated quote number and
// access token. The estimate total is stored only when the client selected at
// least one feature; a bare service type keeps the price open for the admin.
// Quote-number collisions under concurrent bursts are resolved by the unique
// index plus a regenerate-and-retry.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Quote, error) {
	estimate, err := pricing.Calculate(req.ServiceType, req.Features, req.CustomRequirements)
	if err != nil {
		return Quote{}, err
	}

	now := s.now().In(s.location)
	quote := Quote{
		ID:                 primitive.NewObjectID().Hex(),
		QuoteNumber:        GenerateQuoteNumber(now, -1),
		AccessToken:        GenerateAccessToken(),
		ClientName:         strings.TrimSpace(req.ClientName),
		ClientEmail:        strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		ClientPhone:        strings.TrimSpace(req.ClientPhone),
		ClientCompany:      strings.TrimSpace(req.ClientCompany),
		ServiceType:        req.ServiceType,
		Timeline:           strings.TrimSpace(req.Timeline),
		BudgetRange:        strings.TrimSpace(req.BudgetRange),
		Description:        strings.TrimSpace(req.Description),
		Features:           estimate.Features,
		CustomRequirements: strings.TrimSpace(req.CustomRequirements),
		Status:             StatusPending,
		Priority:           PriorityMedium,
		StatusHistory: []StatusHistoryEntry{
			{NewStatus: StatusPending, ChangedBy: "system", CreatedAt: now},
		},
		Notes:     []Note{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(estimate.Features) > 0 {
		total := estimate.TotalEstimate
		quote.EstimatedPrice = &total
	}

	for attempt := 0; ; attempt++ {
		err := s.repo.Create(ctx, quote)
		if err == nil {
			break
		}
		if mongo.IsDuplicateKeyError(err) && attempt < createNumberRetry {
			quote.QuoteNumber = GenerateQuoteNumber(s.now().In(s.location), -1)
			quote.AccessToken = GenerateAccessToken()
			continue
		}
		return Quote{}, err
	}

	s.notifyAsync("quote created", quote.ID, func(ctx context.Context) error {
		if _, err := s.notifier.SendQuoteReceivedAlert(ctx, quote); err != nil {
			return err
		}
		_, err := s.notifier.SendQuoteConfirmation(ctx, quote)
		return err
	})

	return quote, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Quote, error) {
	quote, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	return quote, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Quote, int64, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	filter.ServiceType = strings.ToUpper(strings.TrimSpace(filter.ServiceType))
	filter.Priority = strings.ToUpper(strings.TrimSpace(filter.Priority))

	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	if filter.ServiceType != "" && !pricing.IsValidService(filter.ServiceType) {
		return nil, 0, pricing.ErrUnknownService
	}
	if filter.Priority != "" && !IsValidPriority(filter.Priority) {
		return nil, 0, ErrInvalidPriority
	}

	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus applies one lifecycle transition. A same-status write is a
// no-op: no history entry, no notification. The directed graph is enforced;
// terminal states accept nothing. The notification runs out-of-band after the
// write commits and its failure never fails the update.
func (s *Service) UpdateStatus(ctx context.Context, id, newStatus, changedBy, notes string) (UpdatedQuote, error) {
	id = strings.TrimSpace(id)
	newStatus = strings.ToUpper(strings.TrimSpace(newStatus))
	changedBy = strings.TrimSpace(changedBy)

	if changedBy == "" {
		return UpdatedQuote{}, ErrMissingActor
	}
	if !IsValidStatus(newStatus) {
		return UpdatedQuote{}, ErrInvalidStatus
	}

	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return UpdatedQuote{}, err
	}

	previous := quote.Status
	if previous == newStatus {
		return UpdatedQuote{
			ID:             quote.ID,
			QuoteNumber:    quote.QuoteNumber,
			Status:         quote.Status,
			PreviousStatus: previous,
			UpdatedAt:      quote.UpdatedAt,
		}, nil
	}

	if !CanTransition(previous, newStatus) {
		return UpdatedQuote{}, ErrInvalidTransition
	}

	now := s.now().In(s.location)
	entry := StatusHistoryEntry{
		PreviousStatus: previous,
		NewStatus:      newStatus,
		ChangedBy:      changedBy,
		Notes:          notes,
		CreatedAt:      now,
	}

	updated, err := s.repo.UpdateStatus(ctx, id, previous, entry, now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The quote moved under us; the caller can re-read and retry.
			return UpdatedQuote{}, ErrInvalidTransition
		}
		return UpdatedQuote{}, err
	}

	s.invalidateTracking(updated.AccessToken)
	s.notifyAsync("status update", updated.ID, func(ctx context.Context) error {
		_, err := s.notifier.SendStatusUpdateNotification(ctx, updated, previous, notes)
		return err
	})

	return UpdatedQuote{
		ID:             updated.ID,
		QuoteNumber:    updated.QuoteNumber,
		Status:         updated.Status,
		PreviousStatus: previous,
		UpdatedAt:      updated.UpdatedAt,
	}, nil
}

func (s *Service) StatusHistory(ctx context.Context, id string) (string, []StatusHistoryEntry, error) {
	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return quote.Status, quote.StatusHistory, nil
}

func (s *Service) AddNote(ctx context.Context, id string, req NoteRequest, author string) (Quote, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return Quote{}, ErrMissingActor
	}

	note := Note{
		Author:     author,
		Text:       strings.TrimSpace(req.Text),
		IsInternal: req.IsInternal,
		CreatedAt:  s.now().In(s.location),
	}

	updated, err := s.repo.AddNote(ctx, strings.TrimSpace(id), note, note.CreatedAt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}

	s.invalidateTracking(updated.AccessToken)
	return updated, nil
}

func (s *Service) UpdateAdminFields(ctx context.Context, id string, req AdminUpdateRequest) (Quote, error) {
	fields := map[string]interface{}{}
	if req.Priority != "" {
		priority := strings.ToUpper(strings.TrimSpace(req.Priority))
		if !IsValidPriority(priority) {
			return Quote{}, ErrInvalidPriority
		}
		fields["priority"] = priority
	}
	if req.AssignedTo != "" {
		fields["assigned_to"] = strings.TrimSpace(req.AssignedTo)
	}
	if len(fields) == 0 {
		return s.GetByID(ctx, id)
	}

	updated, err := s.repo.UpdateAdminFields(ctx, strings.TrimSpace(id), fields, s.now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	return updated, nil
}

// Track resolves the public projection behind an access token. Internal
// notes never cross this boundary.
func (s *Service) Track(ctx context.Context, token string) (TrackingView, error) {
	token = strings.TrimSpace(token)
	if !IsValidAccessToken(token) {
		return TrackingView{}, ErrInvalidToken
	}

	cacheKey := "track:" + token
	var cached TrackingView
	if ok, _ := cache.GetJSON(ctx, s.cache, cacheKey, &cached); ok {
		return cached, nil
	}

	quote, err := s.repo.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return TrackingView{}, ErrNotFound
		}
		return TrackingView{}, err
	}

	view := buildTrackingView(quote)
	if err := cache.SetJSON(ctx, s.cache, cacheKey, view, trackCacheTTL); err != nil {
		s.log.Warn("tracking cache write failed", slog.String("error", err.Error()))
	}
	return view, nil
}

// SendReminder nudges a quote still awaiting action. Missing or ineligible
// quotes report (false, nil) so callers can answer "no reminder needed"
// without an error path.
func (s *Service) SendReminder(ctx context.Context, id string) (bool, error) {
	quote, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if !s.reminderEligible(quote) {
		return false, nil
	}
	if s.notifier == nil {
		return false, nil
	}

	if _, err := s.notifier.SendReminderNotification(ctx, quote); err != nil {
		return false, err
	}

	now := s.now().In(s.location)
	if err := s.repo.MarkReminderSent(ctx, quote.ID, now); err != nil {
		s.log.Warn("reminder bookkeeping failed",
			slog.String("quote_id", quote.ID),
			slog.String("error", err.Error()),
		)
	}
	return true, nil
}

// SendBulkReminders walks every eligible quote with a small worker pool so a
// batch cannot flood the mail provider. One failed send never aborts the
// batch.
func (s *Service) SendBulkReminders(ctx context.Context) (ReminderReport, error) {
	cutoff := s.now().In(s.location).Add(-s.reminderAfter)
	eligible, err := s.repo.FindReminderEligible(ctx, StatusPending, cutoff)
	if err != nil {
		return ReminderReport{}, err
	}

	report := ReminderReport{Eligible: len(eligible)}
	if len(eligible) == 0 || s.notifier == nil {
		return report, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, reminderWorkers)

	for _, quote := range eligible {
		wg.Add(1)
		sem <- struct{}{}
		go func(q Quote) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := s.notifier.SendReminderNotification(ctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				s.log.Warn("bulk reminder failed",
					slog.String("quote_id", q.ID),
					slog.String("error", err.Error()),
				)
				return
			}
			report.Sent++
			if err := s.repo.MarkReminderSent(ctx, q.ID, s.now().In(s.location)); err != nil {
				s.log.Warn("reminder bookkeeping failed",
					slog.String("quote_id", q.ID),
					slog.String("error", err.Error()),
				)
			}
		}(quote)
	}
	wg.Wait()

	return report, nil
}

func (s *Service) reminderEligible(quote Quote) bool {
	if quote.Status != StatusPending {
		return false
	}
	age := s.now().In(s.location).Sub(quote.CreatedAt)
	return age > s.reminderAfter
}

func (s *Service) invalidateTracking(token string) {
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, "track:"+token); err != nil {
		s.log.Warn("tracking cache invalidation failed", slog.String("error", err.Error()))
	}
}

// notifyAsync runs fn on its own goroutine with a fresh context so slow or
// failing mail delivery never blocks or fails the request that triggered it.
func (s *Service) notifyAsync(operation, quoteID string, fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Warn("notification failed",
				slog.String("operation", operation),
				slog.String("quote_id", quoteID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func buildTrackingView(quote Quote) TrackingView {
	publicNotes := make([]Note, 0, len(quote.Notes))
	for _, note := range quote.Notes {
		if note.IsInternal {
			continue
		}
		publicNotes = append(publicNotes, note)
	}

	history := make([]TrackingHistory, 0, len(quote.StatusHistory))
	for _, entry := range quote.StatusHistory {
		history = append(history, TrackingHistory{
			Status:    entry.NewStatus,
			CreatedAt: entry.CreatedAt,
		})
	}

	return TrackingView{
		QuoteNumber:    quote.QuoteNumber,
		Status:         quote.Status,
		ServiceType:    quote.ServiceType,
		Features:       quote.Features,
		EstimatedPrice: quote.EstimatedPrice,
		Currency:       pricing.Currency,
		Notes:          publicNotes,
		StatusHistory:  history,
		CreatedAt:      quote.CreatedAt,
		UpdatedAt:      quote.UpdatedAt,
	}
}
