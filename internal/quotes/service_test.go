package quotes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	mu     sync.Mutex
	quotes map[string]*Quote
	marked []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotes: map[string]*Quote{}}
}

func (f *fakeRepo) Create(ctx context.Context, quote Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[quote.ID] = &quote
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return Quote{}, mongo.ErrNoDocuments
	}
	return *q, nil
}

func (f *fakeRepo) GetByAccessToken(ctx context.Context, token string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quotes {
		if q.AccessToken == token {
			return *q, nil
		}
	}
	return Quote{}, mongo.ErrNoDocuments
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Quote, 0, len(f.quotes))
	for _, q := range f.quotes {
		items = append(items, *q)
	}
	return items, nil
}

func (f *fakeRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.quotes)), nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, previousStatus string, entry StatusHistoryEntry, now time.Time) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok || q.Status != previousStatus {
		return Quote{}, mongo.ErrNoDocuments
	}
	q.Status = entry.NewStatus
	q.UpdatedAt = now
	q.StatusHistory = append(q.StatusHistory, entry)
	return *q, nil
}

func (f *fakeRepo) AddNote(ctx context.Context, id string, note Note, now time.Time) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return Quote{}, mongo.ErrNoDocuments
	}
	q.Notes = append(q.Notes, note)
	q.UpdatedAt = now
	return *q, nil
}

func (f *fakeRepo) UpdateAdminFields(ctx context.Context, id string, fields map[string]interface{}, now time.Time) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return Quote{}, mongo.ErrNoDocuments
	}
	if v, ok := fields["priority"]; ok {
		q.Priority = v.(string)
	}
	if v, ok := fields["assigned_to"]; ok {
		q.AssignedTo = v.(string)
	}
	q.UpdatedAt = now
	return *q, nil
}

func (f *fakeRepo) FindReminderEligible(ctx context.Context, status string, createdBefore time.Time) ([]Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Quote, 0)
	for _, q := range f.quotes {
		if q.Status == status && q.CreatedAt.Before(createdBefore) {
			items = append(items, *q)
		}
	}
	return items, nil
}

func (f *fakeRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	if q, ok := f.quotes[id]; ok {
		q.LastReminderAt = &at
		q.ReminderCount++
	}
	return nil
}

type statusCall struct {
	quoteID        string
	newStatus      string
	previousStatus string
	notes          string
}

type fakeNotifier struct {
	mu            sync.Mutex
	statusCalls   []statusCall
	reminderCalls []string
	alerts        int
	confirmations int
	failReminders map[string]bool
	signal        chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		failReminders: map[string]bool{},
		signal:        make(chan struct{}, 32),
	}
}

func (f *fakeNotifier) SendQuoteReceivedAlert(ctx context.Context, quote Quote) (string, error) {
	f.mu.Lock()
	f.alerts++
	f.mu.Unlock()
	f.signal <- struct{}{}
	return "msg", nil
}

func (f *fakeNotifier) SendQuoteConfirmation(ctx context.Context, quote Quote) (string, error) {
	f.mu.Lock()
	f.confirmations++
	f.mu.Unlock()
	f.signal <- struct{}{}
	return "msg", nil
}

func (f *fakeNotifier) SendStatusUpdateNotification(ctx context.Context, quote Quote, previousStatus, notes string) (string, error) {
	f.mu.Lock()
	f.statusCalls = append(f.statusCalls, statusCall{
		quoteID:        quote.ID,
		newStatus:      quote.Status,
		previousStatus: previousStatus,
		notes:          notes,
	})
	f.mu.Unlock()
	f.signal <- struct{}{}
	return "msg", nil
}

func (f *fakeNotifier) SendReminderNotification(ctx context.Context, quote Quote) (string, error) {
	f.mu.Lock()
	fail := f.failReminders[quote.ID]
	f.reminderCalls = append(f.reminderCalls, quote.ID)
	f.mu.Unlock()
	f.signal <- struct{}{}
	if fail {
		return "", errors.New("smtp down")
	}
	return "msg", nil
}

func (f *fakeNotifier) waitSignal(t *testing.T) {
	t.Helper()
	select {
	case <-f.signal:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for notification")
	}
}

var testClock = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, notifier Notifier) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, time.UTC, notifier, nil, log, 48*time.Hour)
	svc.now = func() time.Time { return testClock }
	return svc
}

func seedQuote(repo *fakeRepo, id, status string, createdAt time.Time) *Quote {
	quote := &Quote{
		ID:          id,
		QuoteNumber: GenerateQuoteNumber(createdAt, 1),
		AccessToken: GenerateAccessToken(),
		ClientName:  "Ana García",
		ClientEmail: "ana@example.com",
		ServiceType: "LANDING_PAGE",
		Status:      status,
		Priority:    PriorityMedium,
		StatusHistory: []StatusHistoryEntry{
			{NewStatus: StatusPending, ChangedBy: "system", CreatedAt: createdAt},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	repo.quotes[id] = quote
	return quote
}

func TestCreateDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	quote, err := svc.Create(context.Background(), CreateRequest{
		ClientName:  "Ana García",
		ClientEmail: "Ana@Example.com",
		ServiceType: "LANDING_PAGE",
		Features:    []string{"seo-optimization", "responsive-design"},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if quote.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", quote.Status)
	}
	if quote.Priority != PriorityMedium {
		t.Fatalf("expected MEDIUM priority, got %s", quote.Priority)
	}
	if !IsValidQuoteNumber(quote.QuoteNumber) {
		t.Fatalf("invalid quote number: %s", quote.QuoteNumber)
	}
	if !IsValidAccessToken(quote.AccessToken) {
		t.Fatalf("invalid access token: %s", quote.AccessToken)
	}
	if quote.ClientEmail != "ana@example.com" {
		t.Fatalf("expected lowercased email, got %s", quote.ClientEmail)
	}
	if quote.EstimatedPrice == nil || *quote.EstimatedPrice != 250000 {
		t.Fatalf("expected estimated price 250000, got %v", quote.EstimatedPrice)
	}
	if len(quote.StatusHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(quote.StatusHistory))
	}
	first := quote.StatusHistory[0]
	if first.PreviousStatus != "" || first.NewStatus != StatusPending {
		t.Fatalf("unexpected initial history entry: %+v", first)
	}
	if quote.UpdatedAt.Before(quote.CreatedAt) {
		t.Fatalf("updatedAt before createdAt")
	}
}

func TestCreateWithoutFeaturesSuppressesEstimate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	quote, err := svc.Create(context.Background(), CreateRequest{
		ClientName:  "Ana García",
		ClientEmail: "ana@example.com",
		ServiceType: "ECOMMERCE",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if quote.EstimatedPrice != nil {
		t.Fatalf("expected no estimated price, got %d", *quote.EstimatedPrice)
	}
}

func TestCreateSendsAlertAndConfirmation(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)

	_, err := svc.Create(context.Background(), CreateRequest{
		ClientName:  "Ana García",
		ClientEmail: "ana@example.com",
		ServiceType: "LANDING_PAGE",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	notifier.waitSignal(t)
	notifier.waitSignal(t)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.alerts != 1 || notifier.confirmations != 1 {
		t.Fatalf("expected 1 alert and 1 confirmation, got %d/%d", notifier.alerts, notifier.confirmations)
	}
}

func TestUpdateStatusAppendsHistoryAndNotifiesOnce(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	seedQuote(repo, "q1", StatusPending, testClock.Add(-time.Hour))

	updated, err := svc.UpdateStatus(context.Background(), "q1", StatusQuoted, "admin", "enviada propuesta")
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != StatusQuoted || updated.PreviousStatus != StatusPending {
		t.Fatalf("unexpected projection: %+v", updated)
	}

	stored, _ := repo.GetByID(context.Background(), "q1")
	if len(stored.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(stored.StatusHistory))
	}
	last := stored.StatusHistory[1]
	if last.PreviousStatus != StatusPending || last.NewStatus != StatusQuoted || last.ChangedBy != "admin" {
		t.Fatalf("unexpected history entry: %+v", last)
	}

	notifier.waitSignal(t)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.statusCalls) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifier.statusCalls))
	}
	call := notifier.statusCalls[0]
	if call.previousStatus != StatusPending || call.newStatus != StatusQuoted {
		t.Fatalf("unexpected notification: %+v", call)
	}
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)
	seedQuote(repo, "q1", StatusPending, testClock.Add(-time.Hour))

	updated, err := svc.UpdateStatus(context.Background(), "q1", StatusPending, "admin", "")
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != StatusPending || updated.PreviousStatus != StatusPending {
		t.Fatalf("unexpected projection: %+v", updated)
	}

	stored, _ := repo.GetByID(context.Background(), "q1")
	if len(stored.StatusHistory) != 1 {
		t.Fatalf("expected history untouched, got %d entries", len(stored.StatusHistory))
	}

	// No goroutine was spawned for a no-op, so the count is already final.
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.statusCalls) != 0 {
		t.Fatalf("expected 0 notifications, got %d", len(notifier.statusCalls))
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seedQuote(repo, "q1", StatusPending, testClock.Add(-time.Hour))

	if _, err := svc.UpdateStatus(context.Background(), "q1", StatusCompleted, "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateStatusRejectsTerminalExit(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seedQuote(repo, "q1", StatusCancelled, testClock.Add(-time.Hour))
	seedQuote(repo, "q2", StatusCompleted, testClock.Add(-time.Hour))

	if _, err := svc.UpdateStatus(context.Background(), "q1", StatusInReview, "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of CANCELLED, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "q2", StatusPending, "admin", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of COMPLETED, got %v", err)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seedQuote(repo, "q1", StatusPending, testClock.Add(-time.Hour))

	if _, err := svc.UpdateStatus(context.Background(), "q1", StatusQuoted, "", ""); !errors.Is(err, ErrMissingActor) {
		t.Fatalf("expected ErrMissingActor, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "q1", "ARCHIVED", "admin", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "missing", StatusQuoted, "admin", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusHistoryNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	if _, _, err := svc.StatusHistory(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendReminderEligibility(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)

	seedQuote(repo, "fresh", StatusPending, testClock.Add(-time.Hour))
	seedQuote(repo, "stale", StatusPending, testClock.Add(-49*time.Hour))
	seedQuote(repo, "quoted", StatusQuoted, testClock.Add(-49*time.Hour))

	sent, err := svc.SendReminder(context.Background(), "fresh")
	if err != nil || sent {
		t.Fatalf("expected (false, nil) for 1h-old quote, got (%v, %v)", sent, err)
	}

	sent, err = svc.SendReminder(context.Background(), "stale")
	if err != nil {
		t.Fatalf("SendReminder error: %v", err)
	}
	if !sent {
		t.Fatalf("expected reminder for 49h-old PENDING quote")
	}
	if len(repo.marked) != 1 || repo.marked[0] != "stale" {
		t.Fatalf("expected reminder bookkeeping for stale, got %v", repo.marked)
	}

	sent, err = svc.SendReminder(context.Background(), "quoted")
	if err != nil || sent {
		t.Fatalf("expected (false, nil) for non-pending quote, got (%v, %v)", sent, err)
	}

	sent, err = svc.SendReminder(context.Background(), "missing")
	if err != nil || sent {
		t.Fatalf("expected (false, nil) for missing quote, got (%v, %v)", sent, err)
	}
}

func TestSendBulkRemindersPartialFailure(t *testing.T) {
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := newTestService(repo, notifier)

	seedQuote(repo, "a", StatusPending, testClock.Add(-72*time.Hour))
	seedQuote(repo, "b", StatusPending, testClock.Add(-72*time.Hour))
	seedQuote(repo, "c", StatusPending, testClock.Add(-72*time.Hour))
	seedQuote(repo, "fresh", StatusPending, testClock.Add(-time.Hour))
	notifier.failReminders["b"] = true

	report, err := svc.SendBulkReminders(context.Background())
	if err != nil {
		t.Fatalf("SendBulkReminders error: %v", err)
	}
	if report.Eligible != 3 {
		t.Fatalf("expected 3 eligible, got %d", report.Eligible)
	}
	if report.Sent != 2 || report.Failed != 1 {
		t.Fatalf("expected sent=2 failed=1, got %+v", report)
	}
}

func TestTrackHidesInternalNotes(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	quote := seedQuote(repo, "q1", StatusInReview, testClock.Add(-time.Hour))
	quote.Notes = []Note{
		{Author: "admin", Text: "margen ajustado", IsInternal: true, CreatedAt: testClock},
		{Author: "admin", Text: "propuesta en camino", IsInternal: false, CreatedAt: testClock},
	}

	view, err := svc.Track(context.Background(), quote.AccessToken)
	if err != nil {
		t.Fatalf("Track error: %v", err)
	}
	if len(view.Notes) != 1 {
		t.Fatalf("expected 1 public note, got %d", len(view.Notes))
	}
	if view.Notes[0].Text != "propuesta en camino" {
		t.Fatalf("unexpected note leaked: %+v", view.Notes)
	}
	if view.QuoteNumber != quote.QuoteNumber {
		t.Fatalf("expected quote number %s, got %s", quote.QuoteNumber, view.QuoteNumber)
	}
}

func TestTrackErrors(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	if _, err := svc.Track(context.Background(), "short"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.Track(context.Background(), GenerateAccessToken()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestAddNoteRequiresAuthor(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seedQuote(repo, "q1", StatusPending, testClock.Add(-time.Hour))

	if _, err := svc.AddNote(context.Background(), "q1", NoteRequest{Text: "hola"}, ""); !errors.Is(err, ErrMissingActor) {
		t.Fatalf("expected ErrMissingActor, got %v", err)
	}

	quote, err := svc.AddNote(context.Background(), "q1", NoteRequest{Text: "hola", IsInternal: true}, "admin")
	if err != nil {
		t.Fatalf("AddNote error: %v", err)
	}
	if len(quote.Notes) != 1 || !quote.Notes[0].IsInternal {
		t.Fatalf("unexpected notes: %+v", quote.Notes)
	}
}
