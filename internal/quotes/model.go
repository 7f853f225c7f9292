package quotes

import (
	"time"

	"hexagono-backend/internal/pricing"
)

const (
	StatusPending   = "PENDING"
	StatusInReview  = "IN_REVIEW"
	StatusQuoted    = "QUOTED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

var validStatuses = map[string]struct{}{
	StatusPending:   {},
	StatusInReview:  {},
	StatusQuoted:    {},
	StatusCompleted: {},
	StatusCancelled: {},
}

var validPriorities = map[string]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// allowedTransitions is the enforced lifecycle graph. COMPLETED and CANCELLED
// are terminal. A same-status write is not a transition; callers treat it as
// a no-op.
var allowedTransitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusInReview:  {},
		StatusQuoted:    {},
		StatusCancelled: {},
	},
	StatusInReview: {
		StatusQuoted:    {},
		StatusCancelled: {},
	},
	StatusQuoted: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

func IsValidStatus(value string) bool {
	_, ok := validStatuses[value]
	return ok
}

func IsValidPriority(value string) bool {
	_, ok := validPriorities[value]
	return ok
}

func IsTerminalStatus(value string) bool {
	return value == StatusCompleted || value == StatusCancelled
}

func CanTransition(from, to string) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

type StatusHistoryEntry struct {
	PreviousStatus string    `bson:"previous_status,omitempty" json:"previousStatus,omitempty"`
	NewStatus      string    `bson:"new_status" json:"newStatus"`
	ChangedBy      string    `bson:"changed_by" json:"changedBy"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

type Note struct {
	Author     string    `bson:"author" json:"author"`
	Text       string    `bson:"text" json:"text"`
	IsInternal bool      `bson:"is_internal" json:"isInternal"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

type Quote struct {
	ID          string `bson:"_id,omitempty" json:"id"`
	QuoteNumber string `bson:"quote_number" json:"quoteNumber"`
	AccessToken string `bson:"access_token" json:"-"`

	ClientName    string `bson:"client_name" json:"clientName"`
	ClientEmail   string `bson:"client_email" json:"clientEmail"`
	ClientPhone   string `bson:"client_phone,omitempty" json:"clientPhone,omitempty"`
	ClientCompany string `bson:"client_company,omitempty" json:"clientCompany,omitempty"`

	ServiceType        string                `bson:"service_type" json:"serviceType"`
	Timeline           string                `bson:"timeline,omitempty" json:"timeline,omitempty"`
	BudgetRange        string                `bson:"budget_range,omitempty" json:"budgetRange,omitempty"`
	Description        string                `bson:"description,omitempty" json:"description,omitempty"`
	Features           []pricing.FeatureLine `bson:"features" json:"features"`
	CustomRequirements string                `bson:"custom_requirements,omitempty" json:"customRequirements,omitempty"`

	EstimatedPrice *int64 `bson:"estimated_price,omitempty" json:"estimatedPrice,omitempty"`
	Status         string `bson:"status" json:"status"`
	Priority       string `bson:"priority" json:"priority"`
	AssignedTo     string `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`

	StatusHistory []StatusHistoryEntry `bson:"status_history" json:"statusHistory"`
	Notes         []Note               `bson:"quote_notes" json:"notes"`

	LastReminderAt *time.Time `bson:"last_reminder_at,omitempty" json:"lastReminderAt,omitempty"`
	ReminderCount  int        `bson:"reminder_count" json:"reminderCount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type CreateRequest struct {
	ClientName    string `json:"clientName" validate:"required,max=120"`
	ClientEmail   string `json:"clientEmail" validate:"required,email"`
	ClientPhone   string `json:"clientPhone" validate:"omitempty,phone"`
	ClientCompany string `json:"clientCompany" validate:"omitempty,max=120"`

	ServiceType        string   `json:"serviceType" validate:"required,oneof=LANDING_PAGE CORPORATE_WEB ECOMMERCE SOCIAL_MEDIA"`
	Timeline           string   `json:"timeline" validate:"omitempty,max=120"`
	BudgetRange        string   `json:"budgetRange" validate:"omitempty,max=120"`
	Description        string   `json:"description" validate:"omitempty,max=4000"`
	Features           []string `json:"features"`
	CustomRequirements string   `json:"customRequirements" validate:"omitempty,max=2000"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING IN_REVIEW QUOTED COMPLETED CANCELLED"`
	Notes  string `json:"notes" validate:"omitempty,max=2000"`
}

type NoteRequest struct {
	Text       string `json:"text" validate:"required,max=4000"`
	IsInternal bool   `json:"isInternal"`
}

type AdminUpdateRequest struct {
	Priority   string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssignedTo string `json:"assignedTo" validate:"omitempty,max=120"`
}

type ListFilter struct {
	Status      string
	ServiceType string
	Priority    string
}

// UpdatedQuote is the projection returned by a status update.
type UpdatedQuote struct {
	ID             string    `json:"id"`
	QuoteNumber    string    `json:"quoteNumber"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TrackingView is the public projection behind the access token. It never
// carries the quote id, client contact data, or internal notes.
type TrackingView struct {
	QuoteNumber    string                `json:"quoteNumber"`
	Status         string                `json:"status"`
	ServiceType    string                `json:"serviceType"`
	Features       []pricing.FeatureLine `json:"features"`
	EstimatedPrice *int64                `json:"estimatedPrice,omitempty"`
	Currency       string                `json:"currency"`
	Notes          []Note                `json:"notes"`
	StatusHistory  []TrackingHistory     `json:"statusHistory"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

type TrackingHistory struct {
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
