package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

const PaymentStatusCompleted = "completed"

// DefaultImageURL is used when a booked item carries no image.
const DefaultImageURL = "https://images.unsplash.com/photo-1551434678-e076c223a692?ixlib=rb-1.2.1&auto=format&fit=crop&w=400&q=80"

type Booking struct {
	ID            string        `json:"_id"`
	CheckoutID    string        `json:"checkoutId,omitempty"`
	UserID        string        `json:"userId"`
	VendorID      string        `json:"vendorId"`
	VendorName    string        `json:"vendorName,omitempty"`
	ServiceName   string        `json:"serviceName"`
	Category      string        `json:"category,omitempty"`
	ImageURL      string        `json:"imageUrl"`
	Slot          string        `json:"slot,omitempty"`
	Status        BookingStatus `json:"status"`
	PaymentStatus string        `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

func CanTransitionTo(from, to BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor lists the states that may move to target.
func SourcesFor(target BookingStatus) []BookingStatus {
	var from []BookingStatus
	for _, s := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled} {
		if CanTransitionTo(s, target) {
			from = append(from, s)
		}
	}
	return from
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled
}

func (s BookingStatus) String() string {
	return string(s)
}
