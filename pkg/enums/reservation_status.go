package enums

import "fmt"

// ReservationStatus tracks the lifecycle of an inventory reservation.
// PENDING and ACTIVE count as open; FULFILLED and CANCELLED are terminal and
// never reopened.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusFulfilled ReservationStatus = "FULFILLED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusActive,
	ReservationStatusFulfilled,
	ReservationStatusCancelled,
}

// OpenReservationStatuses lists the states eligible for fulfill/release sweeps.
var OpenReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusActive,
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsOpen reports whether the reservation still holds stock.
func (r ReservationStatus) IsOpen() bool {
	return r == ReservationStatusPending || r == ReservationStatusActive
}

// IsTerminal reports whether the reservation reached a final state.
func (r ReservationStatus) IsTerminal() bool {
	return r == ReservationStatusFulfilled || r == ReservationStatusCancelled
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
