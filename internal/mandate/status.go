package mandate

import (
	db "github.com/spontis/backend-spontis/internal/db/gen"
)

// allowedTransitions encodes the mandate lifecycle. Accepting an open mandate
// is the carrier's move; in_transit and delivered follow in order. Admins can
// suspend anything not yet delivered and cancel anything not yet in transit.
var allowedTransitions = map[db.MandatStatus][]db.MandatStatus{
	db.MandatStatusOPEN:      {db.MandatStatusACCEPTED, db.MandatStatusSUSPENDED, db.MandatStatusCANCELLED},
	db.MandatStatusACCEPTED:  {db.MandatStatusINTRANSIT, db.MandatStatusSUSPENDED, db.MandatStatusCANCELLED},
	db.MandatStatusINTRANSIT: {db.MandatStatusDELIVERED, db.MandatStatusSUSPENDED},
	db.MandatStatusSUSPENDED: {db.MandatStatusOPEN, db.MandatStatusCANCELLED},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to db.MandatStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus maps an API status string onto the database enum.
func ParseStatus(value string) (db.MandatStatus, bool) {
	switch value {
	case "open":
		return db.MandatStatusOPEN, true
	case "accepted":
		return db.MandatStatusACCEPTED, true
	case "in_transit":
		return db.MandatStatusINTRANSIT, true
	case "delivered":
		return db.MandatStatusDELIVERED, true
	case "suspended":
		return db.MandatStatusSUSPENDED, true
	case "cancelled":
		return db.MandatStatusCANCELLED, true
	}
	return "", false
}

// StatusString maps the database enum onto the API status string.
func StatusString(status db.MandatStatus) string {
	switch status {
	case db.MandatStatusOPEN:
		return "open"
	case db.MandatStatusACCEPTED:
		return "accepted"
	case db.MandatStatusINTRANSIT:
		return "in_transit"
	case db.MandatStatusDELIVERED:
		return "delivered"
	case db.MandatStatusSUSPENDED:
		return "suspended"
	case db.MandatStatusCANCELLED:
		return "cancelled"
	}
	return string(status)
}
