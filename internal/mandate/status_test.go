package mandate

import (
	"testing"

	db "github.com/spontis/backend-spontis/internal/db/gen"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to db.MandatStatus
		want     bool
	}{
		{db.MandatStatusOPEN, db.MandatStatusACCEPTED, true},
		{db.MandatStatusOPEN, db.MandatStatusSUSPENDED, true},
		{db.MandatStatusOPEN, db.MandatStatusCANCELLED, true},
		{db.MandatStatusOPEN, db.MandatStatusDELIVERED, false},
		{db.MandatStatusACCEPTED, db.MandatStatusINTRANSIT, true},
		{db.MandatStatusACCEPTED, db.MandatStatusOPEN, false},
		{db.MandatStatusINTRANSIT, db.MandatStatusDELIVERED, true},
		{db.MandatStatusINTRANSIT, db.MandatStatusCANCELLED, false},
		{db.MandatStatusSUSPENDED, db.MandatStatusOPEN, true},
		{db.MandatStatusSUSPENDED, db.MandatStatusCANCELLED, true},
		{db.MandatStatusDELIVERED, db.MandatStatusOPEN, false},
		{db.MandatStatusCANCELLED, db.MandatStatusOPEN, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatusRoundtrip(t *testing.T) {
	for _, status := range []string{"open", "accepted", "in_transit", "delivered", "suspended", "cancelled"} {
		parsed, ok := ParseStatus(status)
		if !ok {
			t.Fatalf("ParseStatus(%q) not ok", status)
		}
		if got := StatusString(parsed); got != status {
			t.Errorf("StatusString(ParseStatus(%q)) = %q", status, got)
		}
	}
	if _, ok := ParseStatus("archived"); ok {
		t.Error("ParseStatus accepted unknown status")
	}
}
