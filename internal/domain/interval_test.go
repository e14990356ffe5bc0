package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseInterval_Valid(t *testing.T) {
	n, err := ParseInterval("45", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 45 {
		t.Fatalf("want 45, got %d", n)
	}
}

func TestParseInterval_BelowMinimum(t *testing.T) {
	if _, err := ParseInterval("10", 30); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("want ErrInvalidInterval, got %v", err)
	}
}

func TestParseInterval_AtMinimum(t *testing.T) {
	n, err := ParseInterval("30", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 30 {
		t.Fatalf("want 30, got %d", n)
	}
}

func TestParseInterval_NotANumber(t *testing.T) {
	for _, in := range []string{"", "abc", "1h", "30.5"} {
		if _, err := ParseInterval(in, 30); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("input %q: want ErrInvalidInterval, got %v", in, err)
		}
	}
}

func TestDaysUntilExpiry(t *testing.T) {
	now := time.Date(2026, time.August, 30, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		expiry time.Time
		want   int
	}{
		{time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC), 1},
		{time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC), 2},
		{time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC), -2},
	}
	for _, c := range cases {
		exp := c.expiry
		a := &Account{TokenExpiry: &exp}
		got, ok := a.DaysUntilExpiry(now)
		if !ok {
			t.Fatalf("expiry %v: want ok", c.expiry)
		}
		if got != c.want {
			t.Fatalf("expiry %v: want %d days, got %d", c.expiry, c.want, got)
		}
	}
}

func TestDaysUntilExpiry_Unset(t *testing.T) {
	a := &Account{}
	if _, ok := a.DaysUntilExpiry(time.Now()); ok {
		t.Fatal("want ok=false for unset expiry")
	}
}

func TestHasCredentials(t *testing.T) {
	if (&Account{PageID: "1"}).HasCredentials() {
		t.Fatal("token missing, want false")
	}
	if (&Account{AccessToken: "tok"}).HasCredentials() {
		t.Fatal("page missing, want false")
	}
	if !(&Account{PageID: "1", AccessToken: "tok"}).HasCredentials() {
		t.Fatal("want true")
	}
}
