package rules

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultDisplayName(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{email: "alice@example.com", want: "alice"},
		{email: "  bob@x.io ", want: "bob"},
		{email: "@nolocal.io", want: "user"},
		{email: "plain", want: "plain"},
		{email: strings.Repeat("a", 80) + "@x.io", want: strings.Repeat("a", 64)},
	}

	for _, tc := range cases {
		if got := DefaultDisplayName(tc.email); got != tc.want {
			t.Fatalf("DefaultDisplayName(%q): got %q want %q", tc.email, got, tc.want)
		}
	}
}

func TestValidateAgeBounds(t *testing.T) {
	for _, age := range []int{17, 121, 0, -1} {
		if err := ValidateAge(age); !errors.Is(err, ErrAge) {
			t.Fatalf("age %d should be rejected, got %v", age, err)
		}
	}
	for _, age := range []int{18, 30, 120} {
		if err := ValidateAge(age); err != nil {
			t.Fatalf("age %d should be accepted, got %v", age, err)
		}
	}
}

func TestNormalizeBio(t *testing.T) {
	bio, err := NormalizeBio("   ")
	if err != nil || bio != nil {
		t.Fatalf("blank bio should clear the field, got %v, %v", bio, err)
	}

	bio, err = NormalizeBio("  hi there ")
	if err != nil || bio == nil || *bio != "hi there" {
		t.Fatalf("unexpected bio: %v, %v", bio, err)
	}

	if _, err := NormalizeBio(strings.Repeat("x", MaxBioLen+1)); !errors.Is(err, ErrBio) {
		t.Fatalf("long bio should be rejected, got %v", err)
	}
}

func TestNormalizeInterestsDedupesAndTrims(t *testing.T) {
	got, err := NormalizeInterests([]string{" Hiking", "hiking", "", "Coffee ", "coffee", "Art"})
	if err != nil {
		t.Fatalf("normalize interests: %v", err)
	}
	want := []string{"Hiking", "Coffee", "Art"}
	if len(got) != len(want) {
		t.Fatalf("unexpected interests: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected interest at %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizeInterestsRejectsTooMany(t *testing.T) {
	items := make([]string, 0, MaxInterests+1)
	for i := 0; i <= MaxInterests; i++ {
		items = append(items, strings.Repeat("x", i+1))
	}
	if _, err := NormalizeInterests(items); !errors.Is(err, ErrInterests) {
		t.Fatalf("expected ErrInterests, got %v", err)
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	if _, err := NormalizeDisplayName("   "); !errors.Is(err, ErrDisplayName) {
		t.Fatalf("blank name should be rejected, got %v", err)
	}
	name, err := NormalizeDisplayName("  Diana ")
	if err != nil || name != "Diana" {
		t.Fatalf("unexpected name: %q, %v", name, err)
	}
}
