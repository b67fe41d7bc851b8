package model

import (
	"errors"
	"testing"
)

func TestParseState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want State
	}{
		{"Active", StateActive},
		{" sold ", StateSold},
		{"REFERRED", StateReferred},
		{"Cancelled", StateCanceled},
		{"canceled", StateCanceled},
		{"Closed", StateClosed},
		{"", StateUnknown},
		{"Pending", StateUnknown},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := ParseState(tc.in); got != tc.want {
				t.Fatalf("ParseState(%q) got %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestState_String_roundTrips(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateUnknown, StateActive, StateSold, StateReferred, StateCanceled, StateClosed} {
		if got := ParseState(s.String()); got != s {
			t.Fatalf("ParseState(%q) got %v, want %v", s.String(), got, s)
		}
	}
	if got := State(99).String(); got != "Unknown" {
		t.Fatalf("State(99).String() got %q, want %q", got, "Unknown")
	}
}

func TestState_Bucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  Bucket
	}{
		{StateActive, BucketActive},
		{StateSold, BucketSold},
		{StateReferred, BucketReferred},
		{StateCanceled, BucketReferred},
		{StateClosed, BucketReferred},
		{StateUnknown, BucketNone},
	}
	for _, tc := range tests {
		tc := tc
		if got := tc.state.Bucket(); got != tc.want {
			t.Fatalf("%v.Bucket() got %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestParseBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Bucket
		wantErr bool
	}{
		{"", BucketAll, false},
		{"all", BucketAll, false},
		{"Active", BucketActive, false},
		{" sold", BucketSold, false},
		{"referred", BucketReferred, false},
		{"archive", BucketNone, true},
	}
	for _, tc := range tests {
		tc := tc
		got, err := ParseBucket(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidBucket) {
				t.Fatalf("ParseBucket(%q) error got %v, want %v", tc.in, err, ErrInvalidBucket)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseBucket(%q) unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseBucket(%q) got %q, want %q", tc.in, got, tc.want)
		}
	}
}
