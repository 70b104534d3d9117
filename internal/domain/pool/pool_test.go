package pool

import (
	"errors"
	"testing"
	"time"
)

func TestCreateRequest_Validate(t *testing.T) {
	valid := CreateRequest{
		Title:       "  Rice 50kg  ",
		Description: "Bulk rice",
		Amount:      100,
		ClosingDate: "2030-01-02",
		Location:    "Lagos",
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateRequest)
		wantErr error
	}{
		{name: "valid", mutate: func(r *CreateRequest) {}},
		{name: "blank title", mutate: func(r *CreateRequest) { r.Title = "   " }, wantErr: ErrMissingFields},
		{name: "missing description", mutate: func(r *CreateRequest) { r.Description = "" }, wantErr: ErrMissingFields},
		{name: "zero amount", mutate: func(r *CreateRequest) { r.Amount = 0 }, wantErr: ErrMissingFields},
		{name: "negative amount", mutate: func(r *CreateRequest) { r.Amount = -3 }, wantErr: ErrMissingFields},
		{name: "missing location", mutate: func(r *CreateRequest) { r.Location = "" }, wantErr: ErrMissingFields},
		{name: "missing closing date", mutate: func(r *CreateRequest) { r.ClosingDate = "" }, wantErr: ErrMissingFields},
		{name: "garbage closing date", mutate: func(r *CreateRequest) { r.ClosingDate = "soon" }, wantErr: ErrMissingFields},
		{name: "rfc3339 closing date", mutate: func(r *CreateRequest) { r.ClosingDate = "2030-01-02T10:00:00Z" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			d, err := req.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got err %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Title != "Rice 50kg" {
				t.Fatalf("title not trimmed: %q", d.Title)
			}
		})
	}
}

func TestNew_StartsOpenUnnumberedWithNoMembers(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	p := New(Draft{Title: "t", Description: "d", Amount: 1, Location: "l"}, "acc-1", now)

	if p.Status != StatusOpen {
		t.Fatalf("status = %q", p.Status)
	}
	if p.PoolNumber != nil {
		t.Fatalf("new pool must be unnumbered until the service assigns one")
	}
	if p.Members == nil || len(p.Members) != 0 {
		t.Fatalf("members should be an empty, non-nil slice")
	}
	if p.Creator != "acc-1" || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected pool %+v", p)
	}
}

func TestHasMember(t *testing.T) {
	p := Pool{Members: []string{"a", "b"}}
	if !p.HasMember("b") || p.HasMember("c") {
		t.Fatalf("HasMember mismatch for %v", p.Members)
	}
}
