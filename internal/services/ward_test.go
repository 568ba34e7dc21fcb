package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

func TestWardServiceGetByNumber(t *testing.T) {
	repo := &fakeWardRepo{wards: []*types.Ward{
		{ID: uuid.New(), WardNumber: 3, Name: "Ward 3"},
	}}
	svc := NewWardService(nil, testLogger(t), repo)

	if got, err := svc.GetByNumber(context.Background(), 3); err != nil || got == nil || got.Name != "Ward 3" {
		t.Fatalf("GetByNumber: got=%+v err=%v", got, err)
	}
	if _, err := svc.GetByNumber(context.Background(), 42); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("GetByNumber missing: err=%v, want NOT_FOUND", err)
	}
}

func TestWardServiceUpsertValidation(t *testing.T) {
	svc := NewWardService(nil, testLogger(t), &fakeWardRepo{})

	if _, err := svc.Upsert(viewerContext(), WardInput{WardNumber: 1, Name: "W"}); !apperr.IsCode(err, apperr.CodeUnauthorized) {
		t.Fatalf("viewer upsert: err=%v, want UNAUTHORIZED", err)
	}

	ctx := adminContext()
	cases := []struct {
		name string
		in   WardInput
	}{
		{"ward zero", WardInput{WardNumber: 0, Name: "W"}},
		{"blank name", WardInput{WardNumber: 1, Name: "  "}},
		{"negative area", WardInput{WardNumber: 1, Name: "W", AreaSqKm: -1}},
		{"bad geometry", WardInput{WardNumber: 1, Name: "W", Geometry: [][][]float64{{{84, 28}}}}},
	}
	for _, tc := range cases {
		if _, err := svc.Upsert(ctx, tc.in); !apperr.IsCode(err, apperr.CodeBadRequest) {
			t.Fatalf("%s: err=%v, want BAD_REQUEST", tc.name, err)
		}
	}
}
