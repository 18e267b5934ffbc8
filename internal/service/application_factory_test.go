// internal/service/application_factory_test.go
package service

import (
	"context"
	"testing"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/notify"
	"marketplace-core/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachServiceApplication(t *testing.T) {
	ctx := context.Background()

	t.Run("SnapshotsPayload", func(t *testing.T) {
		h := newHarness(t)
		traveller := map[string]any{"name": "Ada"}
		payload := domain.Payload{"amount": "250.50", "traveller": traveller}
		source := domain.SourceRecord{Reference: domain.NewReference(domain.ReferenceFlightBooking, "fl-7"), OwnerID: "owner-1"}

		app, err := h.factory.AttachServiceApplication(ctx, source, "flight_booking", payload)
		require.NoError(t, err)
		traveller["name"] = "Grace"
		payload["amount"] = "1"

		assert.Equal(t, domain.ApplicationStatusPending, app.Status)
		assert.NotNil(t, app.SubmittedAt)
		assert.Positive(t, app.Number)
		assert.Equal(t, source.Reference, app.Reference)
		require.True(t, app.Amount.Valid)
		assert.True(t, app.Amount.Decimal.Equal(decimalOf("250.50")))

		stored, err := h.workflow.Get(ctx, app.ID, ownerActor)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Ada"}, stored.Payload["traveller"])
		assert.Equal(t, "250.50", stored.Payload["amount"])
		assert.Contains(t, h.events.types(), notify.EventApplicationCreated)

		_, err = h.wallets.GetWallet(ctx, "owner-1")
		assert.ErrorIs(t, err, util.ErrWalletNotFound, "attaching never touches the wallet")
	})

	t.Run("NumbersIncrease", func(t *testing.T) {
		h := newHarness(t)
		first := h.attach(t, "owner-1", nil)
		second := h.attach(t, "owner-2", nil)
		assert.Equal(t, first.Number+1, second.Number)
		assert.Equal(t, "APP-000001", first.DisplayNumber())
	})

	invalid := []struct {
		name    string
		source  domain.SourceRecord
		key     string
		payload domain.Payload
	}{
		{"MissingOwner", domain.SourceRecord{Reference: domain.NewReference(domain.ReferenceVisaRequest, "v")}, "visa", nil},
		{"MissingReference", domain.SourceRecord{OwnerID: "owner-1"}, "visa", nil},
		{"BadKey", domain.SourceRecord{Reference: domain.NewReference(domain.ReferenceVisaRequest, "v"), OwnerID: "owner-1"}, "Visa!", nil},
		{"NegativeAmount", domain.SourceRecord{Reference: domain.NewReference(domain.ReferenceVisaRequest, "v"), OwnerID: "owner-1"}, "visa", domain.Payload{"amount": -5}},
		{"MalformedAmount", domain.SourceRecord{Reference: domain.NewReference(domain.ReferenceVisaRequest, "v"), OwnerID: "owner-1"}, "visa", domain.Payload{"amount": "ten"}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.factory.AttachServiceApplication(ctx, tc.source, tc.key, tc.payload)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}
}
