// internal/domain/reference.go
package domain

import "fmt"

// ReferenceType names the kind of record a Reference points at.
type ReferenceType string

const (
	ReferenceFlightBooking       ReferenceType = "flight_booking"
	ReferenceHotelBooking        ReferenceType = "hotel_booking"
	ReferenceVisaRequest         ReferenceType = "visa_request"
	ReferenceInsurancePolicy     ReferenceType = "insurance_policy"
	ReferenceTranslationOrder    ReferenceType = "translation_order"
	ReferenceCVOrder             ReferenceType = "cv_order"
	ReferenceGatewayPayment      ReferenceType = "gateway_payment"
	ReferenceQuote               ReferenceType = "quote"
	ReferenceApplication         ReferenceType = "service_application"
	ReferenceApplicationRefund   ReferenceType = "application_refund"
	ReferenceTransactionReversal ReferenceType = "transaction_reversal"
	ReferenceManualAdjustment    ReferenceType = "manual_adjustment"
)

// Reference is a loose pointer to a record owned by another module.
// It is not enforced by a foreign key; the pair is expected to be unique per logical charge.
type Reference struct {
	Type ReferenceType `db:"reference_type" json:"reference_type"`
	ID   string        `db:"reference_id" json:"reference_id"`
}

// NewReference builds a Reference.
func NewReference(refType ReferenceType, id string) Reference {
	return Reference{Type: refType, ID: id}
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

func (r Reference) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// SourceRecord identifies the booking record that caused a service application,
// together with the user who owns it.
type SourceRecord struct {
	Reference Reference
	OwnerID   string
}
