// file: internals/features/finance/payments/model/gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GatewayProvider string

const GatewayProviderMidtrans GatewayProvider = "midtrans"

type GatewayEventStatus string

const (
	GatewayEventReceived  GatewayEventStatus = "received"
	GatewayEventProcessed GatewayEventStatus = "processed"
	GatewayEventIgnored   GatewayEventStatus = "ignored"
	GatewayEventFailed    GatewayEventStatus = "failed"
)

/*
  payment_gateway_events = LOG NOTIFIKASI PAYMENT GATEWAY
  - Bisa banyak row per 1 order (tiap notif)
  - Installment/fee diisi kalau order_id bisa dipetakan
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventFeeID         *uuid.UUID `gorm:"column:gateway_event_fee_id;type:uuid;index" json:"gateway_event_fee_id,omitempty"`
	GatewayEventInstallmentID *uuid.UUID `gorm:"column:gateway_event_installment_id;type:uuid;index" json:"gateway_event_installment_id,omitempty"`

	GatewayEventProvider    GatewayProvider `gorm:"column:gateway_event_provider;type:varchar(20);not null" json:"gateway_event_provider"`
	GatewayEventType        *string         `gorm:"column:gateway_event_type;type:varchar(40)" json:"gateway_event_type,omitempty"`
	GatewayEventExternalID  *string         `gorm:"column:gateway_event_external_id;type:varchar(120);index" json:"gateway_event_external_id,omitempty"`
	GatewayEventExternalRef *string         `gorm:"column:gateway_event_external_ref;type:varchar(120)" json:"gateway_event_external_ref,omitempty"`

	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature;type:text" json:"-"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error;type:text" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}

func (m *PaymentGatewayEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	if m.GatewayEventStatus == "" {
		m.GatewayEventStatus = GatewayEventReceived
	}
	if m.GatewayEventReceivedAt.IsZero() {
		m.GatewayEventReceivedAt = time.Now()
	}
	return nil
}
