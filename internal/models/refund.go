package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefundStatus string

const (
	RefundPendingReview RefundStatus = "PENDING_REVIEW"
	RefundApproved      RefundStatus = "APPROVED"
	RefundRejected      RefundStatus = "REJECTED"
	RefundCompleted     RefundStatus = "COMPLETED"
)

type RefundReason string

const (
	ReasonScheduleConflict RefundReason = "schedule_conflict"
	ReasonCannotAttend     RefundReason = "cannot_attend"
	ReasonBoughtWrong      RefundReason = "bought_wrong"
	ReasonOther            RefundReason = "other"
)

func (r RefundReason) Valid() bool {
	switch r {
	case ReasonScheduleConflict, ReasonCannotAttend, ReasonBoughtWrong, ReasonOther:
		return true
	}
	return false
}

// Refund records one refund request. A rejected request keeps its row,
// so an order may accumulate several over time; at most one of them is
// ever non-rejected. Amount + Fee always equals the order total.
type Refund struct {
	gorm.Model
	ID          uuid.UUID    `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Reason      RefundReason `gorm:"type:varchar(20);not null"`
	Note        string       `gorm:"size:500"`
	Fee         int          `gorm:"not null"`
	Amount      int          `gorm:"not null"`
	Status      RefundStatus `gorm:"type:varchar(20);not null"`
	RequestedAt time.Time    `gorm:"not null"`
}

func (refund *Refund) BeforeCreate(tx *gorm.DB) (err error) {
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	return
}
