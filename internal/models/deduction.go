package models

import "time"

// ProcessedDeduction — запись о применённом списании. Наличие записи —
// единственное доказательство того, что списание уже учтено.
type ProcessedDeduction struct {
	DeductionID string    `json:"deductionId"`
	UserID      string    `json:"userId"`
	ProcessedAt time.Time `json:"processedAt"`
}

// DeductionRequest — элемент пакета списаний от клиента.
type DeductionRequest struct {
	DeductionID string `json:"deductionId" validate:"required"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// SyncDeductionsRequest — тело запроса синхронизации списаний.
type SyncDeductionsRequest struct {
	UserID     string             `json:"userId" validate:"required"`
	Deductions []DeductionRequest `json:"deductions" validate:"required,min=1,dive"`
}

// DeductionIDs возвращает идентификаторы списаний в порядке запроса.
func (r SyncDeductionsRequest) DeductionIDs() []string {
	ids := make([]string, 0, len(r.Deductions))
	for _, d := range r.Deductions {
		ids = append(ids, d.DeductionID)
	}
	return ids
}
