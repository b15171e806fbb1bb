package dto

// AddDeductionRequest appends a manual line to a settlement's ledger.
type AddDeductionRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=withholding_one_percent advance other"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description,omitempty"`
}

// AdjustmentRequest sets the settlement's manual adjustment. Signed;
// zero clears it.
type AdjustmentRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// PeriodStatusRequest transitions a period's settlement state.
type PeriodStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open liquidated paid"`
}

// RecomputeResponse reports how many settlements a batch run touched.
type RecomputeResponse struct {
	Period      string `json:"period"`
	Settlements int    `json:"settlements"`
}
