package handler

import (
	"net/http"

	"github.com/emersoneims/generator-oracle/internal/license"
	"github.com/emersoneims/generator-oracle/internal/model"
)

// PurchaseHandler serves the purchase-overlay payload shown when the
// device is unlicensed.
type PurchaseHandler struct {
	svc *license.Service
}

func NewPurchaseHandler(svc *license.Service) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

type purchasePayload struct {
	PriceKES     int            `json:"price_kes"`
	PeriodYears  int            `json:"period_years"`
	Tier         string         `json:"tier"`
	Features     []string       `json:"features"`
	Payment      paymentDetails `json:"payment"`
	PendingKey   string         `json:"pending_key,omitempty"`
	PendingSince string         `json:"pending_since,omitempty"`
}

type paymentDetails struct {
	MpesaPaybill string `json:"mpesa_paybill"`
	MpesaAccount string `json:"mpesa_account"`
	BankName     string `json:"bank_name"`
	BankAccount  string `json:"bank_account"`
	SupportPhone string `json:"support_phone"`
	SupportEmail string `json:"support_email"`
}

// Get handles GET /api/purchase. When a pending activation exists the
// payload includes it so the overlay shows the waiting-for-verification
// view instead of the buy screen.
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	payload := purchasePayload{
		PriceKES:    license.PriceKES,
		PeriodYears: license.PeriodYears,
		Tier:        license.TierPro,
		Features: []string{
			"Unlimited fault code diagnosis",
			"All controller brands: DeepSea, ComAp, PowerWizard, InteliLite",
			"Offline operation after activation",
			"Diagnosis history and export",
			"One year of updates",
		},
		Payment: paymentDetails{
			MpesaPaybill: "522533",
			MpesaAccount: "EIMS-ORACLE",
			BankName:     "Equity Bank",
			BankAccount:  "0123456789012",
			SupportPhone: "+254 712 345 678",
			SupportEmail: "support@emersoneims.co.ke",
		},
	}

	status := h.svc.Status()
	if status.License != nil && status.License.Status == model.StatusPending {
		payload.PendingKey = status.License.Key
		payload.PendingSince = status.License.ActivatedAt.Format("2006-01-02")
	}

	writeJSON(w, http.StatusOK, payload)
}
