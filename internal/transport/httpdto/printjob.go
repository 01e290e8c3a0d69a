package httpdto

type EnqueuePrintRequest struct {
	GuestID     string `json:"guest_id"`
	Source      string `json:"source"`
	RequestedBy string `json:"requested_by"`
}

type PrintLockRequest struct {
	GuestID string `json:"guest_id"`
	Holder  string `json:"holder"`
}
