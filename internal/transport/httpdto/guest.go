package httpdto

type CreateGuestRequest struct {
	EventID       string `json:"event_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ExtraAdults   int    `json:"extra_adults"`
	ExtraChildren int    `json:"extra_children"`
}

type UpdateGuestRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	EventID       *string `json:"event_id"`
	ExtraAdults   *int    `json:"extra_adults"`
	ExtraChildren *int    `json:"extra_children"`
}

type CheckInRequest struct {
	VerifiedBy   string `json:"verified_by"`
	Source       string `json:"source"`
	EnqueuePrint bool   `json:"enqueue_print"`
}
