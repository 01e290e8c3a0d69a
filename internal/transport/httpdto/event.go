package httpdto

type CreateEventRequest struct {
	Name     string `json:"name"`
	Venue    string `json:"venue"`
	StartsAt string `json:"starts_at"`
}

type EventStatsResponse struct {
	EventID            string `json:"event_id"`
	TotalGuests        int    `json:"total_guests"`
	CheckedInGuests    int    `json:"checked_in_guests"`
	Remaining          int    `json:"remaining"`
	AttendeesTotal     int    `json:"attendees_total"`
	AttendeesCheckedIn int    `json:"attendees_checked_in"`
}
