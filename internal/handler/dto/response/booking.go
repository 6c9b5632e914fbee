package response

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID            uuid.UUID `json:"id"`
	ResourceID    uuid.UUID `json:"resourceId"`
	RequesterID   uuid.UUID `json:"requesterId"`
	RequesterName string    `json:"requesterName"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Nights        int       `json:"nights"`
	TotalPrice    int64     `json:"totalPrice"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateBookingResponse struct {
	Booking    BookingResponse `json:"booking"`
	TotalPrice int64           `json:"totalPrice"`
}

type BookingEnvelope struct {
	Booking BookingResponse `json:"booking"`
}

type QuoteResponse struct {
	TotalPrice int64  `json:"totalPrice"`
	Nights     int    `json:"nights"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type DayResponse struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type AvailabilityResponse struct {
	ResourceID uuid.UUID     `json:"resourceId"`
	Today      string        `json:"today"`
	Days       []DayResponse `json:"days"`
}

type ResourceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	WeekdayRate int64     `json:"weekdayRate"`
	WeekendRate int64     `json:"weekendRate"`
	FlatRate    int64     `json:"flatRate"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// dateOption renders time.Time fields as calendar dates when the target
// field is a string; time-to-time fields are copied unchanged.
var dateOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: time.Time{},
			DstType: copier.String,
			Fn: func(src any) (any, error) {
				t, _ := src.(time.Time)
				return booking.FormatDate(t), nil
			},
		},
	},
}

func mustCopy(to, from any) {
	if err := copier.CopyWithOption(to, from, dateOption); err != nil {
		// Only reachable when the DTO shapes drift apart.
		panic(err)
	}
}

func FromBookingView(v *queries.BookingView) BookingResponse {
	var res BookingResponse
	mustCopy(&res, v)
	return res
}

func FromBookingViews(views []queries.BookingView) []BookingResponse {
	res := make([]BookingResponse, len(views))
	for i := range views {
		res[i] = FromBookingView(&views[i])
	}
	return res
}

func FromQuoteView(v *queries.QuoteView) QuoteResponse {
	var res QuoteResponse
	mustCopy(&res, v)
	return res
}

func FromAvailabilityView(v *queries.AvailabilityView) AvailabilityResponse {
	res := AvailabilityResponse{
		ResourceID: v.ResourceID,
		Today:      booking.FormatDate(v.Today),
		Days:       make([]DayResponse, len(v.Days)),
	}
	for i, d := range v.Days {
		res.Days[i] = DayResponse{Date: booking.FormatDate(d.Date), Status: d.Status}
	}
	return res
}

func FromResourceView(v *queries.ResourceView) ResourceResponse {
	var res ResourceResponse
	mustCopy(&res, v)
	return res
}
