package response

import (
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID            uuid.UUID  `json:"id"`
	RenterID      uuid.UUID  `json:"renterId"`
	RenterEmail   string     `json:"renterEmail"`
	ToolID        uuid.UUID  `json:"toolId"`
	ToolName      string     `json:"toolName"`
	ShopID        uuid.UUID  `json:"shopId"`
	ShopName      string     `json:"shopName"`
	Quantity      int        `json:"quantity"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	DurationHours int        `json:"durationHours"`
	RentalPrice   string     `json:"rentalPrice" copier:"-"`
	DepositAmount string     `json:"depositAmount" copier:"-"`
	TotalAmount   string     `json:"totalAmount" copier:"-"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus"`
	PaymentMethod string     `json:"paymentMethod"`
	OrderRef      *string    `json:"orderRef,omitempty"`
	PaymentRef    *string    `json:"paymentRef,omitempty"`
	PickupTime    *time.Time `json:"pickupTime,omitempty"`
	ReturnTime    *time.Time `json:"returnTime,omitempty"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var res BookingResponse
	if err := copier.Copy(&res, v); err != nil {
		return nil, err
	}
	res.RentalPrice = formatMinor(v.RentalPrice)
	res.DepositAmount = formatMinor(v.DepositAmount)
	res.TotalAmount = formatMinor(v.TotalAmount)
	return &res, nil
}

func FromBookingList(views []*queries.BookingView) ([]*BookingResponse, error) {
	res := make([]*BookingResponse, len(views))
	for i, v := range views {
		r, err := FromBookingView(v)
		if err != nil {
			return nil, err
		}
		res[i] = r
	}
	return res, nil
}

func formatMinor(minor int64) string {
	m, err := booking.NewMoney(minor)
	if err != nil {
		return "0.00"
	}
	return m.String()
}
