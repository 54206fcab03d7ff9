package request

import (
	"strings"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ToolID        uuid.UUID `json:"toolId" binding:"required"`
	StartTime     time.Time `json:"startTime" binding:"required"`
	EndTime       time.Time `json:"endTime" binding:"required"`
	Quantity      int       `json:"quantity" binding:"required,min=1"`
	RentalPrice   *string   `json:"rentalPrice,omitempty"`
	DepositAmount *string   `json:"depositAmount,omitempty"`
	PaymentMethod string    `json:"paymentMethod" binding:"required,oneof=gateway pay_on_return"`
	Notes         *string   `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

// ToInput converts decimal amounts to minor units.
func (r *CreateBookingRequest) ToInput() (commands.CreateBookingInput, error) {
	in := commands.CreateBookingInput{
		ToolID:        r.ToolID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Quantity:      r.Quantity,
		PaymentMethod: r.PaymentMethod,
	}
	if r.Notes != nil {
		in.Notes = strings.TrimSpace(*r.Notes)
	}

	var err error
	if in.RentalPrice, err = parseAmount(r.RentalPrice); err != nil {
		return commands.CreateBookingInput{}, errs.Wrap(err, "rentalPrice")
	}
	if in.DepositAmount, err = parseAmount(r.DepositAmount); err != nil {
		return commands.CreateBookingInput{}, errs.Wrap(err, "depositAmount")
	}
	return in, nil
}

func parseAmount(s *string) (*int64, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	m, err := booking.ParseMoney(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	minor := m.Minor()
	return &minor, nil
}
