package booking

const (
	hoursPerDay  = 24
	hoursPerWeek = 7 * hoursPerDay
)

// Rates are the tool's listed prices per unit. Day and week rates are optional.
type Rates struct {
	PerHour Money
	PerDay  *Money
	PerWeek *Money
}

type PriceCalculator interface {
	QuoteRentalPrice(rates Rates, durationHours int) (Money, error)
}

type DefaultPriceCalculator struct{}

func NewDefaultPriceCalculator() *DefaultPriceCalculator {
	return &DefaultPriceCalculator{}
}

// QuoteRentalPrice prices whole weeks, whole days and leftover hours, taking the
// cheaper of each coarser rate and the finer rate it replaces.
func (DefaultPriceCalculator) QuoteRentalPrice(rates Rates, durationHours int) (Money, error) {
	daily, err := rates.PerHour.Times(hoursPerDay)
	if err != nil {
		return Money{}, err
	}
	if rates.PerDay != nil {
		daily = minMoney(daily, *rates.PerDay)
	}
	weekly, err := daily.Times(7)
	if err != nil {
		return Money{}, err
	}
	if rates.PerWeek != nil {
		weekly = minMoney(weekly, *rates.PerWeek)
	}

	weeks, rem := durationHours/hoursPerWeek, durationHours%hoursPerWeek
	days, hours := rem/hoursPerDay, rem%hoursPerDay

	hoursCost, err := rates.PerHour.Times(hours)
	if err != nil {
		return Money{}, err
	}
	hoursCost = minMoney(hoursCost, daily)

	daysCost, err := daily.Times(days)
	if err != nil {
		return Money{}, err
	}
	remCost, err := daysCost.Add(hoursCost)
	if err != nil {
		return Money{}, err
	}
	remCost = minMoney(remCost, weekly)

	weeksCost, err := weekly.Times(weeks)
	if err != nil {
		return Money{}, err
	}
	return weeksCost.Add(remCost)
}

func minMoney(a, b Money) Money {
	if b.minor < a.minor {
		return b
	}
	return a
}

// CalculateTotal is the only way a booking total is derived. A total that does
// not fit in int64 is ErrInvalidAmount.
func CalculateTotal(rentalPrice Money, quantity int, deposit Money) (Money, error) {
	rental, err := rentalPrice.Times(quantity)
	if err != nil {
		return Money{}, err
	}
	return rental.Add(deposit)
}
