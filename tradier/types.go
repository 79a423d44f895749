package tradier

import (
	"bytes"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/xhhuango/json"
)

type Day struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Days decodes the history "day" field, which the API sends as an object
// when there is exactly one bar and as null when there are none.
type Days []Day

func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = nil
		return nil
	case len(data) > 0 && data[0] == '{':
		var one Day
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*d = Days{one}
		return nil
	}
	var many []Day
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*d = many
	return nil
}

type QuoteHistory struct {
	History *struct {
		Day Days `json:"day"`
	} `json:"history"`
}

func (q *QuoteHistory) Days() Days {
	if q == nil || q.History == nil {
		return nil
	}
	return q.History.Day
}

// Bars converts the history into OHLC bars in date order.
func (q *QuoteHistory) Bars() []models.Bar {
	days := q.Days()
	bars := make([]models.Bar, len(days))
	for i, d := range days {
		bars[i] = models.Bar{
			Date:  d.Date,
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
		}
	}
	return bars
}

// LastClose returns the most recent close, or false for an empty history.
func (q *QuoteHistory) LastClose() (float64, bool) {
	days := q.Days()
	if len(days) == 0 {
		return 0, false
	}
	return days[len(days)-1].Close, true
}

type apiError struct {
	Fault struct {
		FaultString string `json:"faultstring"`
	} `json:"fault"`
}
