package model

// Event represents a ticketed occasion listed on the marketplace.  The
// displayed market price is a rolling average over the most recent sale
// prices; PriceWindow holds those prices in write order and never grows
// beyond five entries.  Events are created by the platform's catalogue
// tooling and are never deleted by this service.
//
// Fields:
//  ID              – opaque event identifier.
//  Name            – human readable event name.
//  AveragePrice    – arithmetic mean of PriceWindow.
//  PreviousAverage – AveragePrice as it was before the latest update.
//  PriceWindow     – up to five most recent ticket prices, oldest first.
type Event struct {
	ID              string    // events.id
	Name            string    // events.name
	AveragePrice    float64   // events.average_price
	PreviousAverage float64   // events.previous_average
	PriceWindow     []float64 // events.price_window (JSON array)
}
