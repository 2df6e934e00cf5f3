package entity

// View names a derived, cacheable read model. Mutations declare which views they
// make stale.
type View string

const (
	ViewCatalog      View = "catalog"
	ViewBookings     View = "bookings"
	ViewAvailability View = "availability"
	ViewUsage        View = "usage"
	ViewStats        View = "stats"
	ViewHelp         View = "help"
)
