package sessions

import "time"

// Record is the session-level rollup of raw events: one row per session id.
// Aggregation is order-independent over a session's events except for
// FirstEventTime/LastEventTime, which are min/max.
type Record struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"uniqueIndex;not null"`
	UserPseudoID   string
	Country        string `gorm:"index"`
	DeviceCategory string
	TrafficSource  string
	TrafficMedium  string

	PageViews      int
	FAQClicks      int
	GalleryClicks  int
	SiteSearches   int
	ScrollEvents   int
	ProductsViewed int

	HasCartAdd   bool
	HasFormStart bool
	HasPurchase  bool

	EngagementSeconds int

	FirstEventTime time.Time `gorm:"index;not null"`
	LastEventTime  time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

// Diagnostics counts data-quality issues encountered while aggregating.
// These are recovered locally and surfaced alongside results, never fatal.
type Diagnostics struct {
	RejectedEvents     int
	DeduplicatedEvents int
}
