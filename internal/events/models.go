package events

import "time"

// Tracked event names from the web-analytics export. The export is an
// enum-like string column; anything else is carried through untouched and
// simply never matches a counter.
const (
	EventPageView      = "page_view"
	EventSessionStart  = "session_start"
	EventFAQClick      = "faq_interaction"
	EventGalleryClick  = "photo_gallery_click"
	EventSiteSearch    = "search"
	EventViewItem      = "view_item"
	EventAddToCart     = "add_to_cart"
	EventViewCart      = "view_cart"
	EventFormStart     = "form_start"
	EventBeginCheckout = "begin_checkout"
	EventPurchase      = "purchase"
	EventScroll        = "scroll"
)

// UnknownCountry is used when the export carries no country for an event.
const UnknownCountry = "unknown"

// Event is one raw analytics event as exported from the web-analytics
// platform. Rows are immutable once ingested.
type Event struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	SessionID      string    `gorm:"index:idx_session_timestamp;not null"`
	UserPseudoID   string    `gorm:"index"`
	Name           string    `gorm:"index;not null"`
	Country        string    `gorm:"index"`
	DeviceCategory string    `gorm:"index"`
	TrafficSource  string
	TrafficMedium  string
	ParamsJSON     string    `gorm:"type:text"`
	Timestamp      time.Time `gorm:"index:idx_session_timestamp;not null"`
	CreatedAt      time.Time
}

// IngestResult reports the outcome of one export-file ingestion run.
// Malformed rows are skipped and counted, never fatal.
type IngestResult struct {
	Inserted     int
	Rejected     int
	Deduplicated int
}
