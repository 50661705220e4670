// Package seeder generates demo analytics data for local exploration: a few
// months of sessions with realistic engagement mixes across countries,
// devices and traffic sources.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"makersight/internal/events"
)

// Seeder generates and stores demo events.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	SessionCount int
}

// NewSeeder creates a new seeder instance.
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, sessionCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		SessionCount: sessionCount,
	}
}

var countries = []string{"US", "GB", "DE", "CA", "AU", "FR", "NL"}
var devices = []string{"desktop", "mobile", "mobile", "tablet"}

var trafficMixes = []struct {
	source string
	medium string
}{
	{"google", "organic"},
	{"google", "cpc"},
	{"instagram", "social"},
	{"pinterest", "social"},
	{"(direct)", "(none)"},
	{"newsletter", "email"},
}

var searchTerms = []string{"ceramic mug", "walnut cutting board", "linen apron", "gift set", "custom engraving"}
var faqQuestions = []string{"shipping times", "care instructions", "returns", "custom orders"}
var productIDs = []string{"mug-classic", "mug-speckled", "board-walnut", "board-maple", "apron-linen", "set-kitchen"}

// journey is a weighted session shape. Weights skew the distribution toward
// low-engagement traffic the way real storefront traffic does.
type journey struct {
	weight int
	build  func(s *Seeder, sessionID string, start time.Time) []events.Event
}

var journeys = []journey{
	{weight: 35, build: (*Seeder).bounceJourney},
	{weight: 25, build: (*Seeder).browsingJourney},
	{weight: 18, build: (*Seeder).contentJourney},
	{weight: 12, build: (*Seeder).researchJourney},
	{weight: 7, build: (*Seeder).cartJourney},
	{weight: 3, build: (*Seeder).purchaseJourney},
}

// Seed writes SessionCount demo sessions spread over the last 120 days.
func (s *Seeder) Seed(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding demo sessions...", slog.Int("sessionCount", s.SessionCount))

	totalWeight := 0
	for _, j := range journeys {
		totalWeight += j.weight
	}

	var batch []*events.Event
	now := time.Now().UTC()
	for i := 0; i < s.SessionCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		sessionID := fmt.Sprintf("seed-%d", i)
		sessionStart := now.AddDate(0, 0, -rand.IntN(120)).
			Add(-time.Duration(rand.IntN(24*3600)) * time.Second)

		pick := rand.IntN(totalWeight)
		for _, j := range journeys {
			if pick < j.weight {
				for _, e := range j.build(s, sessionID, sessionStart) {
					e := e
					batch = append(batch, &e)
				}
				break
			}
			pick -= j.weight
		}
	}

	db := s.DBManager.GetConnection()
	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(batch, 200).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store seeded events: %w", err)
	}

	s.Logger.Info("Seeding completed",
		slog.Int("sessions", s.SessionCount),
		slog.Int("events", len(batch)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) baseEvent(sessionID, name string, at time.Time, params map[string]string) events.Event {
	return events.Event{
		SessionID:    sessionID,
		UserPseudoID: "seed-user-" + sessionID,
		Name:         name,
		Timestamp:    at,
		ParamsJSON:   events.EncodeParams(params),
		CreatedAt:    time.Now().UTC(),
	}
}

// attribute fills in the session-level dimensions, identical for every event
// in the session.
func attribute(evts []events.Event) []events.Event {
	country := countries[rand.IntN(len(countries))]
	device := devices[rand.IntN(len(devices))]
	mix := trafficMixes[rand.IntN(len(trafficMixes))]
	for i := range evts {
		evts[i].Country = country
		evts[i].DeviceCategory = device
		evts[i].TrafficSource = mix.source
		evts[i].TrafficMedium = mix.medium
	}
	return evts
}

func (s *Seeder) bounceJourney(sessionID string, start time.Time) []events.Event {
	return attribute([]events.Event{
		s.baseEvent(sessionID, events.EventSessionStart, start, nil),
		s.baseEvent(sessionID, events.EventPageView, start.Add(time.Second), nil),
	})
}

func (s *Seeder) browsingJourney(sessionID string, start time.Time) []events.Event {
	evts := []events.Event{
		s.baseEvent(sessionID, events.EventSessionStart, start, nil),
	}
	at := start
	for i := 0; i < 2+rand.IntN(3); i++ {
		at = at.Add(time.Duration(20+rand.IntN(60)) * time.Second)
		evts = append(evts, s.baseEvent(sessionID, events.EventPageView, at, nil))
	}
	return attribute(evts)
}

func (s *Seeder) contentJourney(sessionID string, start time.Time) []events.Event {
	evts := []events.Event{
		s.baseEvent(sessionID, events.EventSessionStart, start, nil),
		s.baseEvent(sessionID, events.EventPageView, start.Add(2*time.Second), nil),
	}
	at := start.Add(30 * time.Second)
	if rand.IntN(2) == 0 {
		evts = append(evts, s.baseEvent(sessionID, events.EventFAQClick, at, map[string]string{
			events.ParamFAQQuestion: faqQuestions[rand.IntN(len(faqQuestions))],
		}))
	} else {
		evts = append(evts, s.baseEvent(sessionID, events.EventGalleryClick, at, nil))
	}
	evts = append(evts, s.baseEvent(sessionID, events.EventScroll, at.Add(15*time.Second), nil))
	return attribute(evts)
}

func (s *Seeder) researchJourney(sessionID string, start time.Time) []events.Event {
	evts := []events.Event{
		s.baseEvent(sessionID, events.EventSessionStart, start, nil),
		s.baseEvent(sessionID, events.EventPageView, start.Add(2*time.Second), nil),
		s.baseEvent(sessionID, events.EventSiteSearch, start.Add(20*time.Second), map[string]string{
			events.ParamSearchTerm: searchTerms[rand.IntN(len(searchTerms))],
		}),
	}
	at := start.Add(40 * time.Second)
	for i := 0; i < 1+rand.IntN(3); i++ {
		at = at.Add(time.Duration(20+rand.IntN(40)) * time.Second)
		evts = append(evts, s.baseEvent(sessionID, events.EventViewItem, at, map[string]string{
			events.ParamProductID: productIDs[rand.IntN(len(productIDs))],
		}))
	}
	return attribute(evts)
}

func (s *Seeder) cartJourney(sessionID string, start time.Time) []events.Event {
	product := productIDs[rand.IntN(len(productIDs))]
	return attribute([]events.Event{
		s.baseEvent(sessionID, events.EventSessionStart, start, nil),
		s.baseEvent(sessionID, events.EventPageView, start.Add(2*time.Second), nil),
		s.baseEvent(sessionID, events.EventViewItem, start.Add(30*time.Second), map[string]string{
			events.ParamProductID: product,
		}),
		s.baseEvent(sessionID, events.EventAddToCart, start.Add(75*time.Second), map[string]string{
			events.ParamProductID: product,
		}),
		s.baseEvent(sessionID, events.EventViewCart, start.Add(90*time.Second), nil),
	})
}

func (s *Seeder) purchaseJourney(sessionID string, start time.Time) []events.Event {
	evts := s.cartJourney(sessionID, start)
	evts = append(evts,
		s.baseEvent(sessionID, events.EventBeginCheckout, start.Add(2*time.Minute), nil),
		s.baseEvent(sessionID, events.EventPurchase, start.Add(4*time.Minute), nil),
	)
	// cartJourney already attributed its events; reuse its dimensions
	for i := len(evts) - 2; i < len(evts); i++ {
		evts[i].Country = evts[0].Country
		evts[i].DeviceCategory = evts[0].DeviceCategory
		evts[i].TrafficSource = evts[0].TrafficSource
		evts[i].TrafficMedium = evts[0].TrafficMedium
	}
	return evts
}
