package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

// Enricher pulls live web facts for a POI. Both operations are best-effort:
// individual aspect queries that fail are logged and skipped, and callers
// never block the ranking path on them.
type Enricher interface {
	EnrichPOI(ctx context.Context, name, address, category string) (*types.EnrichmentFacts, error)
	RefreshPOI(ctx context.Context, p *types.POI) (*types.RefreshedFields, error)
}

var _ Enricher = (*TavilyEnricher)(nil)

// TavilyEnricher fans aspect queries out over the Tavily search API.
type TavilyEnricher struct {
	client *TavilyClient
	logger *slog.Logger
	now    func() time.Time
}

func NewTavilyEnricher(client *TavilyClient, logger *slog.Logger) *TavilyEnricher {
	return &TavilyEnricher{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// aspect slots, in query order.
const (
	aspectHolidayHours = iota
	aspectSpecialEvents
	aspectRecentNews
	aspectSocialBuzz
	aspectAvailability
	aspectRecognition
	aspectCount
)

// EnrichPOI gathers last-minute facts: holiday hours, special menus, recent
// news, social buzz, availability, and recognition. Queries run concurrently;
// each failure is logged and its slot left empty.
func (e *TavilyEnricher) EnrichPOI(ctx context.Context, name, address, category string) (*types.EnrichmentFacts, error) {
	ctx, span := otel.Tracer("TavilyEnricher").Start(ctx, "EnrichPOI")
	defer span.End()
	span.SetAttributes(attribute.String("poi.name", name))

	if name == "" {
		span.SetStatus(codes.Error, "missing poi name")
		return nil, fmt.Errorf("%w: poi name is required", types.ErrInvalidInput)
	}

	now := e.now()
	holiday := upcomingHoliday(now)
	queries := aspectQueries(name, address, holiday, now)

	answers := make([]string, aspectCount)
	citations := make([][]types.Citation, aspectCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for idx, query := range queries {
		g.Go(func() error {
			resp, err := e.client.Search(gctx, query, true)
			if err != nil {
				e.logger.WarnContext(gctx, "enrichment aspect query failed",
					slog.Int("aspect", idx),
					slog.String("poi", name),
					slog.Any("error", err),
				)
				return nil
			}
			answers[idx] = resp.Answer
			for i, result := range resp.Results {
				if i >= 2 {
					break
				}
				citations[idx] = append(citations[idx], types.Citation{
					URL:    result.URL,
					Title:  result.Title,
					Source: hostOf(result.URL),
				})
			}
			return nil
		})
	}
	// Goroutines only return nil; Wait still propagates context cancellation.
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment cancelled")
		return nil, fmt.Errorf("%w: %w", types.ErrEnrichmentFailed, err)
	}

	facts := &types.EnrichmentFacts{
		POIName:             name,
		EnrichedAt:          now,
		HolidayHours:        answers[aspectHolidayHours],
		SpecialEvents:       answers[aspectSpecialEvents],
		RecentNews:          answers[aspectRecentNews],
		SocialBuzz:          answers[aspectSocialBuzz],
		CurrentAvailability: answers[aspectAvailability],
		LatestRecognition:   answers[aspectRecognition],
	}
	for _, cs := range citations {
		facts.Citations = append(facts.Citations, cs...)
	}

	span.SetStatus(codes.Ok, "poi enriched")
	return facts, nil
}

// RefreshPOI re-derives the refreshable fields of a stored POI: contact,
// hours, and social handles, plus a full facts pass. Existing contact values
// are kept when the web yields nothing better.
func (e *TavilyEnricher) RefreshPOI(ctx context.Context, p *types.POI) (*types.RefreshedFields, error) {
	ctx, span := otel.Tracer("TavilyEnricher").Start(ctx, "RefreshPOI")
	defer span.End()
	span.SetAttributes(attribute.String("poi.name", p.Name))

	facts, err := e.EnrichPOI(ctx, p.Name, p.Address.Street, p.Category)
	if err != nil {
		return nil, err
	}

	street := p.Address.Street
	queries := map[string]string{
		"contact": fmt.Sprintf("%s %s NYC phone number website contact", p.Name, street),
		"hours":   fmt.Sprintf("%s %s NYC hours of operation current schedule", p.Name, street),
		"social":  fmt.Sprintf("%s NYC Instagram Twitter Facebook social media handles", p.Name),
	}

	now := e.now()
	upd := &types.RefreshedFields{
		Contact: types.Contact{Phone: p.Contact.Phone, Website: p.Contact.Website},
		Facts:   facts,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for field, query := range queries {
		g.Go(func() error {
			resp, err := e.client.Search(gctx, query, false)
			if err != nil {
				e.logger.WarnContext(gctx, "refresh field query failed",
					slog.String("field", field),
					slog.String("poi", p.Name),
					slog.Any("error", err),
				)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			switch field {
			case "contact":
				upd.Contact.Info = resp.Answer
			case "hours":
				upd.Hours = types.Hours{Summary: resp.Answer, LastUpdated: &now}
			case "social":
				upd.Social = types.Social{Info: resp.Answer, LastUpdated: &now}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh cancelled")
		return nil, fmt.Errorf("%w: %w", types.ErrEnrichmentFailed, err)
	}

	span.SetStatus(codes.Ok, "poi refreshed")
	return upd, nil
}

func aspectQueries(name, address, holiday string, now time.Time) []string {
	return []string{
		fmt.Sprintf("%s %s NYC hours %s Thanksgiving Christmas New Years holiday special", name, address, holiday),
		fmt.Sprintf("%s NYC %s menu special prix fixe tasting menu seasonal", name, holiday),
		fmt.Sprintf("%s NYC %d news chef change menu update reopening renovation", name, now.Year()),
		fmt.Sprintf("%s NYC Instagram latest posts trending dishes must try %s", name, now.Format("January 2006")),
		fmt.Sprintf("%s NYC reservations OpenTable Resy availability %s", name, holiday),
		fmt.Sprintf("%s NYC Michelin %d awards James Beard New York Times review latest", name, now.Year()),
	}
}

// upcomingHoliday names the next notable holiday so aspect queries surface
// holiday hours and prix fixe menus ahead of time.
func upcomingHoliday(date time.Time) string {
	month, day := date.Month(), date.Day()
	switch {
	case month == time.November && day >= 20 && day <= 28:
		return "Thanksgiving"
	case month == time.December || (month == time.January && day <= 2):
		return "Christmas New Years Eve"
	case month == time.February && day <= 14:
		return "Valentine's Day"
	case month == time.May:
		return "Mother's Day"
	case month == time.June:
		return "Father's Day"
	default:
		return ""
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
