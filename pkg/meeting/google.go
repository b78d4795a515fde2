package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNoMeetingLink is returned when the calendar event carries no video entry point.
var ErrNoMeetingLink = errors.New("calendar event has no meeting link")

// Request describes the single calendar event created for a booking.
type Request struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	// AccessToken overrides the provider's default credentials, typically the
	// booking parent's own Google token.
	AccessToken string
}

// GoogleMeetProvider creates Google Calendar events with a Meet conference.
type GoogleMeetProvider struct {
	calendarID   string
	defaultToken string
	timeout      time.Duration
	options      []option.ClientOption
}

// NewGoogleMeetProvider builds a provider. Extra client options are appended
// after the token source, so tests can redirect the endpoint.
func NewGoogleMeetProvider(calendarID, defaultToken string, timeout time.Duration, opts ...option.ClientOption) *GoogleMeetProvider {
	if calendarID == "" {
		calendarID = "primary"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleMeetProvider{calendarID: calendarID, defaultToken: defaultToken, timeout: timeout, options: opts}
}

// CreateMeetingLink inserts the event and returns its Meet URL.
func (p *GoogleMeetProvider) CreateMeetingLink(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token := req.AccessToken
	if token == "" {
		token = p.defaultToken
	}
	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))}
	opts = append(opts, p.options...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("init calendar client: %w", err)
	}

	event := &calendar.Event{
		Summary:     req.Title,
		Description: req.Description,
		Start:       &calendar.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.Start.Location().String()},
		End:         &calendar.EventDateTime{DateTime: req.End.Format(time.RFC3339), TimeZone: req.End.Location().String()},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	for _, email := range req.Attendees {
		if email != "" {
			event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
		}
	}

	created, err := svc.Events.Insert(p.calendarID, event).ConferenceDataVersion(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return meetLink(created)
}

func meetLink(event *calendar.Event) (string, error) {
	if event.HangoutLink != "" {
		return event.HangoutLink, nil
	}
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri, nil
			}
		}
	}
	return "", ErrNoMeetingLink
}

// Disabled hands out no link; bookings proceed without a meeting URL.
type Disabled struct{}

func (Disabled) CreateMeetingLink(context.Context, Request) (string, error) {
	return "", nil
}
