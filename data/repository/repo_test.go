//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"eventdesk/data/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t testing.TB, role string) int64 {
	t.Helper()
	id, err := testRepo.RegisterUser(context.Background(), models.UserInput{
		Name:     gofakeit.Name(),
		Email:    fmt.Sprintf("user%s@example.com", gofakeit.DigitN(10)),
		Username: gofakeit.Username() + gofakeit.DigitN(6),
		Password: gofakeit.Password(true, true, true, false, false, 12),
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Could not seed user: %s", err)
	}
	return id
}

func seedEvent(t testing.TB, organizerID int64, start time.Time, sessions ...models.SessionInput) int64 {
	t.Helper()
	id, err := testRepo.CreateEvent(context.Background(), models.EventInput{
		Name:        gofakeit.LoremIpsumSentence(4),
		Description: gofakeit.LoremIpsumSentence(15),
		StartDate:   start,
		EndDate:     start.Add(24 * time.Hour),
		Location:    gofakeit.City(),
		OrganizerID: organizerID,
	}, sessions)
	if err != nil {
		t.Fatalf("Could not seed event: %s", err)
	}
	return id
}

func TestDBRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("event with sessions is created atomically", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")

		id := seedEvent(t, organizer, time.Now().AddDate(0, 0, 7),
			models.SessionInput{Title: "Keynote", StartTime: "09:00", EndTime: "10:00", SpeakerName: "Ana"},
			models.SessionInput{Title: "Panel", StartTime: "10:30", EndTime: "11:30"},
			models.SessionInput{Title: "Lunch", StartTime: "12:00", EndTime: "13:00"},
		)

		assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM "Event" WHERE "eventID" = $1`, id))
		sessions, err := testRepo.ListSessions(ctx, id)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		assert.Equal(t, "09:00", sessions[0].StartTime)
		assert.Equal(t, "Ana", sessions[0].SpeakerName)

		notes, err := testRepo.ListNotifications(ctx, organizer, models.ReadAll, models.NotificationOrganizer)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0].Message, "Event: ")
		assert.NotContains(t, notes[0].Message, "event ID")
	})

	t.Run("bad session time leaves no rows", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")

		_, err := testRepo.CreateEvent(ctx, models.EventInput{
			Name: "Broken", Description: "x", Location: "y", OrganizerID: organizer,
			StartDate: time.Now(), EndDate: time.Now(),
		}, []models.SessionInput{
			{Title: "Ok", StartTime: "09:00", EndTime: "10:00"},
			{Title: "Bad", StartTime: "nine", EndTime: "10:00"},
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Event"`))
		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Session"`))
	})

	t.Run("deleting an event removes only its rows", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")
		attendees := []int64{seedUser(t, "attendee"), seedUser(t, "attendee")}
		session := models.SessionInput{Title: "Talk", StartTime: "09:00", EndTime: "10:00"}

		doomed := seedEvent(t, organizer, time.Now().AddDate(0, 0, 3), session, session)
		kept := seedEvent(t, organizer, time.Now().AddDate(0, 0, 4), session)
		for _, a := range attendees {
			_, err := testRepo.RegisterForEvent(ctx, a, doomed)
			require.NoError(t, err)
		}
		_, err := testRepo.RegisterForEvent(ctx, attendees[0], kept)
		require.NoError(t, err)

		require.NoError(t, testRepo.DeleteEvent(ctx, doomed))

		for _, table := range []string{"Registration", "Session", "Event"} {
			assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "`+table+`" WHERE "eventID" = $1`, doomed), table)
			assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM "`+table+`" WHERE "eventID" = $1`, kept), table)
		}
		assert.ErrorIs(t, testRepo.DeleteEvent(ctx, doomed), ErrNotFound)
	})

	t.Run("organizer and attendee views", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")
		other := seedUser(t, "organizer")
		attendee := seedUser(t, "attendee")

		later := seedEvent(t, organizer, time.Now().AddDate(0, 0, 9))
		sooner := seedEvent(t, organizer, time.Now().AddDate(0, 0, 2))
		foreign := seedEvent(t, other, time.Now().AddDate(0, 0, 5))

		own, err := testRepo.ListEventsByOrganizer(ctx, organizer)
		require.NoError(t, err)
		require.Len(t, own, 2)
		assert.Equal(t, sooner, own[0].ID)
		assert.Equal(t, later, own[1].ID)

		for _, id := range []int64{foreign, sooner} {
			_, err := testRepo.RegisterForEvent(ctx, attendee, id)
			require.NoError(t, err)
		}
		joined, err := testRepo.ListRegisteredEvents(ctx, attendee)
		require.NoError(t, err)
		require.Len(t, joined, 2)
		assert.Equal(t, sooner, joined[0].ID)
		assert.Equal(t, foreign, joined[1].ID)

		regs, err := testRepo.ListRegistrationsForEvent(ctx, foreign)
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, attendee, regs[0].UserID)

		sessionID, err := testRepo.AddSession(ctx, later, models.SessionInput{Title: "Late", StartTime: "17:00", EndTime: "18:00"})
		require.NoError(t, err)
		s, err := testRepo.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "17:00", s.StartTime)
		assert.Equal(t, "", s.SpeakerName)

		unread, err := testRepo.CountUnread(ctx, attendee)
		require.NoError(t, err)
		assert.Equal(t, int64(2), unread)
	})

	t.Run("double registration", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")
		attendee := seedUser(t, "attendee")
		event := seedEvent(t, organizer, time.Now().AddDate(0, 0, 1))

		_, err := testRepo.RegisterForEvent(ctx, attendee, event)
		require.NoError(t, err)
		_, err = testRepo.RegisterForEvent(ctx, attendee, event)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)

		assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM "Registration" WHERE "userID" = $1 AND "eventID" = $2`, attendee, event))
		ok, err := testRepo.IsRegistered(ctx, attendee, event)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("cancelling a missing registration writes nothing", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")
		attendee := seedUser(t, "attendee")
		event := seedEvent(t, organizer, time.Now().AddDate(0, 0, 1))

		assert.ErrorIs(t, testRepo.CancelRegistration(ctx, attendee, event), ErrNotFound)
		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Notification" WHERE "userID" = $1`, attendee))
	})

	t.Run("read status round trip", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		u := seedUser(t, "attendee")

		id, err := testRepo.InsertNotification(ctx, models.NotificationInput{UserID: u, Title: "Hi", Message: "Hello there", Type: "event"})
		require.NoError(t, err)
		before, err := testRepo.GetNotification(ctx, id)
		require.NoError(t, err)
		assert.False(t, before.IsRead)

		require.NoError(t, testRepo.SetReadStatus(ctx, id, true))
		require.NoError(t, testRepo.SetReadStatus(ctx, id, false))

		after, err := testRepo.GetNotification(ctx, id)
		require.NoError(t, err)
		assert.False(t, after.IsRead)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
		assert.Equal(t, before.Title, after.Title)
		assert.Equal(t, before.Message, after.Message)

		require.NoError(t, testRepo.DeleteNotification(ctx, id))
		assert.ErrorIs(t, testRepo.SetReadStatus(ctx, id, true), ErrNotFound)
	})

	t.Run("clear all read touches only the user's read notifications", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		u1 := seedUser(t, "attendee")
		u2 := seedUser(t, "attendee")

		insert := func(userID int64, title string, read bool) int64 {
			id, err := testRepo.InsertNotification(ctx, models.NotificationInput{UserID: userID, Title: title, Message: title})
			require.NoError(t, err)
			if read {
				require.NoError(t, testRepo.SetReadStatus(ctx, id, true))
			}
			return id
		}
		insert(u1, "A", true)
		b := insert(u1, "B", false)
		insert(u1, "C", true)
		d := insert(u2, "D", true)

		n, err := testRepo.ClearAllRead(ctx, u1, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := testRepo.ListNotifications(ctx, u1, models.ReadAll, "")
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, b, left[0].ID)

		other, err := testRepo.GetNotification(ctx, d)
		require.NoError(t, err)
		assert.True(t, other.IsRead)
	})

	t.Run("role is normalized", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)

		id := seedUser(t, "ORGANIZER")
		u, err := testRepo.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.RoleOrganizer, u.UserType)
		assert.NotEmpty(t, u.Password)
	})

	t.Run("malformed email leaves the profile unchanged", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		id := seedUser(t, "attendee")
		before, err := testRepo.GetUser(ctx, id)
		require.NoError(t, err)

		err = testRepo.UpdateProfile(ctx, id, models.ProfileUpdate{Name: "New", Email: "not-an-email", Username: "new"})
		assert.ErrorIs(t, err, ErrValidation)

		after, err := testRepo.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("authenticate against the stored hash", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)

		_, err := testRepo.RegisterUser(ctx, models.UserInput{
			Name: "Ana", Email: "ana@example.com", Username: "ana", Password: "secret1", Role: "attendee",
		})
		require.NoError(t, err)

		res, err := testRepo.Authenticate(ctx, "ana", "secret1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAttendee, res.UserType)

		_, err = testRepo.Authenticate(ctx, "ana", "wrong-pass")
		assert.ErrorIs(t, err, ErrAuth)

		_, err = testRepo.RegisterUser(ctx, models.UserInput{
			Name: "Ana 2", Email: "ana@example.com", Username: "ana2", Password: "secret1", Role: "attendee",
		})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("deleting a user removes what they own", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		organizer := seedUser(t, "organizer")
		attendee := seedUser(t, "attendee")
		event := seedEvent(t, organizer, time.Now().AddDate(0, 0, 2),
			models.SessionInput{Title: "Talk", StartTime: "09:00", EndTime: "10:00"})
		_, err := testRepo.RegisterForEvent(ctx, attendee, event)
		require.NoError(t, err)

		require.NoError(t, testRepo.DeleteUser(ctx, organizer))

		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Event" WHERE "organizerID" = $1`, organizer))
		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Session" WHERE "eventID" = $1`, event))
		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Registration" WHERE "eventID" = $1`, event))
		assert.Equal(t, 0, countRows(t, `SELECT COUNT(*) FROM "Notification" WHERE "userID" = $1`, organizer))
		_, err = testRepo.GetUser(ctx, attendee)
		assert.NoError(t, err)
		assert.ErrorIs(t, testRepo.DeleteUser(ctx, organizer), ErrNotFound)
	})

	t.Run("Test ListAllEvents", func(t *testing.T) {
		defer handleRecover(t.Name())
		resetTables(t)
		seedDBWithEvents(t)

		var tests = []struct {
			name        string
			filter      models.EventFilter
			queryParams map[string]string
			expectedLen int
			expectedErr error
		}{
			{name: "upcoming by name", filter: models.EventsUpcoming, queryParams: map[string]string{"name": "Test Event"}, expectedLen: 2},
			{name: "past only", filter: models.EventsPast, queryParams: map[string]string{}, expectedLen: 1},
			{name: "default limit", filter: models.EventsAll, queryParams: map[string]string{}, expectedLen: 10},
			{name: "increase limit", filter: models.EventsAll, queryParams: map[string]string{"limit": "30"}, expectedLen: 19},
			{name: "contains", filter: models.EventsAll, queryParams: map[string]string{"location_contains": "manor"}, expectedLen: 1},
			{name: "invalid model field", filter: models.EventsAll, queryParams: map[string]string{"noSuchThing": "who cares?"}, expectedErr: ErrValidation},
			{name: "should be empty", filter: models.EventsAll, queryParams: map[string]string{"name": "noSuchEvent"}, expectedLen: 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				defer handleRecover(tt.name)
				events, err := testRepo.ListAllEvents(ctx, tt.filter, tt.queryParams)

				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
					return
				}
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedLen, len(events))

				if tt.name == "upcoming by name" {
					assert.Equal(t, "At the manor hotel", events[0].Description)
					assert.Equal(t, "A different event with the same name", events[1].Description)
				}
			})
		}
	})
}

func seedDBWithEvents(t *testing.T) {
	defer handleRecover("seeding DB")
	log.Println("Seeding DB")

	organizer := seedUser(t, "organizer")
	ctx := context.Background()
	today := models.TruncateToDate(time.Now())

	events := []models.EventInput{
		{Name: "Test Event", Description: "At the manor hotel", Location: "The manor", StartDate: today.AddDate(0, 0, 1), EndDate: today.AddDate(0, 0, 1)},
		{Name: "Test Event", Description: "A different event with the same name", Location: "Town hall", StartDate: today.AddDate(0, 0, 2), EndDate: today.AddDate(0, 0, 3)},
		{Name: "Test Event", Description: "Already happened", Location: "Town hall", StartDate: today.AddDate(0, 0, -5), EndDate: today.AddDate(0, 0, -4)},
		{Name: "Event", Description: "A different event with a different name", Location: "Pier", StartDate: today.AddDate(0, 0, 3), EndDate: today.AddDate(0, 0, 3)},
	}

	faker := gofakeit.New(0)
	for i := 0; i < 15; i++ {
		start := models.TruncateToDate(faker.DateRange(today.AddDate(0, 0, 10), today.AddDate(1, 0, 0)))
		events = append(events, models.EventInput{
			Name:        faker.LoremIpsumSentence(4),
			Description: faker.LoremIpsumSentence(15),
			Location:    faker.City(),
			StartDate:   start,
			EndDate:     start,
		})
	}

	for _, e := range events {
		e.OrganizerID = organizer
		if _, err := testRepo.CreateEvent(ctx, e, nil); err != nil {
			t.Fatalf("Could not seed DB: %s", err)
		}
	}
	log.Println("DB Seeded")
}
