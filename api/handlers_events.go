package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"eventdesk/data/models"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// date accepts either a plain calendar date or an RFC 3339 timestamp.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("dates must be strings in %s format", dateLayout)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, expected %s", s, dateLayout)
}

type createEventRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	StartDate   date                  `json:"startDate"`
	EndDate     date                  `json:"endDate"`
	Location    string                `json:"location"`
	Sessions    []models.SessionInput `json:"sessions"`
}

type updateEventRequest struct {
	Name      string `json:"name"`
	StartDate date   `json:"startDate"`
	EndDate   date   `json:"endDate"`
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

// ownedEvent loads the event named by the :id parameter and checks that the
// caller organizes it. It writes the error response itself and returns false
// when the request cannot continue.
func (app *application) ownedEvent(c *gin.Context) (models.Event, bool) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return models.Event{}, false
	}
	return app.checkEventOwner(c, id)
}

func (app *application) checkEventOwner(c *gin.Context, eventID int64) (models.Event, bool) {
	e, err := app.Repo.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		app.errorResponse(c, err)
		return models.Event{}, false
	}
	if e.OrganizerID != currentUser(c).UserID {
		app.abortWithError(c, http.StatusForbidden, errForbidden)
		return models.Event{}, false
	}
	return e, true
}

// listEvents supports ?when=upcoming|past|all plus the field filters, sortBy,
// limit and offset of the event listing.
func (app *application) listEvents(c *gin.Context) {
	filter, err := models.ParseEventFilter(c.Query("when"))
	if err != nil {
		app.badRequest(c, err)
		return
	}

	params := make(map[string]string)
	for key, vals := range c.Request.URL.Query() {
		if key == "when" || len(vals) == 0 {
			continue
		}
		params[key] = vals[0]
	}

	events, err := app.Repo.ListAllEvents(c.Request.Context(), filter, params)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, events, "events")
}

func (app *application) getEvent(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return
	}

	e, err := app.Repo.GetEvent(c.Request.Context(), id)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	sessions, err := app.Repo.ListSessions(c.Request.Context(), id)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, gin.H{"event": e, "sessions": sessions})
}

func (app *application) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := app.ReadJSON(c.Writer, c.Request, &req, false); err != nil {
		app.badRequest(c, err)
		return
	}

	in := models.EventInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.Time,
		Location:    req.Location,
		OrganizerID: currentUser(c).UserID,
	}
	id, err := app.Repo.CreateEvent(c.Request.Context(), in, req.Sessions)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusCreated, gin.H{"eventID": id})
}

func (app *application) updateEvent(c *gin.Context) {
	e, ok := app.ownedEvent(c)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := app.ReadJSON(c.Writer, c.Request, &req, false); err != nil {
		app.badRequest(c, err)
		return
	}

	upd := models.EventUpdate{Name: req.Name, StartDate: req.StartDate.Time, EndDate: req.EndDate.Time}
	if err := app.Repo.UpdateEvent(c.Request.Context(), e.ID, upd); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) deleteEvent(c *gin.Context) {
	e, ok := app.ownedEvent(c)
	if !ok {
		return
	}

	if err := app.Repo.DeleteEvent(c.Request.Context(), e.ID); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) listSessions(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return
	}
	if _, err := app.Repo.GetEvent(c.Request.Context(), id); err != nil {
		app.errorResponse(c, err)
		return
	}

	sessions, err := app.Repo.ListSessions(c.Request.Context(), id)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, sessions, "sessions")
}

func (app *application) addSession(c *gin.Context) {
	e, ok := app.ownedEvent(c)
	if !ok {
		return
	}

	var in models.SessionInput
	if err := app.ReadJSON(c.Writer, c.Request, &in, false); err != nil {
		app.badRequest(c, err)
		return
	}

	id, err := app.Repo.AddSession(c.Request.Context(), e.ID, in)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusCreated, gin.H{"sessionID": id})
}

// ownedSession loads the session named by :id and checks that the caller
// organizes its event.
func (app *application) ownedSession(c *gin.Context) (models.Session, bool) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return models.Session{}, false
	}

	s, err := app.Repo.GetSession(c.Request.Context(), id)
	if err != nil {
		app.errorResponse(c, err)
		return models.Session{}, false
	}
	if _, ok := app.checkEventOwner(c, s.EventID); !ok {
		return models.Session{}, false
	}
	return s, true
}

func (app *application) updateSession(c *gin.Context) {
	s, ok := app.ownedSession(c)
	if !ok {
		return
	}

	var in models.SessionInput
	if err := app.ReadJSON(c.Writer, c.Request, &in, false); err != nil {
		app.badRequest(c, err)
		return
	}

	if err := app.Repo.UpdateSession(c.Request.Context(), s.ID, in); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) deleteSession(c *gin.Context) {
	s, ok := app.ownedSession(c)
	if !ok {
		return
	}

	if err := app.Repo.DeleteSession(c.Request.Context(), s.ID); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) listRegistrations(c *gin.Context) {
	e, ok := app.ownedEvent(c)
	if !ok {
		return
	}

	regs, err := app.Repo.ListRegistrationsForEvent(c.Request.Context(), e.ID)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, regs, "registrations")
}

func (app *application) registerForEvent(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return
	}

	regID, err := app.Repo.RegisterForEvent(c.Request.Context(), currentUser(c).UserID, id)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusCreated, gin.H{"registrationID": regID})
}

func (app *application) cancelRegistration(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return
	}

	if err := app.Repo.CancelRegistration(c.Request.Context(), currentUser(c).UserID, id); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) myEvents(c *gin.Context) {
	events, err := app.Repo.ListEventsByOrganizer(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, events, "events")
}

func (app *application) myRegistrations(c *gin.Context) {
	events, err := app.Repo.ListRegisteredEvents(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, events, "events")
}
