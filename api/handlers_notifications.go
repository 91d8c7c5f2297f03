package main

import (
	"errors"
	"net/http"

	"eventdesk/data/models"

	"github.com/gin-gonic/gin"
)

type readStatusRequest struct {
	IsRead *bool `json:"isRead"`
}

func (app *application) listNotifications(c *gin.Context) {
	filter, err := models.ParseReadFilter(c.Query("filter"))
	if err != nil {
		app.badRequest(c, err)
		return
	}

	list, err := app.Repo.ListNotifications(c.Request.Context(), currentUser(c).UserID, filter, c.Query("type"))
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, list, "notifications")
}

func (app *application) unreadCount(c *gin.Context) {
	n, err := app.Repo.CountUnread(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, gin.H{"unread": n})
}

// ownedNotification loads the notification named by :id. Other users'
// notifications are reported as missing.
func (app *application) ownedNotification(c *gin.Context) (models.Notification, bool) {
	id, err := idParam(c)
	if err != nil {
		app.badRequest(c, err)
		return models.Notification{}, false
	}

	n, err := app.Repo.GetNotification(c.Request.Context(), id)
	if err != nil {
		app.errorResponse(c, err)
		return models.Notification{}, false
	}
	if n.UserID != currentUser(c).UserID {
		app.abortWithError(c, http.StatusNotFound, errors.New("notification not found"))
		return models.Notification{}, false
	}
	return n, true
}

func (app *application) setReadStatus(c *gin.Context) {
	n, ok := app.ownedNotification(c)
	if !ok {
		return
	}

	var req readStatusRequest
	if err := app.ReadJSON(c.Writer, c.Request, &req, false); err != nil {
		app.badRequest(c, err)
		return
	}
	if req.IsRead == nil {
		app.badRequest(c, errors.New("isRead is required"))
		return
	}

	if err := app.Repo.SetReadStatus(c.Request.Context(), n.ID, *req.IsRead); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) deleteNotification(c *gin.Context) {
	n, ok := app.ownedNotification(c)
	if !ok {
		return
	}

	if err := app.Repo.DeleteNotification(c.Request.Context(), n.ID); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) clearRead(c *gin.Context) {
	n, err := app.Repo.ClearAllRead(c.Request.Context(), currentUser(c).UserID, c.Query("type"))
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, gin.H{"deleted": n})
}
