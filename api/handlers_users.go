package main

import (
	"errors"
	"net/http"
	"time"

	"eventdesk/data/models"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    int64     `json:"userID"`
	UserType  string    `json:"userType"`
}

type passwordChangeRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (app *application) registerUser(c *gin.Context) {
	var in models.UserInput
	if err := app.ReadJSON(c.Writer, c.Request, &in, false); err != nil {
		app.badRequest(c, err)
		return
	}

	id, err := app.Repo.RegisterUser(c.Request.Context(), in)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusCreated, gin.H{"userID": id})
}

func (app *application) login(c *gin.Context) {
	var req loginRequest
	if err := app.ReadJSON(c.Writer, c.Request, &req, false); err != nil {
		app.badRequest(c, err)
		return
	}

	user, err := app.Repo.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		app.errorResponse(c, err)
		return
	}

	token, expires, err := app.Tokens.Generate(user)
	if err != nil {
		app.Log.Error().Err(err).Msg("failed to sign token")
		app.abortWithError(c, http.StatusInternalServerError, errors.New("something went wrong, try again"))
		return
	}

	app.sendJSON(c, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		UserID:    user.UserID,
		UserType:  user.UserType,
	})
}

func (app *application) getMe(c *gin.Context) {
	u, err := app.Repo.GetUser(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		app.errorResponse(c, err)
		return
	}
	app.sendJSON(c, http.StatusOK, u, "user")
}

func (app *application) updateMe(c *gin.Context) {
	var upd models.ProfileUpdate
	if err := app.ReadJSON(c.Writer, c.Request, &upd, false); err != nil {
		app.badRequest(c, err)
		return
	}

	if err := app.Repo.UpdateProfile(c.Request.Context(), currentUser(c).UserID, upd); err != nil {
		app.errorResponse(c, err)
		return
	}
	app.getMe(c)
}

func (app *application) changePassword(c *gin.Context) {
	var req passwordChangeRequest
	if err := app.ReadJSON(c.Writer, c.Request, &req, false); err != nil {
		app.badRequest(c, err)
		return
	}
	if req.Password != req.ConfirmPassword {
		app.badRequest(c, errors.New("passwords do not match"))
		return
	}

	if err := app.Repo.ChangePassword(c.Request.Context(), currentUser(c).UserID, req.Password); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) deleteMe(c *gin.Context) {
	if err := app.Repo.DeleteUser(c.Request.Context(), currentUser(c).UserID); err != nil {
		app.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) healthz(c *gin.Context) {
	if db := app.Repo.Connection(); db != nil {
		if err := db.PingContext(c.Request.Context()); err != nil {
			app.Log.Error().Err(err).Msg("health check failed")
			app.abortWithError(c, http.StatusServiceUnavailable, errors.New("database unavailable"))
			return
		}
	}
	app.sendJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
