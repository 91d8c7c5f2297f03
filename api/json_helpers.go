package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"eventdesk/data/models"
	"eventdesk/data/repository"

	"github.com/gin-gonic/gin"
)

type successJSON struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type errorJSON struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func marshalAndSend(w http.ResponseWriter, jsonRes interface{}, statusCode int) error {
	switch jsonRes.(type) {
	case successJSON, errorJSON:
		payload, err := json.Marshal(jsonRes)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		// write the json out
		_, err = w.Write(payload)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported type: %T", jsonRes)
	}
	return nil
}

func (app *application) SendSuccessJSON(w http.ResponseWriter, statusCode int, data interface{}, wrap ...string) error {
	jsonRes := successJSON{
		Status: "success",
	}

	if len(wrap) > 0 {
		jsonRes.Data = map[string]interface{}{wrap[0]: data}
	} else {
		jsonRes.Data = data
	}

	return marshalAndSend(w, jsonRes, statusCode)
}

func (app *application) SendErrorJSON(w http.ResponseWriter, statusCode int, err error) error {
	jsonRes := errorJSON{}
	if statusCode >= 500 {
		jsonRes.Status = "error"
	} else {
		jsonRes.Status = "fail"
	}

	jsonRes.Message = err.Error()

	return marshalAndSend(w, jsonRes, statusCode)
}

func (app *application) ReadJSON(w http.ResponseWriter, r *http.Request, data interface{}, validationReq bool) error {
	maxBytes := 1024 * 1024 // one megabyte
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	// attempt to decode the data
	err := dec.Decode(data)
	if err != nil {
		return err
	}

	// make sure only one JSON value in payload
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	if validationReq {
		err := models.Validate(data)
		if err != nil {
			return err
		}
	}

	return nil
}

var (
	errForbidden       = errors.New("you are not allowed to change this resource")
	errUnauthorized    = errors.New("authentication required")
	errTooManyRequests = errors.New("too many requests, try again later")
)

// errorStatus maps a repository error onto an HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse sends a repository error to the client. Only the user-facing
// message leaves the process; server errors are logged in full.
func (app *application) errorResponse(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		app.Log.Error().Err(err).Str("requestID", c.GetString(requestIDKey)).Msg("request failed")
	}
	app.abortWithError(c, status, errors.New(repository.UserMessage(err)))
}

// badRequest reports a malformed request body or parameter.
func (app *application) badRequest(c *gin.Context, err error) {
	app.abortWithError(c, http.StatusBadRequest, fmt.Errorf("fix your input: %w", err))
}

func (app *application) abortWithError(c *gin.Context, status int, err error) {
	if sendErr := app.SendErrorJSON(c.Writer, status, err); sendErr != nil {
		app.Log.Error().Err(sendErr).Msg("failed to write error response")
	}
	c.Abort()
}

func (app *application) sendJSON(c *gin.Context, status int, data interface{}, wrap ...string) {
	if err := app.SendSuccessJSON(c.Writer, status, data, wrap...); err != nil {
		app.Log.Error().Err(err).Msg("failed to write response")
	}
}
