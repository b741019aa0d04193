package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"tuition/internal/models"

	"go.uber.org/zap"
)

type Service interface {
	SubmitRequest(ctx context.Context, username string, request models.Request) (models.Request, error)
	GetParentRequests(ctx context.Context, username string, limit, offset int) ([]models.Request, error)
	GetAvailableRequests(ctx context.Context, username string, limit, offset int) ([]models.Request, error)
	MarkTestComplete(ctx context.Context, username, requestId string) (models.Request, error)

	SubmitBid(ctx context.Context, username, requestId, message string) (models.Bid, error)
	GetRequestBids(ctx context.Context, username, requestId string, limit, offset int) ([]models.BidDetails, error)

	ApproveBid(ctx context.Context, username, requestId, tutorId string) (models.Match, error)
	GetMatchForRequest(ctx context.Context, username, requestId string) (models.Match, error)
	GenerateInvoice(ctx context.Context, username, matchId string, force bool, rateOverride float64) (models.Match, error)

	AddCertificate(ctx context.Context, username, name string, data []byte, contentType string) (models.Certificate, error)
	RemoveCertificate(ctx context.Context, username, certId string) error
}

type Controller struct {
	service Service
	logger  *zap.Logger
}

func NewController(service Service, logger *zap.Logger) *Controller {
	return &Controller{service: service, logger: logger}
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Requests

// POST /api/requests/new
func (c *Controller) NewRequest(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewRequestReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := c.service.SubmitRequest(r.Context(), req.ParentUsername, models.Request{
		StudentName:     req.StudentName,
		StudentLevel:    req.StudentLevel,
		Subjects:        req.Subjects,
		Address:         req.Address,
		PostalCode:      req.PostalCode,
		TestBooked:      req.TestBooked,
		TestScheduledAt: req.TestScheduledAt,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

// GET /api/requests/my
func (c *Controller) MyRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}

	limit, offset, ok := c.getPagination(w, query)
	if !ok {
		return
	}

	requests, err := c.service.GetParentRequests(r.Context(), username, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, requests)
}

// GET /api/requests/available
func (c *Controller) AvailableRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}

	limit, offset, ok := c.getPagination(w, query)
	if !ok {
		return
	}

	requests, err := c.service.GetAvailableRequests(r.Context(), username, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, requests)
}

// PUT /api/requests/{requestId}/test/complete
func (c *Controller) CompleteTest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}
	requestId := r.PathValue("requestId")
	if len(requestId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty requestId supplied")
		return
	}

	request, err := c.service.MarkTestComplete(r.Context(), username, requestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

//// Bids

// POST /api/bids/new
func (c *Controller) NewBid(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewBidReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := c.service.SubmitBid(r.Context(), req.TutorUsername, req.RequestId, req.Message)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bid)
}

// GET /api/bids/{requestId}/list
func (c *Controller) RequestBids(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}
	requestId := r.PathValue("requestId")
	if len(requestId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty requestId supplied")
		return
	}

	limit, offset, ok := c.getPagination(w, query)
	if !ok {
		return
	}

	bids, err := c.service.GetRequestBids(r.Context(), username, requestId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bids)
}

//// Matching

// PUT /api/requests/{requestId}/approve
func (c *Controller) ApproveBid(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}
	requestId := r.PathValue("requestId")
	if len(requestId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty requestId supplied")
		return
	}
	tutorId := query.Get("tutorId")
	if len(tutorId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty tutorId supplied")
		return
	}

	match, err := c.service.ApproveBid(r.Context(), username, requestId, tutorId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, match)
}

// GET /api/requests/{requestId}/match
func (c *Controller) RequestMatch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}
	requestId := r.PathValue("requestId")
	if len(requestId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty requestId supplied")
		return
	}

	match, err := c.service.GetMatchForRequest(r.Context(), username, requestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, match)
}

//// Invoices

// POST /api/matches/{matchId}/invoice
func (c *Controller) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}
	matchId := r.PathValue("matchId")
	if len(matchId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty matchId supplied")
		return
	}

	force := query.Get("force") == "true"

	var rateOverride float64
	if str := query.Get("hourlyRate"); len(str) > 0 {
		var err error
		rateOverride, err = strconv.ParseFloat(str, 64)
		if err != nil || rateOverride <= 0 {
			c.errorResponse(w, http.StatusBadRequest, "invalid value of 'hourlyRate' query parameter: "+str)
			return
		}
	}

	match, err := c.service.GenerateInvoice(r.Context(), username, matchId, force, rateOverride)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, match)
}

//// Certificates

// POST /api/certificates/new
func (c *Controller) NewCertificate(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewCertificateReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	cert, err := c.service.AddCertificate(r.Context(), req.TutorUsername, req.Name, req.payload, req.ContentType)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, cert)
}

// DELETE /api/certificates/{certificateId}
func (c *Controller) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	username := query.Get("username")
	if len(username) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty username supplied")
		return
	}
	certId := r.PathValue("certificateId")
	if len(certId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty certificateId supplied")
		return
	}

	err := c.service.RemoveCertificate(r.Context(), username, certId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

//// Service

type ErrorResponse struct {
	Reason string `json:"reason"`
}

func (c *Controller) getPagination(w http.ResponseWriter, query url.Values) (limit, offset int, ok bool) {
	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return 0, 0, false
	}

	offset, err = c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return 0, 0, false
	}

	return limit, offset, true
}

func (c *Controller) getQueryInt(query url.Values, key string) (int, error) {
	strs, ok := query[key]
	if ok && len(strs) > 0 {
		return strconv.Atoi(strs[0])
	}
	return 0, nil
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.WriteHeader(status)

	data, err := json.Marshal(ErrorResponse{Reason: text})
	if err != nil {
		c.logger.Error("controller: could not marshal error response", zap.Error(err))
		return
	}

	_, err = w.Write(data)
	if err != nil {
		c.logger.Error("controller: could not write error response", zap.Error(err))
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidUser):
		c.errorResponse(w, http.StatusUnauthorized, "user does not exist or has no rights for requested action")
	case errors.Is(err, models.ErrForbidden):
		c.errorResponse(w, http.StatusForbidden, "user has no permission for requested action")
	case errors.Is(err, models.ErrNoRequest):
		c.errorResponse(w, http.StatusNotFound, "requested tuition request does not exist or unaccessible")
	case errors.Is(err, models.ErrNoTutor):
		c.errorResponse(w, http.StatusNotFound, "requested tutor does not exist")
	case errors.Is(err, models.ErrNoMatch):
		c.errorResponse(w, http.StatusNotFound, "requested match does not exist")
	case errors.Is(err, models.ErrNoCertificate):
		c.errorResponse(w, http.StatusNotFound, "requested certificate does not exist")
	case errors.Is(err, models.ErrRequestNotBiddable):
		c.errorResponse(w, http.StatusForbidden, "request is already matched or invoiced, no further bids accepted")
	case errors.Is(err, models.ErrAlreadyMatched):
		c.errorResponse(w, http.StatusConflict, "request already has a tutor matched")
	case errors.Is(err, models.ErrInvalidTransition):
		c.errorResponse(w, http.StatusConflict, "request status does not allow this transition")
	case errors.Is(err, models.ErrNoTestBooked):
		c.errorResponse(w, http.StatusConflict, "no diagnostic test was booked for this request")
	case errors.Is(err, models.ErrTestCompleted):
		c.errorResponse(w, http.StatusConflict, "diagnostic test is already marked complete")
	case errors.Is(err, models.ErrValidation):
		c.errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		c.logger.Error("controller: unhandled service error", zap.Error(err))
		c.errorResponse(w, http.StatusInternalServerError, "internal server error: "+err.Error())
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	_, err = w.Write(d)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not write response data")
		return
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}
