// Package docs Violation Case API.
//
// Documentation of the Violation Case API.
//
//	 Schemes: https
//	 BasePath: /
//	 Version: 1.0.0
//
//	 Consumes:
//	 - application/json
//
//	 Produces:
//	 - application/json
//
//	 Security:
//	 - bearer
//
//	SecurityDefinitions:
//	bearer:
//	  type: apiKey
//	  name: Authorization
//	  in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/violation-case-api/api/handlers"
	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/reauth"
	"github.com/linesmerrill/violation-case-api/workflow"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/cases cases createCase
// Submits a new case.
// responses:
//   201: transitionResponse
//   400: rejectionResponse

// swagger:route GET /api/v1/cases cases listCases
// Lists the cases visible to the caller, newest first.
// responses:
//   200: caseListResponse

// One page of cases with the total count
// swagger:response caseListResponse
type caseListResponseWrapper struct {
	// in:body
	Body handlers.CaseList
}

// swagger:route GET /api/v1/cases/{case_id} cases caseByID
// Gets a single case by ID.
// responses:
//   200: caseResponse
//   403: rejectionResponse
//   404: rejectionResponse

// swagger:route GET /api/v1/cases/tracking/{tracking_code} cases caseByTrackingCode
// Gets a single case by its tracking code.
// responses:
//   200: caseResponse
//   404: rejectionResponse

// Shows a single case
// swagger:response caseResponse
type caseResponseWrapper struct {
	// in:body
	Body models.Case
}

// swagger:route GET /api/v1/cases/{case_id}/hearings cases caseHearings
// Lists the hearings of a case in sequence order.
// responses:
//   200: hearingsResponse

// swagger:response hearingsResponse
type hearingsResponseWrapper struct {
	// in:body
	Body []models.Hearing
}

// swagger:route GET /api/v1/cases/{case_id}/remarks cases caseRemarks
// Lists the remarks of a case oldest first.
// responses:
//   200: remarksResponse

// swagger:response remarksResponse
type remarksResponseWrapper struct {
	// in:body
	Body []models.Remark
}

// swagger:route POST /api/v1/cases/{case_id}/transitions/{action} cases transition
// Applies a lifecycle action to a case.
// responses:
//   200: transitionResponse
//   400: rejectionResponse
//   403: rejectionResponse
//   404: rejectionResponse
//   409: rejectionResponse

// swagger:parameters transition
type transitionParamsWrapper struct {
	// in:body
	Body lifecycle.Payload
}

// The committed case with what the transition created
// swagger:response transitionResponse
type transitionResponseWrapper struct {
	// in:body
	Body workflow.Result
}

// Why the request was refused
// swagger:response rejectionResponse
type rejectionResponseWrapper struct {
	// in:body
	Body lifecycle.Error
}

// swagger:route POST /api/v1/reauth/redeem reauth redeemReauth
// Exchanges a re-auth link token for an applicant bearer token.
// responses:
//   200: grantResponse
//   409: rejectionResponse

// swagger:response grantResponse
type grantResponseWrapper struct {
	// in:body
	Body reauth.Grant
}

// swagger:route GET /api/v1/users/{user_id}/notifications notifications userNotifications
// Lists the newest notifications of a user.
// responses:
//   200: notificationsResponse

// swagger:response notificationsResponse
type notificationsResponseWrapper struct {
	// in:body
	Body []models.Notification
}
