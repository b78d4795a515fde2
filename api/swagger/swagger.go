package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "Tutor Marketplace API", "description": "Tutors, courses, weekly availability, bookings, sessions, payments and refunds.", "version": "1.0.0"},
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Authentication"},
        {"name": "Users"},
        {"name": "Tutors"},
        {"name": "Courses"},
        {"name": "Availability"},
        {"name": "Children"},
        {"name": "Bookings"},
        {"name": "Sessions"},
        {"name": "Reviews"},
        {"name": "Payments"},
        {"name": "Payouts"},
        {"name": "Refunds"}
    ],
    "paths": {
        "/auth/register": {
            "post": {"tags": ["Authentication"], "summary": "Register a parent or tutor", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Registration payload"}]}
        },
        "/auth/login": {
            "post": {"tags": ["Authentication"], "summary": "Authenticate user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Credentials"}]}
        },
        "/auth/refresh": {
            "post": {"tags": ["Authentication"], "summary": "Rotate refresh token", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Refresh token"}]}
        },
        "/auth/logout": {
            "post": {"tags": ["Authentication"], "summary": "Revoke refresh token", "responses": {"204": {"description": "No Content"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Refresh token"}]}
        },
        "/auth/password": {
            "put": {"tags": ["Authentication"], "summary": "Change password", "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Old and new password"}]}
        },
        "/auth/me": {
            "get": {"tags": ["Authentication"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/users": {
            "get": {"tags": ["Users"], "summary": "List users", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "role", "in": "query", "type": "string", "description": ""}, {"name": "active", "in": "query", "type": "boolean", "description": ""}, {"name": "search", "in": "query", "type": "string", "description": ""}, {"name": "page", "in": "query", "type": "integer", "description": "Page number"}, {"name": "limit", "in": "query", "type": "integer", "description": "Page size"}]}
        },
        "/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/users/{id}/active": {
            "patch": {"tags": ["Users"], "summary": "Activate or deactivate user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Active flag"}]}
        },
        "/tutors": {
            "get": {"tags": ["Tutors"], "summary": "List tutors", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string", "description": ""}, {"name": "subject", "in": "query", "type": "string", "description": ""}, {"name": "min_rating", "in": "query", "type": "number", "description": ""}, {"name": "page", "in": "query", "type": "integer", "description": "Page number"}, {"name": "limit", "in": "query", "type": "integer", "description": "Page size"}]}
        },
        "/tutors/{id}": {
            "get": {"tags": ["Tutors"], "summary": "Tutor profile with courses and reviews", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/tutors/me": {
            "put": {"tags": ["Tutors"], "summary": "Update own profile", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Profile"}]}
        },
        "/tutors/me/availability": {
            "put": {"tags": ["Availability"], "summary": "Replace own weekly availability", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Time gap and days"}]}
        },
        "/tutors/{id}/availability": {
            "get": {"tags": ["Availability"], "summary": "Tutor weekly availability", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/tutors/{id}/reviews": {
            "get": {"tags": ["Reviews"], "summary": "Tutor reviews", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]},
            "post": {"tags": ["Reviews"], "summary": "Review a tutor", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Rating and content"}]}
        },
        "/courses": {
            "get": {"tags": ["Courses"], "summary": "List courses", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "tutor_id", "in": "query", "type": "string", "description": ""}, {"name": "subject", "in": "query", "type": "string", "description": ""}, {"name": "grade", "in": "query", "type": "string", "description": ""}, {"name": "status", "in": "query", "type": "string", "description": ""}, {"name": "min_price", "in": "query", "type": "number", "description": ""}, {"name": "max_price", "in": "query", "type": "number", "description": ""}, {"name": "search", "in": "query", "type": "string", "description": ""}, {"name": "sort", "in": "query", "type": "string", "description": ""}, {"name": "order", "in": "query", "type": "string", "description": ""}, {"name": "page", "in": "query", "type": "integer", "description": "Page number"}, {"name": "limit", "in": "query", "type": "integer", "description": "Page size"}]},
            "post": {"tags": ["Courses"], "summary": "Create draft course", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Course"}]}
        },
        "/courses/{id}": {
            "get": {"tags": ["Courses"], "summary": "Course detail", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]},
            "put": {"tags": ["Courses"], "summary": "Update course", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "412": {"description": "Precondition Failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Course fields"}]},
            "delete": {"tags": ["Courses"], "summary": "Delete course", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/courses/{id}/lessons": {
            "post": {"tags": ["Courses"], "summary": "Append lesson", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Lesson"}]}
        },
        "/courses/{id}/lessons/{lessonId}": {
            "put": {"tags": ["Courses"], "summary": "Update lesson", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "lessonId", "in": "path", "required": true, "type": "string", "description": "Lesson ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Lesson"}]},
            "delete": {"tags": ["Courses"], "summary": "Delete lesson", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "lessonId", "in": "path", "required": true, "type": "string", "description": "Lesson ID"}]}
        },
        "/courses/{id}/availability": {
            "get": {"tags": ["Availability"], "summary": "Bookable slots for a course", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/courses/{id}/reviews": {
            "get": {"tags": ["Reviews"], "summary": "Course reviews", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]},
            "post": {"tags": ["Reviews"], "summary": "Review a course", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Rating and content"}]}
        },
        "/children": {
            "get": {"tags": ["Children"], "summary": "List own children", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Children"], "summary": "Add child", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Child"}]}
        },
        "/children/{id}": {
            "put": {"tags": ["Children"], "summary": "Update child", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Child"}]},
            "delete": {"tags": ["Children"], "summary": "Remove child", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/bookings": {
            "get": {"tags": ["Bookings"], "summary": "List own bookings", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/bookings/trial": {
            "post": {"tags": ["Bookings"], "summary": "Book a course", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "412": {"description": "Precondition Failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Course, child and weekly templates"}]}
        },
        "/sessions": {
            "get": {"tags": ["Sessions"], "summary": "List visible sessions", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "status", "in": "query", "type": "string", "description": ""}, {"name": "subscription_id", "in": "query", "type": "string", "description": ""}, {"name": "from", "in": "query", "type": "string", "description": ""}, {"name": "to", "in": "query", "type": "string", "description": ""}, {"name": "page", "in": "query", "type": "integer", "description": "Page number"}, {"name": "limit", "in": "query", "type": "integer", "description": "Page size"}]}
        },
        "/sessions/export": {
            "get": {"tags": ["Sessions"], "summary": "Download sessions as CSV or PDF", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}, {"name": "from", "in": "query", "type": "string", "description": ""}, {"name": "to", "in": "query", "type": "string", "description": ""}], "produces": ["text/csv", "application/pdf"]}
        },
        "/sessions/{id}": {
            "put": {"tags": ["Sessions"], "summary": "Record session outcome", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Outcome"}]}
        },
        "/sessions/{id}/reschedule": {
            "put": {"tags": ["Sessions"], "summary": "Move a session", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "New window"}]}
        },
        "/payments/intent": {
            "post": {"tags": ["Payments"], "summary": "Create payment intent", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "Idempotency-Key", "in": "header", "type": "string"}]}
        },
        "/payments/webhook": {
            "post": {"tags": ["Payments"], "summary": "Payment provider webhook", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "Stripe-Signature", "in": "header", "required": true, "type": "string"}]}
        },
        "/payouts/connect": {
            "post": {"tags": ["Payouts"], "summary": "Start payout onboarding", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/payouts/status": {
            "get": {"tags": ["Payouts"], "summary": "Payout account status", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/refunds": {
            "get": {"tags": ["Refunds"], "summary": "List refund requests", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "status", "in": "query", "type": "string", "description": ""}, {"name": "page", "in": "query", "type": "integer", "description": "Page number"}, {"name": "limit", "in": "query", "type": "integer", "description": "Page size"}]},
            "post": {"tags": ["Refunds"], "summary": "Request a refund", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Refund"}]}
        },
        "/refunds/statistics": {
            "get": {"tags": ["Refunds"], "summary": "Refund counts by status", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/refunds/{id}": {
            "get": {"tags": ["Refunds"], "summary": "Get refund request", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}]}
        },
        "/refunds/{id}/process": {
            "put": {"tags": ["Refunds"], "summary": "Approve or reject refund", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "description": "ID"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}, "description": "Decision"}]}
        }
    },
    "definitions": {
        "Pagination": {"type": "object", "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}},
        "APIError": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}},
        "ResponseEnvelope": {"type": "object", "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "pagination": {"$ref": "#/definitions/Pagination"}, "meta": {"type": "object"}}}
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
