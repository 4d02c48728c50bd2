// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/eventease/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {"get": {"summary": "Overall health", "responses": {"200": {"description": "OK"}, "503": {"description": "Critical"}}}},
        "/healthz/{name}": {"get": {"summary": "Single health check", "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown check"}}}},
        "/settings": {"get": {"summary": "Application settings", "responses": {"200": {"description": "OK"}}}},
        "/events": {"get": {"summary": "List events (paged)", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/events/{id}": {"get": {"summary": "Get event", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/events/{id}/registrations": {
            "get": {"summary": "List registrations of an event", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Register for an event (idempotent with Idempotency-Key)", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}, "429": {"description": "Too Many Requests"}}}
        },
        "/events/{id}/attendees": {"get": {"summary": "Attendees of an event, by name", "responses": {"200": {"description": "OK"}}}},
        "/events/{id}/attendees/vip": {"get": {"summary": "VIP attendees of an event", "responses": {"200": {"description": "OK"}}}},
        "/events/{id}/attendees/check-in": {"post": {"summary": "Check in every listed attendee still registered for the event", "responses": {"200": {"description": "OK"}}}},
        "/events/{id}/attendance": {"get": {"summary": "Attendance statistics of an event", "responses": {"200": {"description": "OK"}}}},
        "/attendees": {
            "get": {"summary": "Find attendees by status or search term", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"summary": "Register an attendee", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/attendees/{id}": {
            "get": {"summary": "Get attendee", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"summary": "Replace attendee", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"summary": "Delete attendee", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/attendees/{id}/check-in": {"post": {"summary": "Check in", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/attendees/{id}/check-out": {"post": {"summary": "Check out", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/attendees/{id}/no-show": {"post": {"summary": "Mark a registered attendee as no-show", "responses": {"200": {"description": "OK"}}}},
        "/attendees/{id}/cancel": {"post": {"summary": "Cancel a registered attendee", "responses": {"200": {"description": "OK"}}}},
        "/attendance/report": {"get": {"summary": "Attendance report", "responses": {"200": {"description": "OK"}}}},
        "/attendance/dashboard": {"get": {"summary": "Attendance dashboard", "responses": {"200": {"description": "OK"}}}},
        "/session": {
            "get": {"summary": "Current view of the calling visitor", "responses": {"200": {"description": "OK"}}},
            "delete": {"summary": "End the session", "responses": {"204": {"description": "No Content"}}}
        },
        "/session/extend": {"post": {"summary": "Keep the session alive", "responses": {"200": {"description": "OK"}}}},
        "/session/analytics": {"get": {"summary": "Session analytics", "responses": {"200": {"description": "OK"}}}},
        "/session/events": {"get": {"summary": "Events tracked in the session", "responses": {"200": {"description": "OK"}}}},
        "/session/changes": {"get": {"summary": "Stream view changes as server-sent events", "produces": ["text/event-stream"], "responses": {"200": {"description": "OK"}}}},
        "/session/page-views": {"post": {"summary": "Record a page view", "responses": {"204": {"description": "No Content"}}}},
        "/session/search": {"post": {"summary": "Set the search term", "responses": {"200": {"description": "OK"}}}},
        "/session/category": {"put": {"summary": "Set the category filter", "responses": {"200": {"description": "OK"}}}},
        "/session/cart": {
            "post": {"summary": "Add an event to the cart", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"summary": "Empty the cart", "responses": {"200": {"description": "OK"}}}
        },
        "/session/cart/{event_id}": {"delete": {"summary": "Remove an event from the cart", "responses": {"200": {"description": "OK"}}}},
        "/session/preferences": {"put": {"summary": "Replace preferences", "responses": {"200": {"description": "OK"}}}},
        "/session/data/{key}": {
            "get": {"summary": "Read a session value", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"summary": "Store a session value", "responses": {"204": {"description": "No Content"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "EventEase API",
	Description:      "Event catalog, registrations, attendance tracking and visitor sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
