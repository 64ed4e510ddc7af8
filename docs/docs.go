// Package docs registers the OpenAPI document served under /swagger/.
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
        "/api/auth/register": {"post": {"tags": ["Authentication"], "summary": "Register a new user", "responses": {"201": {"description": "User registered"}, "409": {"description": "User already exists"}}}},
        "/api/auth/login": {"post": {"tags": ["Authentication"], "summary": "Login user", "responses": {"200": {"description": "Login successful"}, "401": {"description": "Invalid credentials"}}}},
        "/api/auth/refresh": {"post": {"tags": ["Authentication"], "summary": "Refresh tokens", "responses": {"200": {"description": "Tokens refreshed"}}}},
        "/api/referral-links": {
            "get": {"tags": ["Referral links"], "summary": "List referral links", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Links with limitInfo"}}},
            "post": {"tags": ["Referral links"], "summary": "Create a referral link", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input"}, "403": {"description": "Link limit reached"}}},
            "patch": {"tags": ["Referral links"], "summary": "Update a referral link", "security": [{"BearerAuth": []}], "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"type": "object", "required": ["id"], "properties": {"id": {"type": "integer"}, "name": {"type": "string"}, "url": {"type": "string"}, "customSlug": {"type": "string"}, "active": {"type": "boolean"}, "isPublic": {"type": "boolean"}, "displayOrder": {"type": "integer"}}}}], "responses": {"200": {"description": "Updated"}, "400": {"description": "Missing id or invalid fields"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["Referral links"], "summary": "Delete a referral link", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "query", "required": true, "type": "integer"}], "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/api/referral-links/stats": {"get": {"tags": ["Referral links"], "summary": "Referral link statistics", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "query", "required": true, "type": "integer"}], "responses": {"200": {"description": "Click breakdown"}}}},
        "/r/{code}": {"get": {"tags": ["Redirect"], "summary": "Follow a referral link", "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}], "responses": {"302": {"description": "Redirect"}, "404": {"description": "Not found"}}}},
        "/api/subscriptions": {
            "get": {"tags": ["Subscriptions"], "summary": "Current subscription", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Subscription and catalog"}}},
            "post": {"tags": ["Subscriptions"], "summary": "Change plan", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Subscription"}, "400": {"description": "Unknown plan"}}},
            "delete": {"tags": ["Subscriptions"], "summary": "Cancel subscription", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Subscription"}, "404": {"description": "No subscription"}}}
        },
        "/api/subscriptions/plans": {"get": {"tags": ["Subscriptions"], "summary": "List subscription plans", "responses": {"200": {"description": "Plans"}}}},
        "/api/invoices": {"get": {"tags": ["Payments"], "summary": "Billing history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Invoices"}}}},
        "/api/notifications": {"get": {"tags": ["Notifications"], "summary": "Notifications", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Newest first"}}}},
        "/api/payments/stripe/webhook": {"post": {"tags": ["Payments"], "summary": "Stripe webhook", "responses": {"200": {"description": "Received"}, "400": {"description": "Missing signature"}, "401": {"description": "Invalid signature"}}}},
        "/api/payments/paypal/webhook": {"post": {"tags": ["Payments"], "summary": "PayPal webhook", "responses": {"200": {"description": "Received"}, "400": {"description": "Missing signature"}, "401": {"description": "Invalid signature"}}}},
        "/api/payments/crypto/webhook": {"post": {"tags": ["Payments"], "summary": "Coinbase Commerce webhook", "responses": {"200": {"description": "Received"}, "400": {"description": "Missing signature"}, "401": {"description": "Invalid signature"}}}},
        "/api/public-profile/{username}": {"get": {"tags": ["Public"], "summary": "Public profile", "parameters": [{"name": "username", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "Profile"}, "404": {"description": "Unknown username"}}}},
        "/api/public-referrals/{username}": {"get": {"tags": ["Public"], "summary": "Public referral links", "parameters": [{"name": "username", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "Links and stats"}, "404": {"description": "Unknown username"}}}},
        "/api/custom-domains": {
            "get": {"tags": ["Custom domains"], "summary": "List custom domains", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Domains"}}},
            "post": {"tags": ["Custom domains"], "summary": "Add a custom domain", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Pending domain"}, "409": {"description": "Already registered"}}},
            "delete": {"tags": ["Custom domains"], "summary": "Delete a custom domain", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "query", "required": true, "type": "integer"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/custom-domains/verify": {"post": {"tags": ["Custom domains"], "summary": "Verify a custom domain", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "query", "required": true, "type": "integer"}], "responses": {"200": {"description": "Domain"}}}},
        "/api/custom-domains/ssl": {"post": {"tags": ["Custom domains"], "summary": "Mark SSL provisioned", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "query", "required": true, "type": "integer"}], "responses": {"200": {"description": "Domain"}}}},
        "/health": {"get": {"tags": ["Health"], "summary": "Liveness and database check", "responses": {"200": {"description": "Healthy"}, "503": {"description": "Unhealthy"}}}},
        "/ready": {"get": {"tags": ["Health"], "summary": "Readiness probe", "responses": {"200": {"description": "Ready"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Authorization header. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "RefStack API",
	Description:      "Referral links, click analytics, subscriptions and public referral pages.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
