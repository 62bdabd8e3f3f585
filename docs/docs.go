// Package docs ParkWhere API.
//
// Nearby parking matching over an imported car park catalog with live
// availability.
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
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/location": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Location"],
                "summary": "Current device position",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            },
            "post": {
                "description": "Feeds a position fix to the tracker. Out-of-order, inaccurate and future fixes are dropped and reported in the outcome.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Location"],
                "summary": "Report device position",
                "parameters": [
                    {"description": "Position fix", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/parking/nearby": {
            "get": {
                "description": "Ranks available parking around the last reported device position: nearest first, more free lots first on equal distance.",
                "produces": ["application/json"],
                "tags": ["Parking"],
                "summary": "Nearby parking",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of results", "name": "limit", "in": "query"},
                    {"type": "number", "description": "Search radius in meters", "name": "max_distance", "in": "query"},
                    {"type": "string", "description": "Vehicle class (C, Y, H)", "name": "lot_type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "409": {"description": "No fresh location", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/parking/scan": {
            "get": {
                "description": "Lists every active spot around a point, including full car parks, ranked like the nearby search.",
                "produces": ["application/json"],
                "tags": ["Parking"],
                "summary": "Scan an area",
                "parameters": [
                    {"type": "number", "description": "Latitude", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "description": "Longitude", "name": "lon", "in": "query", "required": true},
                    {"type": "integer", "description": "Maximum number of results", "name": "limit", "in": "query"},
                    {"type": "number", "description": "Search radius in meters", "name": "max_distance", "in": "query"},
                    {"type": "string", "description": "Vehicle class (C, Y, H)", "name": "lot_type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/parking/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Parking"],
                "summary": "Get a parking spot",
                "parameters": [{"type": "string", "description": "Spot ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Parking"],
                "summary": "Create or replace a parking spot",
                "parameters": [
                    {"type": "string", "description": "Spot ID", "name": "id", "in": "path", "required": true},
                    {"description": "Spot", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpsertSpotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Records are never deleted; the spot stops appearing in searches.",
                "tags": ["Parking"],
                "summary": "Mark a parking spot inactive",
                "parameters": [{"type": "string", "description": "Spot ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/parking/{id}/availability": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Parking"],
                "summary": "Correct availability of a parking spot",
                "parameters": [
                    {"type": "string", "description": "Spot ID", "name": "id", "in": "path", "required": true},
                    {"description": "Availability", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AvailabilityPatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/import": {
            "post": {
                "description": "Imports a CSV file (header row required). Invalid rows are rejected one by one, the accepted rows are committed atomically. With async=true the import runs in the background and its batch id can be polled on /api/v1/import/{id}.",
                "consumes": ["text/csv"],
                "produces": ["application/json"],
                "tags": ["Import"],
                "summary": "Import parking spots",
                "parameters": [{"type": "boolean", "description": "Run in the background", "name": "async", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/import/{id}": {
            "get": {
                "description": "Returns the state of a recent asynchronous import: pending, done or failed, with the batch summary once finished.",
                "produces": ["application/json"],
                "tags": ["Import"],
                "summary": "Asynchronous import status",
                "parameters": [{"type": "string", "description": "Batch ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/refresh": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Refresh"],
                "summary": "Index refresh status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            },
            "post": {
                "description": "Schedules a rebuild of the spatial index. With availability=true the availability feed is pulled first unless it was fetched within the minimum interval.",
                "produces": ["application/json"],
                "tags": ["Refresh"],
                "summary": "Request an index refresh",
                "parameters": [{"type": "boolean", "description": "Pull the availability feed first", "name": "availability", "in": "query"}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "description": "Indexed spot count, location state and refresh status.",
                "produces": ["application/json"],
                "tags": ["Refresh"],
                "summary": "Engine statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.AvailabilityPatchRequest": {
            "type": "object",
            "required": ["available_count"],
            "properties": {
                "available_count": {"type": "integer", "minimum": 0},
                "capacity": {"type": "integer", "minimum": 0}
            }
        },
        "dto.LocationRequest": {
            "type": "object",
            "required": ["lat", "lon"],
            "properties": {
                "accuracy_m": {"type": "number", "minimum": 0},
                "lat": {"type": "number", "maximum": 90, "minimum": -90},
                "lon": {"type": "number", "maximum": 180, "minimum": -180},
                "observed_at": {"type": "string"}
            }
        },
        "dto.UpsertSpotRequest": {
            "type": "object",
            "required": ["lat", "lon"],
            "properties": {
                "active": {"type": "boolean"},
                "address": {"type": "string", "maxLength": 512},
                "available_count": {"type": "integer", "minimum": 0},
                "capacity": {"type": "integer", "minimum": 0},
                "lat": {"type": "number", "maximum": 90, "minimum": -90},
                "lon": {"type": "number", "maximum": 180, "minimum": -180},
                "lot_type": {"type": "string", "enum": ["C", "Y", "H"]}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "message": {"type": "string"}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.AppError"}
            }
        },
        "utils.Meta": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "time_ms": {"type": "number"},
                "total": {"type": "integer"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"$ref": "#/definitions/utils.Meta"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "ParkWhere API",
	Description:      "Nearby parking matching over an imported car park catalog with live availability.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
