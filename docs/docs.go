// Package docs registers the swagger document served at /swagger/doc.json.
// It is maintained by hand alongside the @-annotations on the handlers in
// internal/api/handler; update both when a route or payload changes.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/api/v1/questions/parse": {
            "post": {
                "description": "Parse question text into a table name, inferred schema, rows and expected output",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["questions"],
                "summary": "Parse a question",
                "parameters": [
                    {"description": "Question text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.QuestionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ParseResponse"}},
                    "400": {"description": "Parse or validation error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/questions/batch": {
            "post": {
                "description": "Each question succeeds or fails on its own; results keep input order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["questions"],
                "summary": "Parse questions in bulk",
                "parameters": [
                    {"description": "Question texts", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Empty or oversized batch", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tables": {
            "post": {
                "description": "Parse, validate and load the question's input data into the warehouse",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tables"],
                "summary": "Create a table from a question",
                "parameters": [
                    {"description": "Question text and optional dataset", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateTableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Parse or validation error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "502": {"description": "Warehouse error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/query": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["query"],
                "summary": "Execute a query",
                "parameters": [
                    {"description": "SQL text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.QueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Missing or invalid SQL", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "502": {"description": "Warehouse error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/import": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tables"],
                "summary": "Import a table",
                "parameters": [
                    {"description": "Source and destination", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/playground.ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Table imported", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Destination exists", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/datasets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List datasets",
                "responses": {
                    "200": {"description": "Datasets", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Warehouse error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/datasets/{dataset}/tables": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List tables",
                "parameters": [
                    {"type": "string", "description": "Dataset ID", "name": "dataset", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Tables", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dataset not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tables/{dataset}/{table}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["tables"],
                "summary": "Delete a table",
                "parameters": [
                    {"type": "string", "description": "Dataset ID", "name": "dataset", "in": "path", "required": true},
                    {"type": "string", "description": "Table ID", "name": "table", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Table deleted", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Table not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tables/{dataset}/{table}/schema": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Get table schema",
                "parameters": [
                    {"type": "string", "description": "Dataset ID", "name": "dataset", "in": "path", "required": true},
                    {"type": "string", "description": "Table ID", "name": "table", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Table metadata", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Table not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/tables/{dataset}/{table}/sample": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Sample table rows",
                "parameters": [
                    {"type": "string", "description": "Dataset ID", "name": "dataset", "in": "path", "required": true},
                    {"type": "string", "description": "Table ID", "name": "table", "in": "path", "required": true},
                    {"type": "integer", "description": "Row limit (default 10)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Table not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/loads": {
            "get": {
                "description": "Newest first; each load records one create-table attempt",
                "produces": ["application/json"],
                "tags": ["loads"],
                "summary": "List loads",
                "parameters": [
                    {"type": "integer", "description": "Maximum loads to return (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Loads", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/loads/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["loads"],
                "summary": "Get load",
                "parameters": [
                    {"type": "string", "description": "Load ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Load details", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Load not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/loads/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["loads"],
                "summary": "Get load errors",
                "parameters": [
                    {"type": "string", "description": "Load ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Load errors", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Load not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/download/{loadID}/{filename}": {
            "get": {
                "description": "Download a file exported for a load (input_data.csv, input_data.json, expected_output.csv)",
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download file",
                "parameters": [
                    {"type": "string", "description": "Load ID", "name": "loadID", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.BatchRequest": {
            "type": "object",
            "properties": {
                "questions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.CreateTableRequest": {
            "type": "object",
            "properties": {
                "datasetId": {"type": "string"},
                "questionText": {"type": "string"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "loadId": {"type": "string"},
                "stage": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "defaultDataset": {"type": "string"},
                "driver": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handler.ParseResponse": {
            "type": "object",
            "properties": {
                "parsed": {"$ref": "#/definitions/model.Summary"},
                "success": {"type": "boolean"}
            }
        },
        "handler.QueryRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string"}
            }
        },
        "handler.QuestionRequest": {
            "type": "object",
            "properties": {
                "questionText": {"type": "string"}
            }
        },
        "model.Column": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "model.ExpectedOutput": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "rows": {"type": "array", "items": {"type": "array", "items": {}}}
            }
        },
        "model.Summary": {
            "type": "object",
            "properties": {
                "columnCount": {"type": "integer"},
                "expectedOutput": {"$ref": "#/definitions/model.ExpectedOutput"},
                "fullTableName": {"type": "string"},
                "rowCount": {"type": "integer"},
                "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Column"}},
                "tableName": {"type": "string"}
            }
        },
        "playground.ImportRequest": {
            "type": "object",
            "properties": {
                "destinationDataset": {"type": "string"},
                "destinationTable": {"type": "string"},
                "overwrite": {"type": "boolean"},
                "sourceTable": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SQL Playground API",
	Description:      "Turns practice-question text into warehouse tables and runs queries against them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
