package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mavericks LMS Core API",
        "description": "Grading, progress, certificate and settlement engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grading", "description": "Answer submission and grading"},
        {"name": "Progress", "description": "Enrollment progress aggregation"},
        {"name": "Certificates", "description": "Certificate issuance and downloads"},
        {"name": "Payments", "description": "Payment processing and refunds"},
        {"name": "Earnings", "description": "Instructor earning payouts"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/answers": {
            "get": {
                "tags": ["Grading"],
                "summary": "List answers for review",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "questionId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Grading"],
                "summary": "Submit and auto-grade an answer",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/answers/grade": {
            "post": {
                "tags": ["Grading"],
                "summary": "Apply a manual essay grade",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Question is not manually graded"}
                }
            }
        },
        "/api/v1/progress": {
            "post": {
                "tags": ["Progress"],
                "summary": "Report partial progress on a content unit",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/progress/complete": {
            "post": {
                "tags": ["Progress"],
                "summary": "Mark a content unit completed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments/{id}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Get enrollment progress summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found"}
                }
            }
        },
        "/api/v1/enrollments/{id}/progress/recalculate": {
            "post": {
                "tags": ["Progress"],
                "summary": "Force a progress recalculation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments/{id}/certificate": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Get the certificate of an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Certificate not found"}
                }
            },
            "post": {
                "tags": ["Certificates"],
                "summary": "Issue the certificate for a completed enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Enrollment not eligible"}
                }
            }
        },
        "/api/v1/enrollments/{id}/certificate/download-link": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Create a signed download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Document not rendered yet"}
                }
            }
        },
        "/certificates/download": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download a rendered certificate document",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF document"},
                    "401": {"description": "Invalid download token"}
                }
            }
        },
        "/api/v1/payments": {
            "post": {
                "tags": ["Payments"],
                "summary": "Open a pending payment for an enrollment",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/payments/{id}": {
            "get": {
                "tags": ["Payments"],
                "summary": "Get a payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/payments/{id}/process": {
            "post": {
                "tags": ["Payments"],
                "summary": "Execute a pending payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Payment is not pending"},
                    "502": {"description": "Provider charge failed"}
                }
            }
        },
        "/api/v1/payments/{id}/refund": {
            "post": {
                "tags": ["Payments"],
                "summary": "Refund a completed payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Payment is not completed"}
                }
            }
        },
        "/api/v1/earnings": {
            "get": {
                "tags": ["Earnings"],
                "summary": "List instructor earnings",
                "parameters": [
                    {"name": "instructorId", "in": "query", "type": "string"},
                    {"name": "paymentId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/earnings/{id}/process": {
            "post": {
                "tags": ["Earnings"],
                "summary": "Move a pending earning into the payout pipeline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Earning is not pending"}
                }
            }
        },
        "/api/v1/earnings/{id}/paid": {
            "post": {
                "tags": ["Earnings"],
                "summary": "Record that a processed earning was paid out",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Earning is not processed"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        }
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
