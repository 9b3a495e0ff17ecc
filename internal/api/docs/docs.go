// Package docs registers the paleofed gateway's swagger spec with swag's
// runtime registry. It is hand-maintained since `swag init` isn't run as
// part of this build, and it carries the API metadata only: its paths
// object is empty, so the endpoints described in the handler doc comments
// are not listed.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{.Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "paleofed",
            "url": "https://github.com/arourke/paleofed"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {}
}`

// SwaggerInfo holds exported swagger metadata, mirroring what `swag init`
// emits for gin-swagger's WrapHandler to serve at /swagger/*any.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "paleofed Gateway API",
	Description:      "Federating HTTP gateway over paleobiology and Quaternary-fauna occurrence data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
