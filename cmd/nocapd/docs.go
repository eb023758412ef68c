package main

// General API documentation for swaggo. Run `swag init -g cmd/nocapd/docs.go -o internal/httpapi/docs` to regenerate.
//
// @title           nocap API
// @version         1.0
// @description     HTTP API for captcha challenge image recognition.
//
// @contact.name   nocap maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
