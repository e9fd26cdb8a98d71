package main

// General API documentation for swaggo. Run `swag init -g cmd/studiod/docs.go` to generate docs.
//
// @title           studiod API
// @version         1.0
// @description     Control panel for a GPU pod: installs the art server, its models and plugins, and runs artist sessions.
//
// @contact.name   studiod maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @securityDefinitions.apikey AdminCookie
// @in cookie
// @name studiod_admin
//
// @schemes http
