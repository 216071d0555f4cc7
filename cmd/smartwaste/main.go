package main

import "github.com/smartwaste/civic-core/internal/cli"

// @title                      Smart Waste civic core API
// @version                    1.0
// @description                Session, role switching and the rule-based waste assistant.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cli.Execute()
}
