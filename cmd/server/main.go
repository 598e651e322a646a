package main

import (
	"os"

	"parley/internal/app"
)

// @title           Parley API
// @version         1.0
// @description     Chat orchestration backend: streams one primary model and
// @description     any number of comparison models side by side per turn.
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
