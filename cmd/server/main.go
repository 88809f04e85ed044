package main

import "github.com/taihuy1/task-managemet-thesis/internal/app"

// @title           Task Tracker API
// @version         1.0
// @description     Task assignment tracker: authors create tasks, solvers work them through the lifecycle.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
