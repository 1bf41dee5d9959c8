package main

import (
	"backend/config"
	"backend/routes"
)

func main() {
	config.Load()
	config.InitDB()
	config.InitRedis()
	r := routes.SetupRouter()
	r.Run(":" + config.App.Port)
}
