package main

import "apptime/internal/app"

func main() {
	app.Execute()
}
