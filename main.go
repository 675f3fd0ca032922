package main

import "fidelfix/internal/app"

func main() {
	app.Main()
}
