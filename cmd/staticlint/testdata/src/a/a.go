package main

import (
	"log"
	"os"
)

func main() {
	defer log.Println("deferred")

	if len(os.Args) > 3 {
		log.Fatalf("too many args: %d", len(os.Args)) // want "avoid direct log.Fatalf call in main function of main package"
	}
	if len(os.Args) > 2 {
		log.Fatal("too many args") // want "avoid direct log.Fatal call in main function of main package"
	}

	func() {
		os.Exit(2)
	}()

	os.Exit(1) // want "avoid direct os.Exit call in main function of main package"
}

func helper() {
	os.Exit(0)
}
