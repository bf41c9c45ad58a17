package main

import (
	"log"

	"github.com/yewfence/blogctl/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ blogctl failed: %v", err)
	}
}
