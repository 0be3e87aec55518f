package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/obe-achievement/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		application.Log.Info("Shutting down...")
		application.Close()
	}()

	if err := application.Run(); err != nil {
		application.Log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
