package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/PatchLens/go-snapshot-lens/lens"
	"github.com/PatchLens/go-snapshot-lens/lens/cmd"
)

const pprofDebug = false

func main() {
	log.SetFlags(log.LstdFlags)

	if pprofDebug {
		go func() {
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				log.Printf("pprof server failure: %v", err)
			}
		}()
	}

	config, err := cmd.ParseFlags(nil) // No custom flags for standard snaplens
	if err != nil {
		log.Fatalf("%s%v", lens.ErrorLogPrefix, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := lens.NewRenderEngine(config).Run(ctx); err != nil {
		stop()
		log.Fatalf("%s%v", lens.ErrorLogPrefix, err)
	}
}
