// Command kiosk spins the wheel for attendee codes read from the arguments or
// from stdin, one per line.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/kiosk"
	"github.com/rickyzatnika/new-spinner/wheel"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API base URL")
	duration := flag.Duration("duration", wheel.DefaultDuration, "spin animation length")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
	verbose := flag.Bool("v", false, "log animation frames")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k := kiosk.New(kiosk.NewClient(*server, *timeout), wheel.Animator{Duration: *duration}, log)
	if *verbose {
		k.OnFrame = func(f wheel.Frame) {
			log.Debug("frame", zap.Duration("elapsed", f.Elapsed), zap.Float64("rotation", f.Rotation))
		}
	}

	codes := flag.Args()
	if len(codes) > 0 {
		for _, code := range codes {
			play(ctx, k, code)
		}
		return
	}
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if code := strings.TrimSpace(sc.Text()); code != "" {
			play(ctx, k, code)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func play(ctx context.Context, k *kiosk.Kiosk, code string) {
	res, err := k.Play(ctx, code)
	switch {
	case errors.Is(err, wheel.ErrAlreadySpun):
		name := "-"
		if res != nil && res.Prize != nil {
			name = res.Prize.Name
		}
		fmt.Printf("%s: sudah pernah memutar (hadiah: %s)\n", code, name)
	case kiosk.IsNotFound(err):
		fmt.Printf("%s: kode tidak ditemukan\n", code)
	case err != nil && res == nil:
		fmt.Printf("%s: gagal: %v\n", code, err)
	default:
		if err != nil {
			fmt.Printf("%s: %v\n", code, err)
		}
		fmt.Printf("%s: %s mendapatkan %s\n", code, res.User.Name, res.Prize.Name)
	}
}
