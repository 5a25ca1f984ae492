package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/docopt/docopt-go"

	"github.com/oshxona/kitchen/kitchen"
)

const Version = "0.1.0"

const DefaultApiUrl = "http://localhost:8090"
const DefaultWsUrl = "ws://localhost:8090/ws"

func main() {
	usage := fmt.Sprintf(
		`Kitchen display sync client.

Maintains the live active-order board from the one-shot snapshot and the
incremental stream, and prints status transitions and alerts.

The default urls are:
    api_url: %s
    ws_url: %s

Usage:
    kitchen-display run [--api_url=<api_url>] [--ws_url=<ws_url>]
        [--token=<token>]
        [--prompt_token]

Options:
    -h --help             Show this screen.
    --version             Show version.
    --api_url=<api_url>
    --ws_url=<ws_url>
    --token=<token>       Operator token attached to api and stream calls.
    --prompt_token        Read the operator token from the terminal.`,
		DefaultApiUrl,
		DefaultWsUrl,
	)

	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		panic(err)
	}

	if run_, _ := opts.Bool("run"); run_ {
		run(opts)
	}
}

func run(opts docopt.Opts) {
	apiUrl := DefaultApiUrl
	if apiUrlAny := opts["--api_url"]; apiUrlAny != nil {
		apiUrl = apiUrlAny.(string)
	}

	wsUrl := DefaultWsUrl
	if wsUrlAny := opts["--ws_url"]; wsUrlAny != nil {
		wsUrl = wsUrlAny.(string)
	}

	var byJwt string
	if tokenAny := opts["--token"]; tokenAny != nil {
		byJwt = tokenAny.(string)
	} else if promptToken_, _ := opts.Bool("--prompt_token"); promptToken_ {
		fmt.Print("token: ")
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			panic(err)
		}
		byJwt = string(tokenBytes)
	}

	var auth *kitchen.OperatorAuth
	if byJwt != "" {
		auth = &kitchen.OperatorAuth{
			ByJwt:      byJwt,
			InstanceId: kitchen.NewId(),
			AppVersion: Version,
		}
		if claims, err := kitchen.ParseOperatorJwtUnverified(byJwt); err == nil && claims.OperatorName != "" {
			fmt.Printf("operator: %s\n", claims.OperatorName)
		}
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	display := kitchen.NewDisplayWithDefaults(cancelCtx, apiUrl, wsUrl, auth)
	defer display.Close()

	display.AddStatusCallback(func(status kitchen.ConnectionStatus) {
		fmt.Printf("status: %s\n", status)
	})
	display.AddDeviceStatusCallback(func(status kitchen.DeviceStatus) {
		fmt.Printf("device: %s\n", status)
	})
	display.AddDeviceFaultCallback(func(device kitchen.DeviceInfo) {
		fmt.Printf("DEVICE FAULT: %s %s\n", device.Name, device.Message)
	})

	go watchOrders(cancelCtx, display)
	go watchNotifications(cancelCtx, display)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	<-sigs
}

func watchOrders(ctx context.Context, display *kitchen.Display) {
	for {
		// take the notify channel before reading so that a change between
		// the read and the wait still wakes the loop
		notify := display.Store().UpdateMonitor().NotifyChannel()
		orders := display.Orders()
		fmt.Printf("%d active orders\n", len(orders))
		select {
		case <-ctx.Done():
			return
		case <-notify:
		}
	}
}

func watchNotifications(ctx context.Context, display *kitchen.Display) {
	for {
		notify := display.NotificationQueue().UpdateMonitor().NotifyChannel()
		for _, notification := range display.Notifications() {
			fmt.Printf(
				"alert: %s %s (%s)\n",
				notification.Kind,
				notification.Payload.EmpName,
				notification.SubjectKey,
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-notify:
		}
	}
}
