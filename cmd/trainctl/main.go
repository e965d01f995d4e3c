// trainctl is an interactive terminal client for the train control
// gateway. It discovers the gateway over mDNS (or takes -addr), then
// reads commands from stdin:
//
//	velocity <volts>
//	gate Open|Close
//	turbine Start|Stop
//	quit
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/client"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/proto"
)

func main() {
	var addr, username, password string
	var insecure, skipVerify bool

	flag.StringVar(&addr, "addr", "", "Gateway address (host:port); empty means discover via mDNS")
	flag.StringVar(&username, "username", "admin", "Username for authentication")
	flag.StringVar(&password, "password", "", "Password for authentication")
	flag.BoolVar(&insecure, "insecure", false, "Connect over ws:// instead of wss://")
	flag.BoolVar(&skipVerify, "skip-verify", false, "Accept the gateway's self-signed certificate")
	flag.Parse()

	if addr == "" {
		gw, err := client.Discover(5 * time.Second)
		if err != nil {
			slog.Error("Gateway discovery failed", "error", err.Error())
			os.Exit(1)
		}
		addr = fmt.Sprintf("%s:%d", gw.Address, gw.Port)
	}

	c, err := client.Connect(addr, client.Options{Insecure: insecure, SkipVerify: skipVerify})
	if err != nil {
		slog.Error("Failed to connect", "addr", addr, "error", err.Error())
		os.Exit(1)
	}
	defer c.Close()

	if password == "" {
		fmt.Print("Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		password = strings.TrimSpace(line)
	}

	resp, err := c.Authenticate(username, password)
	if err != nil {
		slog.Error("Authentication failed", "error", err.Error())
		os.Exit(1)
	}
	fmt.Println(resp.Message)
	if !resp.OK() {
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return

		case "velocity":
			if len(fields) != 2 {
				fmt.Println("usage: velocity <volts>")
				break
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Printf("not a number: %s\n", fields[1])
				break
			}
			printResult(c.SetVelocity(v))

		case "gate":
			if len(fields) != 2 {
				fmt.Println("usage: gate Open|Close")
				break
			}
			printResult(c.Gate(fields[1]))

		case "turbine":
			if len(fields) != 2 {
				fmt.Println("usage: turbine Start|Stop")
				break
			}
			printResult(c.Turbine(fields[1]))

		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}

		fmt.Print("> ")
	}
}

func printResult(resp proto.Response, err error) {
	if err != nil {
		slog.Error("Command failed", "error", err.Error())
		os.Exit(1)
	}

	status := "OK"
	if !resp.OK() {
		status = "FAILED"
	}
	fmt.Printf("%s: %s\n", status, resp.Message)
}
