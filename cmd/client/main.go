// Asteroid Arena terminal client entry point.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"asteroid-arena/internal/client"
	"asteroid-arena/internal/config"
)

var (
	addrFlag = flag.String("addr", "", "Server address as HOST:PORT")
	nameFlag = flag.String("name", "", "Display name")
	help     = flag.Bool("help", false, "Show help information")
)

func main() {
	flag.Parse()

	if *help {
		fmt.Printf("usage: %s -addr HOST:PORT -name NAME\n", os.Args[0])
		fmt.Println("ASTEROIDS_ADDR overrides the default server address")
		return
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument %q\n", flag.Arg(0))
		os.Exit(2)
	}

	addr := config.DefaultAddr
	if env := os.Getenv("ASTEROIDS_ADDR"); env != "" {
		addr = env
	}
	if *addrFlag != "" {
		addr = *addrFlag
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		fmt.Fprintf(os.Stderr, "bad address %q: %v\n", addr, err)
		os.Exit(2)
	}

	display := client.NewDisplay()
	display.PrintBanner()

	input := client.NewInputHandler(display)
	name := *nameFlag
	if name == "" {
		name = "pilot"
	}

	c, err := client.Connect(addr, name, display)
	if err != nil {
		display.PrintError(err.Error())
		os.Exit(1)
	}
	defer c.Close()

	if err := c.Run(input); err != nil {
		display.PrintError(err.Error())
		os.Exit(1)
	}
}
