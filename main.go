package main

import (
	"flag"
	"fmt"
	"os"

	"vm32/cpu"
	"vm32/debug"
	"vm32/logger"
	"vm32/system"
)

func main() {
	verbose := flag.Bool("v", false, "verbose setup tracing")
	megabytes := flag.Int("m", 128, "memory size in megabytes")
	fsPath := flag.String("f", "", "RAM filesystem image path")
	monitor := flag.Bool("g", false, "enable the single-step debugger")
	logPath := flag.String("l", "", "log file path (default stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vm32 [-v] [-m MEGABYTES] [-f PATH] [-g] [-l PATH] IMAGE")
		os.Exit(-1)
	}
	imagePath := flag.Arg(0)

	log := logger.New(*logPath)
	if *verbose {
		log.Printf("memory=%dMiB image=%s filesystem=%q monitor=%v", *megabytes, imagePath, *fsPath, *monitor)
	}

	m := system.New(*megabytes<<20, log)
	if err := m.LoadImage(imagePath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
	if *fsPath != "" {
		if err := m.LoadFilesystem(*fsPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-1)
		}
	}

	if *monitor {
		if err := debug.New(m).Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-1)
		}
		return
	}

	switch m.Run() {
	case cpu.Halted:
		if *verbose {
			log.Printf("halted, cycle=%d", m.CPU.Cycle)
		}
	case cpu.Escaped:
		if *verbose {
			log.Printf("escaped, cycle=%d", m.CPU.Cycle)
		}
	}
}
