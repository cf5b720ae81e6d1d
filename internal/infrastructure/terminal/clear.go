package terminal

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Clear wipes the terminal before a new cycle is drawn. Windows consoles
// get cls; everything else gets the ANSI home-and-erase sequence.
func Clear(w io.Writer) {
	if runtime.GOOS == "windows" {
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = w
		_ = cmd.Run()
		return
	}
	fmt.Fprint(w, "\033[H\033[2J")
}
