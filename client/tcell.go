package client

import "github.com/gdamore/tcell/v2"

// PollTcell feeds Input from a tcell screen until the screen is finalised.
func PollTcell(screen tcell.Screen) Input {
	keys := make(chan Key, 16)
	resize := make(chan Size, 4)
	go func() {
		defer close(keys)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			switch e := ev.(type) {
			case *tcell.EventKey:
				if k, ok := KeyFromTcell(e); ok {
					keys <- k
				}
			case *tcell.EventResize:
				w, h := e.Size()
				select {
				case resize <- Size{Width: w, Height: h}:
				default:
				}
			}
		}
	}()
	return Input{Keys: keys, Resize: resize}
}
