package catalog

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/widget"
)

var stocks = []struct {
	Name string
	Base float64
}{
	{"Apple", 285}, {"Google", 142}, {"Microsoft", 378}, {"Amazon", 178}, {"NVIDIA", 475},
}

// quotes returns the prices at tick n: each stock oscillates within 5% of
// its base price.
func quotes(n int) []map[string]any {
	rows := make([]map[string]any, len(stocks))
	for i, s := range stocks {
		swing := 0.05 * math.Sin(float64(n)*0.7+float64(i))
		price := math.Round(s.Base*(1+swing)*100) / 100
		rows[i] = map[string]any{"category": s.Name, "price": price}
	}
	return rows
}

// runningTickers counts ticker goroutines that have not exited.
var runningTickers atomic.Int64

// tickerHandle is the live ticker's custom slot value.
type tickerHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *tickerHandle) stop() { h.once.Do(func() { close(h.done) }) }

// LiveTicker returns a bar chart of stock prices that pushes new quotes
// through UpdateData on every tick. The ticking goroutine lives in the
// widget's custom slot; re-initializing replaces it and Release stops it.
func LiveTicker(id layout.ID, opts Options) *widget.Widget {
	interval := opts.TickInterval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	w := &widget.Widget{
		Layout: layout.Item{
			I: id, W: 2, H: 8,
			MinW: layout.Int(2), MaxW: layout.Int(4),
			MinH: layout.Int(6), MaxH: layout.Int(12),
		},
		Type:           widget.Bar,
		DisplayName:    "Live Stock Prices",
		SkipDateFilter: true,
		Teardown:       stopTicker,
	}
	w.Initialize = func(ctx context.Context, in widget.InitParams) (widget.State, error) {
		// The handle is in place before the load so a Release during it
		// stops the ticker that would follow.
		h := &tickerHandle{done: make(chan struct{})}
		if prev, ok := w.SetCustom(h).(*tickerHandle); ok {
			prev.stop()
		}
		if err := wait(ctx, opts.Latency); err != nil {
			h.stop()
			return widget.State{}, err
		}

		update := in.Callbacks.UpdateData
		select {
		case <-h.done:
			update = nil
		default:
		}
		if update != nil {
			runningTickers.Add(1)
			go func() {
				defer runningTickers.Add(-1)
				t := time.NewTicker(interval)
				defer t.Stop()
				for n := 1; ; n++ {
					select {
					case <-h.done:
						return
					case <-t.C:
						update(widget.Data{"data": quotes(n)})
					}
				}
			}()
		}

		return widget.State{
			Header: &widget.Header{Title: "Live Stock Prices", Subtitle: "Updates automatically"},
			Data:   widget.Data{"type": string(widget.Bar), "data": quotes(0), "series": []string{"price"}},
		}, nil
	}
	return w
}

func stopTicker(w *widget.Widget) {
	if h, ok := w.SetCustom(nil).(*tickerHandle); ok {
		h.stop()
	}
}

// TickerRunning reports whether w holds a running ticker.
func TickerRunning(w *widget.Widget) bool {
	h, ok := w.Custom().(*tickerHandle)
	if !ok {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
