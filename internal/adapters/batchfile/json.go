// Package batchfile implements ports.BatchSource over JSON files: raw wire
// structs decoded by encoding/json, then converted to domain entities in
// one place.
package batchfile

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gnosis/dex-open-solver/internal/domain"
	"github.com/gnosis/dex-open-solver/internal/ports"
)

// orderDTO is the wire shape of one order. Amounts are strings parsed by
// big.Rat.SetString (e.g. "10", "2.5" or "10/3") so the exact big.Rat
// survives the JSON round trip.
type orderDTO struct {
	ID         string `json:"id"`
	BuyToken   string `json:"buy_token"`
	SellToken  string `json:"sell_token"`
	MaxSell    string `json:"max_sell_amount"`
	LimitPrice string `json:"limit_price"`
}

// batchDTO is the wire shape of one batch file.
type batchDTO struct {
	ID     string     `json:"id"`
	Tau1   string     `json:"tau1"`
	Tau2   string     `json:"tau2"`
	Orders []orderDTO `json:"orders"`
}

// decode parses raw JSON batch bytes into a ports.Batch.
func decode(raw []byte) (ports.Batch, error) {
	var dto batchDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return ports.Batch{}, fmt.Errorf("batchfile: decode: %w", err)
	}
	orders := make([]domain.Order, 0, len(dto.Orders))
	for _, o := range dto.Orders {
		maxSell, ok := new(big.Rat).SetString(o.MaxSell)
		if !ok {
			return ports.Batch{}, fmt.Errorf("batchfile: order %q: invalid max_sell_amount %q", o.ID, o.MaxSell)
		}
		limit, ok := new(big.Rat).SetString(o.LimitPrice)
		if !ok {
			return ports.Batch{}, fmt.Errorf("batchfile: order %q: invalid limit_price %q", o.ID, o.LimitPrice)
		}
		orderID := o.ID
		if orderID == "" {
			orderID = uuid.New().String()
		}
		orders = append(orders, domain.Order{
			ID:         orderID,
			BuyToken:   domain.Token(o.BuyToken),
			SellToken:  domain.Token(o.SellToken),
			MaxSell:    maxSell,
			LimitPrice: limit,
		})
	}
	id := dto.ID
	if id == "" {
		id = uuid.New().String()
	}
	return ports.Batch{
		ID:     id,
		Tau1:   domain.Token(dto.Tau1),
		Tau2:   domain.Token(dto.Tau2),
		Orders: orders,
	}, nil
}

// FileSource reads a single batch from one JSON file. Next returns the
// batch once; every call after that reports exhaustion (ok=false).
type FileSource struct {
	path string
	done bool
}

var _ ports.BatchSource = (*FileSource)(nil)

// NewFileSource reads exactly one batch from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Next implements ports.BatchSource.
func (f *FileSource) Next(_ context.Context) (ports.Batch, bool, error) {
	if f.done {
		return ports.Batch{}, false, nil
	}
	f.done = true
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return ports.Batch{}, false, fmt.Errorf("batchfile: read %s: %w", f.path, err)
	}
	batch, err := decode(raw)
	if err != nil {
		return ports.Batch{}, false, err
	}
	return batch, true, nil
}

// DirWatcher polls a directory for new *.json batch files, oldest first
// (by modification time, then by name),
// throttling its filesystem polls with a token-bucket limiter so a -watch
// loop doesn't spin a CPU core reading an empty directory.
type DirWatcher struct {
	dir     string
	limiter *rate.Limiter
	seen    map[string]bool
}

var _ ports.BatchSource = (*DirWatcher)(nil)

// NewDirWatcher polls dir at most once per pollInterval.
func NewDirWatcher(dir string, pollInterval time.Duration) *DirWatcher {
	return &DirWatcher{
		dir:     dir,
		limiter: rate.NewLimiter(rate.Every(pollInterval), 1),
		seen:    make(map[string]bool),
	}
}

// Next blocks, respecting ctx, until a new *.json file appears in dir, then
// returns the oldest such file as a Batch. It never reports ok=false on its
// own; cancel ctx to stop a -watch loop.
func (w *DirWatcher) Next(ctx context.Context) (ports.Batch, bool, error) {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return ports.Batch{}, false, err
		}
		name, err := w.nextUnseen()
		if err != nil {
			return ports.Batch{}, false, err
		}
		if name == "" {
			continue
		}
		w.seen[name] = true
		raw, err := os.ReadFile(filepath.Join(w.dir, name))
		if err != nil {
			return ports.Batch{}, false, fmt.Errorf("batchfile: read %s: %w", name, err)
		}
		batch, err := decode(raw)
		if err != nil {
			return ports.Batch{}, false, err
		}
		if batch.ID == "" {
			batch.ID = name
		}
		return batch, true, nil
	}
}

func (w *DirWatcher) nextUnseen() (string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "", fmt.Errorf("batchfile: read dir %s: %w", w.dir, err)
	}
	present := make(map[string]bool, len(entries))
	modTimes := make(map[string]time.Time)
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		present[e.Name()] = true
		if !w.seen[e.Name()] {
			info, err := e.Info()
			if err != nil {
				continue // removed since ReadDir
			}
			names = append(names, e.Name())
			modTimes[e.Name()] = info.ModTime()
		}
	}
	// Drop seen entries for files no longer in dir so a long-running watch
	// doesn't grow seen without bound as batch files get processed and removed.
	for name := range w.seen {
		if !present[name] {
			delete(w.seen, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := modTimes[names[i]], modTimes[names[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}
