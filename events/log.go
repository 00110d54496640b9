package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
)

// BlockEvents is one committed block's worth of notifications.
type BlockEvents struct {
	Height uint64            `json:"height"`
	Time   time.Time         `json:"time"`
	Events []abcitypes.Event `json:"events"`
}

// Log is the append-only sink the node writes block events to, one JSON
// line per block. The engine never reads it back; downstream consumers
// poll ReadFrom.
type Log struct {
	mtx  sync.Mutex
	path string
	f    *os.File
}

func OpenLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Log{path: path, f: f}, nil
}

func (l *Log) Append(be BlockEvents) error {
	dat, err := json.Marshal(be)
	if err != nil {
		return err
	}
	dat = append(dat, '\n')
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if _, err = l.f.Write(dat); err != nil {
		return err
	}
	return l.f.Sync()
}

// ReadFrom returns every recorded block at or above height, oldest first.
func (l *Log) ReadFrom(height uint64) ([]BlockEvents, error) {
	return NewReader(l.path).ReadFrom(height)
}

// Reader tails a log written by another handle, possibly in another
// process. Every ReadFrom re-opens the file so appends since the last call
// are visible.
type Reader struct {
	path string
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) ReadFrom(height uint64) ([]BlockEvents, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var out []BlockEvents
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var be BlockEvents
		if err := json.Unmarshal(line, &be); err != nil {
			return nil, fmt.Errorf("corrupt event log: %w", err)
		}
		if be.Height >= height {
			out = append(out, be)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Log) Close() error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.f.Close()
}
