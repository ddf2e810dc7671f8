package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/events"
)

// Watch subscribes to /api/events and calls onChange for every "changed"
// event until ctx is cancelled or the stream ends. onReady, when non-nil, is
// called once the server confirms the subscription.
func (c *Client) Watch(ctx context.Context, onReady func(), onChange func(events.Changed)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "build events request", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The shared client has a request timeout that would cut the stream.
	hc := *c.http
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "open event stream", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var name string
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			dispatch(name, data.String(), onReady, onChange)
			name = ""
			data.Reset()
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "read event stream", err)
	}
	return nil
}

func dispatch(name, data string, onReady func(), onChange func(events.Changed)) {
	switch name {
	case "ready":
		if onReady != nil {
			onReady()
		}
	case "changed":
		var ev events.Changed
		_ = json.Unmarshal([]byte(data), &ev)
		if onChange != nil {
			onChange(ev)
		}
	}
}
