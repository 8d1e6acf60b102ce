package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// waybackResponse is the subset of the archive.org availability API this
// client cares about: archived_snapshots.closest.url.
type waybackResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// lookupArchive queries the wayback availability endpoint and returns the
// closest snapshot URL, or "" if none is archived. This one endpoint is
// hand-rolled against net/http: no archive.org client exists anywhere in
// the corpus this module was built against.
func (f *Fetcher) lookupArchive(ctx context.Context, target string) (string, error) {
	if f.cfg.ArchiveURL == "" {
		return "", nil
	}
	q := url.Values{}
	q.Set("url", target)
	lookupURL := fmt.Sprintf("%s?%s", f.cfg.ArchiveURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wayback lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed waybackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if !parsed.ArchivedSnapshots.Closest.Available {
		return "", nil
	}
	return parsed.ArchivedSnapshots.Closest.URL, nil
}
