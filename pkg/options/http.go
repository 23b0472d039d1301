package options

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultTimeout bounds a single option fetch.
const DefaultTimeout = 10 * time.Second

// ErrNoResults reports a payload without a row array where one was expected.
var ErrNoResults = errors.New("options: payload holds no result array")

// HTTPSource fetches option rows from a JSON endpoint. The payload is either a
// bare array of rows or an envelope whose rows live under ResultsPath.
type HTTPSource struct {
	URL         string
	ResultsPath string
	IDField     string
	NameField   string

	client  *http.Client
	timeout time.Duration
	params  map[string]string
}

// HTTPOption customises an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithResultsPath points at the row array inside an envelope, e.g. "data.items".
func WithResultsPath(path string) HTTPOption {
	return func(s *HTTPSource) {
		s.ResultsPath = strings.TrimSpace(path)
	}
}

// WithFields maps the id and name columns when the endpoint does not use the
// default "id" and "name" keys.
func WithFields(id, name string) HTTPOption {
	return func(s *HTTPSource) {
		if id = strings.TrimSpace(id); id != "" {
			s.IDField = id
		}
		if name = strings.TrimSpace(name); name != "" {
			s.NameField = name
		}
	}
}

// WithParam adds a query parameter to every request.
func WithParam(key, value string) HTTPOption {
	return func(s *HTTPSource) {
		if s.params == nil {
			s.params = make(map[string]string)
		}
		s.params[key] = value
	}
}

// NewHTTPSource constructs a source for url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		URL:       strings.TrimSpace(url),
		IDField:   "id",
		NameField: "name",
		client:    http.DefaultClient,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Options performs a GET and decodes the rows. Rows without an id are skipped;
// rows without a name fall back to the id.
func (s *HTTPSource) Options(ctx context.Context) ([]Option, error) {
	if s == nil || s.URL == "" {
		return nil, fmt.Errorf("options: http source has no url")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("options: request %s: %w", s.URL, err)
	}
	if len(s.params) > 0 {
		q := req.URL.Query()
		for k, v := range s.params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("options: fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("options: fetch %s: unexpected status %d", s.URL, resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("options: decode %s: %w", s.URL, err)
	}

	items, err := extractResults(payload, s.ResultsPath)
	if err != nil {
		return nil, fmt.Errorf("options: decode %s: %w", s.URL, err)
	}
	out := make([]Option, 0, len(items))
	for _, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}
		opt := Option{
			ID:       pickValue(row, s.IDField),
			Name:     pickValue(row, s.NameField),
			Keywords: stringList(row["keywords"]),
			Tooltip:  pickValue(row, "tooltip"),
		}
		if opt.ID == "" {
			continue
		}
		if opt.Name == "" {
			opt.Name = opt.ID
		}
		out = append(out, opt)
	}
	return out, nil
}

// extractResults finds the row array. A bare array payload is used as is,
// whatever the configured path.
func extractResults(payload any, path string) ([]any, error) {
	if items, ok := payload.([]any); ok {
		return items, nil
	}
	if path == "" {
		return nil, ErrNoResults
	}
	cur := payload
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w at %q", ErrNoResults, path)
		}
		cur = node[segment]
	}
	items, ok := cur.([]any)
	if !ok {
		return nil, fmt.Errorf("%w at %q", ErrNoResults, path)
	}
	return items, nil
}

func pickValue(m map[string]any, path string) string {
	if path == "" {
		return ""
	}
	cur := any(m)
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = node[segment]
	}
	if cur == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cur))
}

func stringList(value any) []string {
	switch typed := value.(type) {
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(typed)
	default:
		return nil
	}
}
