// Package feed reads the roster, marks and class timelines from the console REST backend.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
)

const (
	RequestIDHeader = "X-Request-ID"

	maxBodySize = 32 << 20
)

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

type Client struct {
	baseURL string
	token   string
	http    Doer
}

var _ progress.Source = (*Client)(nil) // interface compliance check

func NewClient(conf *core.Config, doer ...Doer) *Client {
	c := &Client{
		baseURL: strings.TrimRight(conf.Feed.BaseURL, "/"),
		token:   conf.Feed.Token,
	}
	if len(doer) > 0 && doer[0] != nil {
		c.http = doer[0]
	} else {
		c.http = &http.Client{Timeout: conf.Feed.Timeout}
	}
	return c
}

// Students fetches GET /students?class=&section=. Filtering is applied again locally
// in case the backend ignores the query.
func (c *Client) Students(ctx context.Context, filter progress.CohortFilter) ([]progress.Student, error) {
	q := make(url.Values)
	if filter.Class != "" {
		q.Set("class", filter.Class)
	}
	if filter.Section != "" {
		q.Set("section", filter.Section)
	}
	rows, err := c.getList(ctx, "/students", q)
	if err != nil {
		return nil, errors.Wrap(err, "fetching roster")
	}
	return progress.FilterStudents(progress.NormalizeStudents(rows), filter), nil
}

// Student fetches GET /students/:id.
func (c *Client) Student(ctx context.Context, id string) (progress.Student, error) {
	rows, err := c.getList(ctx, "/students/"+url.PathEscape(strings.TrimSpace(id)), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return progress.Student{}, progress.ErrNotFound
		}
		return progress.Student{}, errors.Wrap(err, "fetching student")
	}
	if len(rows) == 0 {
		return progress.Student{}, progress.ErrNotFound
	}
	s := progress.NormalizeStudent(rows[0])
	if s.ID == "" {
		s.ID = strings.TrimSpace(id)
	}
	return s, nil
}

// StudentMarks fetches GET /students/:id/marks. Rows without a student id are attributed to studentID.
func (c *Client) StudentMarks(ctx context.Context, studentID string) ([]progress.Mark, error) {
	rows, err := c.getList(ctx, "/students/"+url.PathEscape(studentID)+"/marks", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetching marks")
	}
	marks := progress.NormalizeMarks(rows)
	for i := range marks {
		if marks[i].StudentID == "" {
			marks[i].StudentID = studentID
		}
	}
	return marks, nil
}

// ClassExams fetches GET /classes/:class/exam-timeline.
func (c *Client) ClassExams(ctx context.Context, class string) ([]progress.ClassExam, error) {
	rows, err := c.getList(ctx, "/classes/"+url.PathEscape(strings.TrimSpace(class))+"/exam-timeline", nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, progress.ErrClassNotFound
		}
		return nil, errors.Wrap(err, "fetching class exams")
	}
	return progress.NormalizeClassExams(rows), nil
}

func (c *Client) getList(ctx context.Context, path string, q url.Values) ([]progress.RawRecord, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	reqID := core.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	req.Header.Set(RequestIDHeader, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: req.Method, URL: u, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	return decodeList(body)
}

// decodeList accepts a bare array, a single object, or either wrapped in a {"data": ...} envelope.
func decodeList(body []byte) ([]progress.RawRecord, error) {
	var payload interface{}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	if obj, ok := payload.(map[string]interface{}); ok {
		if data, ok := obj["data"]; ok {
			payload = data
		}
	}

	switch v := payload.(type) {
	case nil:
		return []progress.RawRecord{}, nil
	case []interface{}:
		rows := make([]progress.RawRecord, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				rows = append(rows, progress.RawRecord(obj))
			}
		}
		return rows, nil
	case map[string]interface{}:
		return []progress.RawRecord{progress.RawRecord(v)}, nil
	default:
		return nil, errors.Errorf("decoding response: unexpected %T payload", payload)
	}
}
