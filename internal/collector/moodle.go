package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	restPath  = "/webservice/rest/server.php"
	tokenPath = "/login/token.php"

	DefaultService = "moodle_mobile_app"
	DefaultTimeout = 30 * time.Second
)

// MoodleClient implements Client against the Moodle REST web service.
type MoodleClient struct {
	BaseURL string
	Token   string
	Service string
	Client  *http.Client
}

// NewMoodleClient creates a client with a bounded per-call timeout and
// optional proxy support.
func NewMoodleClient(baseURL, token, service string, timeout time.Duration, proxyURL string) *MoodleClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if service == "" {
		service = DefaultService
	}
	return &MoodleClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Service: service,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (c *MoodleClient) Name() string { return "moodle" }

func (c *MoodleClient) GetSiteInfo(ctx context.Context) (*SiteInfo, error) {
	var info SiteInfo
	if err := c.call(ctx, "core_webservice_get_site_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *MoodleClient) GetEnrolledCourses(ctx context.Context, userID int64) ([]EnrolledCourse, error) {
	params := url.Values{"userid": {strconv.FormatInt(userID, 10)}}
	var courses []EnrolledCourse
	if err := c.call(ctx, "core_enrol_get_users_courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *MoodleClient) GetGradeItems(ctx context.Context, courseID, userID int64) (*GradeReport, error) {
	params := url.Values{
		"courseid": {strconv.FormatInt(courseID, 10)},
		"userid":   {strconv.FormatInt(userID, 10)},
	}
	var report GradeReport
	if err := c.call(ctx, "gradereport_user_get_grade_items", params, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// RequestToken exchanges a username and password for a web-service token.
func (c *MoodleClient) RequestToken(ctx context.Context, username, password string) (string, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
		"service":  {c.Service},
	}
	body, err := c.post(ctx, c.BaseURL+tokenPath, form)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	var result struct {
		Token     string `json:"token"`
		Error     string `json:"error"`
		ErrorCode string `json:"errorcode"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if result.Token == "" {
		if result.Error != "" {
			return "", fmt.Errorf("request token: %s (%s)", result.Error, result.ErrorCode)
		}
		return "", fmt.Errorf("request token: no token in response")
	}
	return result.Token, nil
}

func (c *MoodleClient) call(ctx context.Context, function string, params url.Values, out interface{}) error {
	if c.Token == "" {
		return ErrMissingToken
	}
	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("wstoken", c.Token)
	form.Set("wsfunction", function)
	form.Set("moodlewsrestformat", "json")

	body, err := c.post(ctx, c.BaseURL+restPath, form)
	if err != nil {
		return fmt.Errorf("%s: %w", function, err)
	}
	if apiErr := exceptionPayload(body); apiErr != nil {
		return fmt.Errorf("%s: %w", function, apiErr)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", function, err)
	}
	return nil
}

func (c *MoodleClient) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// exceptionPayload returns the API error carried by an object response with
// an "exception" key, or nil.
func exceptionPayload(body []byte) *APIError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(trimmed, &apiErr); err != nil {
		return nil
	}
	if apiErr.Exception == "" {
		return nil
	}
	return &apiErr
}
