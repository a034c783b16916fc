// Package api implements the HTTP client for the event-export job service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/client/models"
	"github.com/dmitrijs2005/eventexport/internal/common"
)

const defaultRequestTimeout = 30 * time.Second

// TriggerRequest is the body of the export trigger call. All fields are
// optional; an empty request asks for a default export into service-managed
// storage.
type TriggerRequest struct {
	S3     *S3Destination `json:"s3,omitempty"`
	Fields []string       `json:"fields,omitempty"`
}

// S3Destination configures where and how the export is written. SSE-C fields
// carry the customer key material; bucket fields redirect the export into a
// customer-owned bucket.
type S3Destination struct {
	BucketName      string `json:"bucket_name,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	EndpointURL     string `json:"endpoint_url,omitempty"`
	RegionName      string `json:"region_name,omitempty"`

	SSECustomerKey       string `json:"sse_customer_key,omitempty"`
	SSECustomerKeyMD5    string `json:"sse_customer_key_md5,omitempty"`
	SSECustomerAlgorithm string `json:"sse_customer_algorithm,omitempty"`
}

type triggerResponse struct {
	TaskUUID string `json:"task_uuid"`
}

type taskResponse struct {
	Status     string `json:"status"`
	Total      int64  `json:"total"`
	Progress   int64  `json:"progress"`
	Message    string `json:"message"`
	Attributes struct {
		DownloadURL string `json:"download_url"`
		Bucket      string `json:"bucket"`
		ObjectKey   string `json:"object_key"`
		Error       string `json:"error"`
		SSEC        bool   `json:"sse_c"`
	} `json:"attributes"`
}

// HTTPClient talks to the job service over HTTPS with bearer-token auth.
type HTTPClient struct {
	apiHost string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient builds a client for the given API host (bare hostname, no
// scheme) authenticated with apiKey.
func NewHTTPClient(apiHost, apiKey string) *HTTPClient {
	return &HTTPClient{
		apiHost: apiHost,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (c *HTTPClient) baseURL() string {
	if strings.Contains(c.apiHost, "://") {
		return strings.TrimSuffix(c.apiHost, "/")
	}
	return "https://" + strings.TrimSuffix(c.apiHost, "/")
}

func (c *HTTPClient) TriggerExport(ctx context.Context, jobID string, treq *TriggerRequest) (string, error) {

	url := fmt.Sprintf("%s/v1/sic/conf/events/search/jobs/%s/export", c.baseURL(), jobID)

	var body io.Reader
	if treq != nil && (treq.S3 != nil || len(treq.Fields) > 0) {
		data, err := json.Marshal(treq)
		if err != nil {
			return "", fmt.Errorf("encoding trigger request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("triggering export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", &TriggerError{StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
	}

	var tr triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding trigger response: %w", err)
	}
	if tr.TaskUUID == "" {
		return "", common.ErrNoTaskID
	}

	return tr.TaskUUID, nil
}

func (c *HTTPClient) FetchTask(ctx context.Context, taskID string) (*models.Task, error) {

	url := fmt.Sprintf("%s/v1/tasks/%s", c.baseURL(), taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &StatusFetchError{TaskID: taskID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusFetchError{TaskID: taskID, StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
	}

	var tr taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &StatusFetchError{TaskID: taskID, Err: fmt.Errorf("decoding task response: %w", err)}
	}

	task := &models.Task{
		ID:             taskID,
		Status:         models.ParseStatus(tr.Status),
		Completed:      tr.Progress,
		Total:          tr.Total,
		ResultLocation: tr.Attributes.DownloadURL,
		Encrypted:      tr.Attributes.SSEC,
	}

	// exports delivered into a customer-owned bucket have no pre-signed URL;
	// the bucket and object key stand in as the result location
	if task.ResultLocation == "" && tr.Attributes.Bucket != "" && tr.Attributes.ObjectKey != "" {
		task.ResultLocation = "s3://" + tr.Attributes.Bucket + "/" + tr.Attributes.ObjectKey
	}

	if task.Status == models.StatusFailed || task.Status == models.StatusCancelled {
		// the API reports error details in either place depending on version
		task.FailureDetail = tr.Message
		if task.FailureDetail == "" {
			task.FailureDetail = tr.Attributes.Error
		}
	}

	return task, nil
}

// readBodyForError reads a bounded amount of a response body for inclusion in
// an error message.
func readBodyForError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return strings.TrimSpace(string(b))
}
