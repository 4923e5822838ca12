// Package jira files tickets and uploads slide image attachments through
// the Jira Cloud REST API (v3), with bounded parallelism across a batch.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"

	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/httpclient"
	"deck2jira/internal/common/logger"
	"deck2jira/internal/common/metrics"
	"deck2jira/internal/models"
)

const maxSummaryLength = 200

// Client talks to a Jira Cloud instance with basic auth (email + API
// token).
type Client struct {
	cfg    *config.Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg *config.Config, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   httpclient.NewClient(config.GetDuration(cfg.Processing.RequestTimeout)),
		logger: log.With(map[string]interface{}{"stage": "jira"}),
	}
}

type issuePayload struct {
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Project   keyRef   `json:"project"`
	IssueType nameRef  `json:"issuetype"`
	Summary   string   `json:"summary"`
	Desc      adfDoc   `json:"description"`
	Labels    []string `json:"labels"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

// CreateIssue files one ticket and returns its issue key. An analysis with
// no project key is a routing contract violation, never silently defaulted.
func (c *Client) CreateIssue(ctx context.Context, analysis models.SlideAnalysis) (string, error) {
	if analysis.ProjectKey == "" {
		return "", commonerrors.NewMissingProjectKeyError(analysis.SlideNumber)
	}

	labels := append([]string{}, analysis.Labels...)
	labels = append(labels, fmt.Sprintf("slide-%d", analysis.SlideNumber))

	payload := issuePayload{Fields: issueFields{
		Project:   keyRef{Key: analysis.ProjectKey},
		IssueType: nameRef{Name: analysis.IssueType},
		Summary:   truncate(analysis.Title, maxSummaryLength),
		Desc:      documentFromMarkdown(analysis.Description),
		Labels:    labels,
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", commonerrors.NewIssueCreateFailedError(analysis.SlideNumber, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Jira.BaseURL+"/rest/api/3/issue", bytes.NewReader(body))
	if err != nil {
		return "", commonerrors.NewIssueCreateFailedError(analysis.SlideNumber, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Jira.Email, c.cfg.Jira.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", commonerrors.NewIssueCreateFailedError(analysis.SlideNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", commonerrors.NewIssueCreateFailedError(analysis.SlideNumber,
			fmt.Errorf("unexpected status %s: %s", resp.Status, string(snippet)))
	}

	var result struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", commonerrors.NewIssueCreateFailedError(analysis.SlideNumber, err)
	}

	c.logger.Info("created issue", map[string]interface{}{
		"issue":   result.Key,
		"slide":   analysis.SlideNumber,
		"project": analysis.ProjectKey,
	})
	return result.Key, nil
}

// CreateIssuesBatch files tickets for every analysis in parallel, capped at
// the configured concurrency. A failed creation leaves that record without
// a key and the rest of the batch proceeds. If any record arrives without a
// project key the whole batch is rejected before a single request is sent.
func (c *Client) CreateIssuesBatch(ctx context.Context, analyses []models.SlideAnalysis) ([]models.SlideAnalysis, error) {
	for _, analysis := range analyses {
		if analysis.ProjectKey == "" {
			return nil, commonerrors.NewMissingProjectKeyError(analysis.SlideNumber)
		}
	}

	c.logger.Info("creating issues", map[string]interface{}{
		"count":         len(analyses),
		"maxConcurrent": c.cfg.Processing.MaxConcurrentRequests,
	})

	results := make([]models.SlideAnalysis, len(analyses))
	copy(results, analyses)

	sem := semaphore.NewWeighted(int64(c.cfg.Processing.MaxConcurrentRequests))
	var wg sync.WaitGroup

	for i := range results {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			key, err := c.CreateIssue(ctx, results[i])
			if err != nil {
				metrics.TicketsFailed.Inc()
				c.logger.WithError(err).Error("issue creation failed", map[string]interface{}{
					"slide": results[i].SlideNumber,
				})
				return
			}
			results[i].JiraKey = key
			metrics.TicketsCreated.Inc()
		}(i)
	}

	wg.Wait()
	return results, nil
}

// AttachImage uploads one slide image to an existing issue.
func (c *Client) AttachImage(ctx context.Context, issueKey, imagePath string) error {
	content, err := os.ReadFile(imagePath)
	if err != nil {
		return commonerrors.NewAttachmentFailedError(issueKey, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(imagePath)))
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return commonerrors.NewAttachmentFailedError(issueKey, err)
	}
	if _, err := part.Write(content); err != nil {
		return commonerrors.NewAttachmentFailedError(issueKey, err)
	}
	if err := writer.Close(); err != nil {
		return commonerrors.NewAttachmentFailedError(issueKey, err)
	}

	url := fmt.Sprintf("%s/rest/api/3/issue/%s/attachments", c.cfg.Jira.BaseURL, issueKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return commonerrors.NewAttachmentFailedError(issueKey, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	// Required by Jira to bypass XSRF protection on multipart uploads.
	req.Header.Set("X-Atlassian-Token", "no-check")
	req.SetBasicAuth(c.cfg.Jira.Email, c.cfg.Jira.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return commonerrors.NewAttachmentFailedError(issueKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return commonerrors.NewAttachmentFailedError(issueKey,
			fmt.Errorf("unexpected status %s: %s", resp.Status, string(snippet)))
	}

	c.logger.Info("attached slide image", map[string]interface{}{
		"issue": issueKey,
		"image": filepath.Base(imagePath),
	})
	return nil
}

// AttachImagesBatch uploads images for every successfully filed ticket in
// parallel. Attachment failures are logged and swallowed: the ticket already
// exists and carries the extracted text, so a missing image never fails the
// run.
func (c *Client) AttachImagesBatch(ctx context.Context, analyses []models.SlideAnalysis, slideImages map[int]string) {
	type upload struct {
		issueKey  string
		imagePath string
	}
	var uploads []upload
	for _, analysis := range analyses {
		imagePath, ok := slideImages[analysis.SlideNumber]
		if analysis.JiraKey == "" || !ok {
			continue
		}
		uploads = append(uploads, upload{issueKey: analysis.JiraKey, imagePath: imagePath})
	}
	if len(uploads) == 0 {
		return
	}

	c.logger.Info("attaching images", map[string]interface{}{"count": len(uploads)})

	sem := semaphore.NewWeighted(int64(c.cfg.Processing.MaxConcurrentRequests))
	var wg sync.WaitGroup

	for _, u := range uploads {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(u upload) {
			defer wg.Done()
			defer sem.Release(1)

			if err := c.AttachImage(ctx, u.issueKey, u.imagePath); err != nil {
				metrics.AttachmentsFailed.Inc()
				c.logger.WithError(err).Warn("attachment failed", map[string]interface{}{
					"issue": u.issueKey,
				})
			}
		}(u)
	}

	wg.Wait()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
