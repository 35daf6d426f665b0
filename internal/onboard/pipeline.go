// Package onboard runs the two-phase register-then-publish protocol that
// makes a batch externally visible.
package onboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/errors"
)

// Stage names the protocol step a failure happened in. Operators need to
// know which one: a publish failure leaves the batch registered upstream
// but not published, and only a human reconciles that.
type Stage string

const (
	StageRegister Stage = "register"
	StagePublish  Stage = "publish"
)

type Result int

const (
	Success Result = iota
	// PartialFailure means register succeeded and publish did not.
	PartialFailure
	Failure
)

// Outcome is the terminal state of one onboarding attempt. Stage is set
// for PartialFailure and Failure.
type Outcome struct {
	Result Result
	Stage  Stage
	Err    error
}

const (
	defaultTimeout    = 30 * time.Second
	defaultSweepDelay = time.Second
)

type Pipeline struct {
	Client     *http.Client
	UpdateURL  string
	PublishURL string
	StatusURL  string
	SweepDelay time.Duration
}

func NewPipeline(updateURL, publishURL, statusURL string, timeout, sweepDelay time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if sweepDelay <= 0 {
		sweepDelay = defaultSweepDelay
	}
	return &Pipeline{
		Client:     &http.Client{Timeout: timeout},
		UpdateURL:  updateURL,
		PublishURL: publishURL,
		StatusURL:  statusURL,
		SweepDelay: sweepDelay,
	}
}

// Onboard runs register then publish for one batch id. Register failing
// stops the protocol before publish. A register success followed by a
// publish failure is reported as PartialFailure, never collapsed into a
// plain failure. There is no rollback of a successful register.
func (p *Pipeline) Onboard(ctx context.Context, batchUID string) Outcome {
	if err := p.register(ctx, batchUID); err != nil {
		slog.Warn("Register stage failed", "batch", batchUID, "error", err)
		return Outcome{Result: Failure, Stage: StageRegister, Err: err}
	}

	if err := p.publish(ctx, batchUID); err != nil {
		slog.Warn("Publish stage failed, batch left registered but unpublished", "batch", batchUID, "error", err)
		return Outcome{Result: PartialFailure, Stage: StagePublish, Err: err}
	}

	slog.Info("Batch onboarded", "batch", batchUID)
	return Outcome{Result: Success}
}

type statusResponse struct {
	Batches []struct {
		BatchID string `json:"batch_id"`
	} `json:"batches"`
}

// Sweep fetches the work list from the status endpoint and runs the full
// protocol for every id sequentially, pausing SweepDelay between items
// and continuing past per-item failures. The returned count is items
// attempted, not items that succeeded through both stages.
func (p *Pipeline) Sweep(ctx context.Context) (int, error) {
	runID := ulid.Make().String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.StatusURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "build status request")
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, errors.Transport("status request: " + err.Error())
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return 0, errors.Transport("status request failed: " + resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return 0, errors.Transport("read status response: " + err.Error())
	}

	var payload statusResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, errors.Transport("decode status response: " + err.Error())
	}

	slog.Info("Sweep started", "run_id", runID, "batches", len(payload.Batches))

	attempted := 0
	for i, item := range payload.Batches {
		if i > 0 {
			select {
			case <-time.After(p.SweepDelay):
			case <-ctx.Done():
				return attempted, ctx.Err()
			}
		}

		attempted++
		outcome := p.Onboard(ctx, item.BatchID)
		if outcome.Err != nil {
			slog.Warn("Sweep item failed, continuing",
				"run_id", runID, "batch", item.BatchID, "stage", outcome.Stage, "error", outcome.Err)
		}
	}

	slog.Info("Sweep finished", "run_id", runID, "attempted", attempted)
	return attempted, nil
}

func (p *Pipeline) register(ctx context.Context, batchUID string) error {
	payload, err := json.Marshal(map[string]string{"batch_id": batchUID})
	if err != nil {
		return errors.Wrap(err, "encode register payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.UpdateURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build register request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("register request: %s: %w", err.Error(), errors.ErrRegister)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if !is2xx(resp.StatusCode) {
		return fmt.Errorf("register returned %s: %w", resp.Status, errors.ErrRegister)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, batchUID string) error {
	endpoint, err := publishEndpoint(p.PublishURL, batchUID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build publish request")
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("publish request: %s: %w", err.Error(), errors.ErrPublish)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if !is2xx(resp.StatusCode) {
		return fmt.Errorf("publish returned %s: %w", resp.Status, errors.ErrPublish)
	}
	return nil
}

func publishEndpoint(baseURL, batchUID string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", errors.Wrap(err, "invalid publish endpoint")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.Internal("invalid publish endpoint: " + baseURL)
	}

	q := parsed.Query()
	q.Set("batch_id", batchUID)
	parsed.RawQuery = q.Encode()

	return parsed.String(), nil
}

func is2xx(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
