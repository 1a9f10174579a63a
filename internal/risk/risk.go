// Package risk queries an external advisory service about an outgoing
// transfer. The call is strictly best-effort: any failure degrades to a
// neutral "unavailable" advisory instead of blocking the send.
package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// AdviceUnavailable is returned whenever the advisory service cannot answer
const AdviceUnavailable = "Risk analysis unavailable"

const requestTimeout = 10 * time.Second

// Advisor assesses the risk of sending an amount to an address
type Advisor interface {
	Assess(ctx context.Context, toAddress, amount string) string
}

// Client is an Advisor backed by a Gemini-style generateContent endpoint
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates an advisory client. An empty apiKey disables the service;
// Assess then answers AdviceUnavailable immediately.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   "gemini-2.5-flash",
		http: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Assess returns a short human-readable risk assessment for the transfer.
// Never returns an error: unavailability is part of the advisory contract.
func (c *Client) Assess(ctx context.Context, toAddress, amount string) string {
	if c.apiKey == "" {
		return AdviceUnavailable
	}

	prompt := fmt.Sprintf("Analyze risk for sending %s crypto to address %s. Return brief advice.", amount, toAddress)
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return AdviceUnavailable
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return AdviceUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("Risk advisory request failed")
		return AdviceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("Risk advisory returned non-OK status")
		return AdviceUnavailable
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logrus.WithError(err).Warn("Risk advisory response decode failed")
		return AdviceUnavailable
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return AdviceUnavailable
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return AdviceUnavailable
	}
	return text
}
