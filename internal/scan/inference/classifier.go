package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/romariotrain/eyescan/internal/scan/models"
)

// Classifier calls POST /predict with the scan as a multipart "file" field.
type Classifier struct {
	client
}

func NewClassifier(cfg ClientConfig) (*Classifier, error) {
	c, err := newClient(cfg, "classifier")
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return &Classifier{client: c}, nil
}

type predictResponse struct {
	Label       *string  `json:"label"`
	Probability *float64 `json:"probability"`
	Confidence  *float64 `json:"confidence"`
	Error       string   `json:"error"`
}

// Classify uploads the candidate and returns the predicted label. Errors wrap
// models.ErrTransport or models.ErrParse.
func (c *Classifier) Classify(ctx context.Context, cand models.UploadCandidate) (models.ClassificationResult, error) {
	body, contentType, err := encodeScan(cand)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("encode scan: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/predict", body)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, raw, err := c.do(req)
	if err != nil {
		return models.ClassificationResult{}, models.WrapTransport("predict", err)
	}

	var out predictResponse
	decodeErr := json.Unmarshal(raw, &out)

	if !isSuccess(resp.StatusCode) {
		msg := snippet(raw)
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return models.ClassificationResult{}, models.TransportErrorf("predict status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return models.ClassificationResult{}, models.ParseErrorf("predict body: %v", decodeErr)
	}

	return out.result()
}

func (r predictResponse) result() (models.ClassificationResult, error) {
	if r.Label == nil || strings.TrimSpace(*r.Label) == "" {
		return models.ClassificationResult{}, models.ParseErrorf("predict body has no label")
	}

	conf := r.Probability
	if conf == nil {
		conf = r.Confidence
	}
	if conf == nil {
		return models.ClassificationResult{}, models.ParseErrorf("predict body has no probability")
	}
	if math.IsNaN(*conf) || *conf < 0 || *conf > 1 {
		return models.ClassificationResult{}, models.ParseErrorf("probability %v out of range", *conf)
	}

	return models.ClassificationResult{Label: *r.Label, Confidence: *conf}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeScan(cand models.UploadCandidate) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(cand.FileName)))
	ct := cand.DeclaredMimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(cand.RawBytes); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
