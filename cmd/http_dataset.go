package cmd

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// HttpDataset downloads the digits dataset over HTTP. The body is parsed the
// same way as DigitsDataset, gzip or plain.
type HttpDataset struct {
	URL    string
	client *retryablehttp.Client
}

func NewHttpDataset(url string) *HttpDataset {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = log.StandardLogger()

	return &HttpDataset{URL: url, client: client}
}

func (ds *HttpDataset) Name() string {
	return ds.URL
}

func (ds *HttpDataset) Load() (Dataset, error) {
	start := time.Now()

	response, err := ds.client.Get(ds.URL)
	if err != nil {
		return nil, withKind(ErrDataUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Wrapf(ErrDataUnavailable,
			"GET %s failed with status code %d", ds.URL, response.StatusCode)
	}

	data, err := parseDigits(response.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", ds.URL)
	}

	log.WithFields(log.Fields{"url": ds.URL, "rows": len(data),
		"duration": time.Since(start)}).Debug("Downloaded digits dataset")

	return data, nil
}
