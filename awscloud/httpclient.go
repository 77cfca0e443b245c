package awscloud

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Transport errors that come back the same on every attempt. net/http does
// not type most of them.
var permanentTransportRe = regexp.MustCompile(
	`stopped after \d+ redirects\z|unsupported protocol scheme|invalid header|certificate is not trusted`)

// HTTPClientOptions tunes the transport shared by every service client.
type HTTPClientOptions struct {
	Timeout  time.Duration
	RetryMax int
	// RootCAs replaces the system pool when set, e.g. from AWS_CA_BUNDLE.
	RootCAs *x509.CertPool
}

// DefaultHTTPClientOptions returns a 30 second timeout and three transport
// retries.
func DefaultHTTPClientOptions() HTTPClientOptions {
	return HTTPClientOptions{
		Timeout:  30 * time.Second,
		RetryMax: 3,
	}
}

// NewHTTPClient returns an HTTP client that retries transport failures,
// throttling and 5xx responses with jittered exponential back-off. Once the
// retries are spent the last response goes back to the SDK with its body, so
// the service error code is still decoded there.
func NewHTTPClient(opts HTTPClientOptions, logger *zap.Logger) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	if opts.RootCAs != nil {
		transport.TLSClientConfig = &tls.Config{
			RootCAs:    opts.RootCAs,
			MinVersion: tls.VersionTLS12,
		}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = opts.Timeout
	rc.HTTPClient.Transport = transport
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = RetryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		rc.Logger = leveledLogger{logger.Sugar()}
	} else {
		rc.Logger = nil
	}
	return rc.StandardClient()
}

// RetryPolicy decides whether a request is sent again. Only a done context
// produces an error; responses are judged by status code alone.
func RetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return !permanentTransportError(err), nil
	}
	return retryableStatus(resp.StatusCode), nil
}

// retryableStatus treats 0 and unknown codes like server errors. 501 never
// changes on retry.
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusNotImplemented:
		return false
	default:
		return code == 0 || code >= 500
	}
}

func permanentTransportError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return true
	}
	return permanentTransportRe.MatchString(err.Error())
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
