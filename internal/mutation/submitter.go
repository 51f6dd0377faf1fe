package mutation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/metrics"
)

// OutcomeKind classifies a submission result.
type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeValidation  OutcomeKind = "validation"
	OutcomeRejected    OutcomeKind = "rejected"
	OutcomeUnreachable OutcomeKind = "unreachable"
	OutcomeLocal       OutcomeKind = "local"
)

// Outcome is the result of one submission.
type Outcome struct {
	Kind     OutcomeKind
	Message  string
	Err      error
	Response *fetcher.Response
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Submission describes a write. Fields are validated locally and sent as
// form values. When Asset is set, or Multipart is true, the body is
// multipart/form-data; otherwise JSON is sent, defaulting to the field
// values as an object.
type Submission struct {
	Operation    string
	Method       string
	Path         string
	Fields       []Field
	Extra        map[string]string
	JSON         any
	Multipart    bool
	Asset        *Asset
	AssetField   string
	ExpectStatus int
}

// Form is a stateful input that can be submitted and reset.
type Form interface {
	Submission() Submission
	Reset()
}

// RejectedError marks a 2xx reply whose content the caller refused.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "rejected: " + e.Message
}

// Reject returns a *RejectedError with message.
func Reject(message string) error {
	return &RejectedError{Message: message}
}

// LocalError marks a failure on this side after the server accepted a
// submission, such as persisting its result.
type LocalError struct {
	Err error
}

func (e *LocalError) Error() string {
	return "local: " + e.Err.Error()
}

func (e *LocalError) Unwrap() error {
	return e.Err
}

// Local wraps err as a *LocalError.
func Local(err error) error {
	return &LocalError{Err: err}
}

// Doer executes backend requests.
type Doer interface {
	Do(ctx context.Context, req fetcher.Request) (*fetcher.Response, error)
}

// Submitter validates and sends submissions.
type Submitter struct {
	doer    Doer
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewSubmitter creates a submitter.
func NewSubmitter(doer Doer, m *metrics.Metrics, logger *logrus.Logger) *Submitter {
	return &Submitter{doer: doer, metrics: m, logger: logger}
}

// Submit validates sub, sends it and, on a successful reply, runs onSuccess.
// An error from onSuccess turns the outcome into a rejection.
func (s *Submitter) Submit(ctx context.Context, sub Submission, onSuccess func(*fetcher.Response) error) Outcome {
	outcome := s.submit(ctx, sub, onSuccess)
	s.metrics.Mutation(sub.Operation, string(outcome.Kind))

	log := s.logger.WithFields(logrus.Fields{
		"operation": sub.Operation,
		"outcome":   outcome.Kind,
	})
	if outcome.OK() {
		log.Info("Submission succeeded")
	} else {
		log.WithError(outcome.Err).Warn("Submission failed")
	}
	return outcome
}

// SubmitForm submits form and resets it only when the submission succeeds.
func (s *Submitter) SubmitForm(ctx context.Context, form Form, onSuccess func(*fetcher.Response) error) Outcome {
	outcome := s.Submit(ctx, form.Submission(), onSuccess)
	if outcome.OK() {
		form.Reset()
	}
	return outcome
}

func (s *Submitter) submit(ctx context.Context, sub Submission, onSuccess func(*fetcher.Response) error) Outcome {
	if err := ValidateFields(sub.Fields); err != nil {
		return Outcome{Kind: OutcomeValidation, Message: err.Error(), Err: err}
	}

	req, closers, err := build(sub)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	if err != nil {
		return Outcome{Kind: OutcomeValidation, Message: err.Error(), Err: err}
	}

	resp, err := s.doer.Do(ctx, req)
	if err != nil {
		return Classify(err)
	}

	if onSuccess != nil {
		if err := onSuccess(resp); err != nil {
			out := Classify(err)
			out.Response = resp
			return out
		}
	}
	return Outcome{Kind: OutcomeSuccess, Response: resp}
}

func build(sub Submission) (fetcher.Request, []io.Closer, error) {
	method := sub.Method
	if method == "" {
		method = http.MethodPost
	}
	req := fetcher.Request{
		Method:       method,
		Path:         sub.Path,
		ExpectStatus: sub.ExpectStatus,
	}

	values := make(map[string]string, len(sub.Fields)+len(sub.Extra))
	for _, f := range sub.Fields {
		values[f.Name] = f.Value
	}
	for k, v := range sub.Extra {
		values[k] = v
	}

	if sub.Asset == nil && !sub.Multipart {
		if sub.JSON != nil {
			req.JSON = sub.JSON
		} else {
			req.JSON = values
		}
		return req, nil, nil
	}

	req.Form = values
	if sub.Asset == nil {
		return req, nil, nil
	}

	field := sub.AssetField
	if field == "" {
		field = DefaultAssetField
	}
	part, closer, err := sub.Asset.Part(field)
	if err != nil {
		return req, nil, fmt.Errorf("cannot read %s: %w", sub.Asset.FileName(), err)
	}
	req.Files = []fetcher.File{part}
	return req, []io.Closer{closer}, nil
}

// Classify maps an error from a backend call to an outcome.
func Classify(err error) Outcome {
	var local *LocalError
	if errors.As(err, &local) {
		return Outcome{Kind: OutcomeLocal, Err: err}
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return Outcome{Kind: OutcomeRejected, Message: rejected.Message, Err: err}
	}

	kind, ok := fetcher.KindOf(err)
	if ok && kind == fetcher.KindNetwork {
		return Outcome{Kind: OutcomeUnreachable, Err: err}
	}
	return Outcome{Kind: OutcomeRejected, Message: fetcher.MessageOf(err), Err: err}
}
